package main

import "github.com/KaramelBytes/punctuality-cli/cmd"

func main() {
	cmd.Execute()
}
