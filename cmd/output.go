package cmd

import (
	"io"

	"github.com/KaramelBytes/punctuality-cli/internal/utils"
)

func writeJSONTo(w io.Writer, v any) error {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}
