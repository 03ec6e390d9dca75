package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSafeWriteFileReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	for _, body := range []string{"first", "second"} {
		if err := SafeWriteFile(path, []byte(body)); err != nil {
			t.Fatalf("SafeWriteFile: %v", err)
		}
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != body {
			t.Fatalf("content = %q, want %q", got, body)
		}
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestResolvePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cases := []struct {
		dir, name, want string
	}{
		{"data", "", ""},
		{"data", "a.csv", filepath.Join("data", "a.csv")},
		{"data", "/abs/a.csv", "/abs/a.csv"},
		{"", "a.csv", "a.csv"},
		{"data", "~/a.csv", filepath.Join(home, "a.csv")},
		{"~/d", "a.csv", filepath.Join(home, "d", "a.csv")},
	}
	for _, c := range cases {
		if got := ResolvePath(c.dir, c.name); got != c.want {
			t.Fatalf("ResolvePath(%q, %q) = %q, want %q", c.dir, c.name, got, c.want)
		}
	}
}

func TestPrettyJSON(t *testing.T) {
	b, err := PrettyJSON(map[string]int{"a": 1})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "{\n  \"a\": 1\n}" {
		t.Fatalf("PrettyJSON = %q", b)
	}
}
