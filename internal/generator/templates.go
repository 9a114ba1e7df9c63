package generator

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
)

//go:embed all:templates
var builtin embed.FS

// Builtin returns the template set compiled into the binary.
func Builtin() fs.FS {
	sub, err := fs.Sub(builtin, "templates")
	if err != nil {
		// the embed directive guarantees the directory exists
		panic(err)
	}
	return sub
}

// Source returns the template source for dir, or the built-in set when dir
// is empty.
func Source(dir string) (fs.FS, error) {
	if dir == "" {
		return Builtin(), nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open templates directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("templates path %s is not a directory", dir)
	}

	return os.DirFS(dir), nil
}
