// Command schema-gen writes the versioned configuration schema into a
// directory, schema/ by default.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/sendguard/internal/schema"
)

const filePerms = 0o644

func main() {
	outDir := "schema"
	if len(os.Args) > 1 {
		outDir = os.Args[1]
	}

	path, err := write(outDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(path)
}

func write(outDir string) (string, error) {
	data, err := schema.GenerateJSON(true)
	if err != nil {
		return "", err
	}

	path := filepath.Clean(filepath.Join(outDir, schema.Filename()))

	//nolint:gosec // dev tool, outDir from CLI arg
	if err := os.WriteFile(path, data, filePerms); err != nil {
		return "", errors.Wrap(err, "writing schema")
	}

	return path, nil
}
