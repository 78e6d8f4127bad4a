// Command enumerfix rewrites enumer output to build errors with
// cockroachdb/errors instead of fmt.
package main

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	errorsImport    = `"github.com/cockroachdb/errors"`
	filePermissions = 0o644
)

// ErrUsage indicates incorrect usage of the tool.
var ErrUsage = errors.New("usage: enumerfix <file>...")

var importBlock = regexp.MustCompile(`import \(\n([\s\S]*?)\n\)`)

// fmt uses that keep the fmt import alive after the rewrite.
var fmtUses = []string{"fmt.Sprintf", "fmt.Stringer", "fmt.Fprintf", "fmt.Printf"}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(files []string) error {
	if len(files) == 0 {
		return ErrUsage
	}

	for _, name := range files {
		if err := fixFile(name); err != nil {
			return errors.Wrapf(err, "fixing %s", name)
		}
	}

	return nil
}

func fixFile(name string) error {
	content, err := os.ReadFile(name) //nolint:gosec // G304: path from go:generate
	if err != nil {
		return errors.Wrap(err, "reading file")
	}

	fixed := fix(string(content))
	if fixed == string(content) {
		return nil
	}

	return errors.Wrap(os.WriteFile(name, []byte(fixed), filePermissions), "writing file")
}

// fix is idempotent: already fixed content comes back unchanged.
func fix(content string) string {
	if !strings.Contains(content, "fmt.Errorf") {
		return content
	}

	content = strings.ReplaceAll(content, "fmt.Errorf", "errors.Newf")

	for _, use := range fmtUses {
		if strings.Contains(content, use) {
			return appendImport(content)
		}
	}

	if strings.Contains(content, `import "fmt"`) {
		return strings.Replace(content, `import "fmt"`, "import "+errorsImport, 1)
	}

	return strings.Replace(content, "\t\"fmt\"", "\t"+errorsImport, 1)
}

func appendImport(content string) string {
	match := importBlock.FindStringSubmatchIndex(content)
	if match == nil {
		return content
	}

	imports := content[match[2]:match[3]]
	if strings.Contains(imports, errorsImport) {
		return content
	}

	return content[:match[3]] + "\n\t" + errorsImport + content[match[3]:]
}
