package main

import (
	"encoding/json"
	"os"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/smykla-skalski/sendguard/internal/color"
)

// Output formats.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

const yamlIndent = 2

// ErrUnknownOutput is returned for an unsupported --output value.
var ErrUnknownOutput = errors.New("unknown output format")

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(
		&outputFlag,
		"output",
		"o",
		outputTable,
		"Output format (table, json, yaml)",
	)
}

func validateOutput() error {
	if !slices.Contains([]string{outputTable, outputJSON, outputYAML}, outputFlag) {
		return errors.Wrapf(ErrUnknownOutput, "%q", outputFlag)
	}

	return nil
}

// printStructured writes v as JSON or YAML when requested. It returns false
// when the caller should render its own table output.
func printStructured(v any) (bool, error) {
	switch outputFlag {
	case outputJSON:
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")

		return true, errors.Wrap(encoder.Encode(v), "encoding JSON output")
	case outputYAML:
		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(yamlIndent)

		if err := encoder.Encode(v); err != nil {
			return true, errors.Wrap(err, "encoding YAML output")
		}

		return true, errors.Wrap(encoder.Close(), "encoding YAML output")
	default:
		return false, nil
	}
}

func theme() color.Theme {
	return color.NewTheme(color.Profile(noColorFlag) && color.IsTerminal(os.Stdout))
}
