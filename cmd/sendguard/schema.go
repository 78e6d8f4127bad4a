package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smykla-skalski/sendguard/internal/schema"
)

var schemaCompact bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the configuration file",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		data, err := schema.GenerateJSON(!schemaCompact)
		if err != nil {
			return err
		}

		fmt.Println(string(data))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)

	schemaCmd.Flags().BoolVar(&schemaCompact, "compact", false, "Print without indentation")
}
