package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	internalconfig "github.com/smykla-skalski/sendguard/internal/config"
	"github.com/smykla-skalski/sendguard/internal/schema"
	"github.com/smykla-skalski/sendguard/pkg/logger"
)

const schemaDirName = "schema"

var (
	globalFlag bool
	forceFlag  bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage sendguard configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the defaults",
	Long: `Write a configuration file with the defaults.

By default the project configuration (.sendguard/config.toml) is written.
Use --global or -g for ~/.sendguard/config.toml. The JSON schema is
written next to the file for editor completion.

Use --force to overwrite an existing configuration file. The old file is
kept next to it with a timestamped .bak suffix.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as TOML",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)

	configInitCmd.Flags().BoolVarP(&globalFlag, "global", "g", false, "Initialize global configuration")
	configInitCmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "Overwrite existing configuration")
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	writer, err := internalconfig.NewWriter()
	if err != nil {
		return err
	}

	path := writer.ProjectConfigPath()
	exists := writer.IsProjectConfigExists()

	if globalFlag {
		path = writer.GlobalConfigPath()
		exists = writer.IsGlobalConfigExists()
	}

	if exists && !forceFlag {
		return errors.Wrapf(internalconfig.ErrConfigExists, "%s (use --force to overwrite)", path)
	}

	if exists {
		backup, err := writer.Backup(path, time.Now())
		if err != nil {
			return err
		}

		fmt.Printf("Backed up %s to %s\n", path, backup)
	}

	if err := writer.WriteFile(path, internalconfig.DefaultConfig()); err != nil {
		return err
	}

	if err := writeSchema(filepath.Dir(path)); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", path)

	return nil
}

func writeSchema(configDir string) error {
	data, err := schema.GenerateJSON(true)
	if err != nil {
		return err
	}

	dir := filepath.Join(configDir, schemaDirName)
	if err := os.MkdirAll(dir, internalconfig.ConfigDirMode); err != nil {
		return errors.Wrap(err, "creating schema directory")
	}

	path := filepath.Join(dir, schema.Filename())
	if err := os.WriteFile(path, data, internalconfig.ConfigFileMode); err != nil {
		return errors.Wrap(err, "writing schema")
	}

	return nil
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	log := logger.NewWriterLogger(os.Stderr, logger.LevelFromFlags(debugMode, traceMode))

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	encoder := toml.NewEncoder(os.Stdout)
	encoder.SetIndentTables(true)

	return errors.Wrap(encoder.Encode(cfg), "encoding config")
}
