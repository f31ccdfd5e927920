package main

import (
	"encoding/json"
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

func (a *app) configCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "config [flags]",
		Short: "Print the resolved configuration",
		Long:  `Config reads tmplc.toml, applies defaults and overrides, and prints the result.`,
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return a.runConfig(format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "output format (yaml|json)")
	return cmd
}

func (a *app) runConfig(format string) error {
	if format != "yaml" && format != "json" {
		return fmt.Errorf("unknown format: %s", format)
	}
	sess, cfg, err := a.open()
	if err != nil {
		return err
	}
	defer sess.Close()

	if format == "json" {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	_, err = a.stdout.Write(out)
	return err
}
