package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/tmplc/tmplc/parser"
)

func (a *app) parseCmd() *cobra.Command {
	var format, syntaxName string
	cmd := &cobra.Command{
		Use:   "parse [flags] <file>",
		Short: "Parse a template and print its syntax tree",
		Long:  `Parse reads one template file and prints its syntax tree using the delimiters of the project config.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runParse(args[0], format, syntaxName)
		},
	}
	cmd.Flags().StringVar(&format, "format", "debug", "output format (debug|yaml|json)")
	cmd.Flags().StringVar(&syntaxName, "syntax", "", "named syntax from the config (default: the config's default syntax)")
	return cmd
}

func (a *app) runParse(file, format, syntaxName string) error {
	switch format {
	case "debug", "yaml", "json":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	sess, cfg, err := a.open()
	if err != nil {
		return err
	}
	defer sess.Close()

	syn := cfg.Default()
	if syntaxName != "" {
		var ok bool
		if syn, ok = cfg.Syntax(syntaxName); !ok {
			return fmt.Errorf("syntax %q is not defined (have %v)", syntaxName, cfg.SyntaxNames())
		}
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}
	tmpl, err := sess.Parse(syn, string(data), file)
	if err != nil {
		return err
	}

	switch format {
	case "yaml":
		out, err := yaml.Marshal(parser.Outline(tmpl))
		if err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		_, err = a.stdout.Write(out)
		return err
	case "json":
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(parser.Outline(tmpl))
	}
	_, err = fmt.Fprint(a.stdout, parser.DebugString(tmpl))
	return err
}
