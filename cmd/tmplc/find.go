package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) findCmd() *cobra.Command {
	var origin string
	cmd := &cobra.Command{
		Use:   "find [flags] <name>",
		Short: "Resolve a template name to a file",
		Long: `Find looks a template name up the way includes do: next to the --origin
template first, then in each template dir of the config.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			sess, cfg, err := a.open()
			if err != nil {
				return err
			}
			defer sess.Close()

			file, err := cfg.Find(args[0], origin)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.stdout, file)
			return err
		},
	}
	cmd.Flags().StringVar(&origin, "origin", "", "template the name is referenced from")
	return cmd
}
