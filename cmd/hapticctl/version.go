package main

import "github.com/spf13/cobra"

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}
}

func runVersion(cmd *cobra.Command, _ []string) error {
	out := newOutputFormatter(cmd)
	if out.jsonMode {
		return out.printJSON(map[string]string{
			"version": version,
			"commit":  commit,
			"date":    date,
		})
	}
	out.printf("hapticctl %s (commit %s, built %s)\n", version, commit, date)
	return nil
}
