package main

import (
	"context"

	"github.com/spf13/cobra"
)

var logLimit int

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "walk the version chain from head, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, _, err := openStore(ctx)
		if err != nil {
			return err
		}
		chain, err := store.Log(ctx, logLimit)
		if err != nil {
			return err
		}
		for _, sv := range chain {
			if err := printVersion(cmd, sv); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	logCmd.Flags().IntVar(&logLimit, "n", 20, "maximum number of versions to print")
}
