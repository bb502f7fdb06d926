package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shazhou-ww/hstore/internal/jsonvalue"
)

var commitFile string

var commitCmd = &cobra.Command{
	Use:   "commit [json-value]",
	Short: "validate and commit a JSON value, advancing head",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readValueInput(args)
		if err != nil {
			return err
		}
		value, err := jsonvalue.Parse(raw)
		if err != nil {
			return fmt.Errorf("parse input: %w", err)
		}

		ctx := context.Background()
		store, _, err := openStore(ctx)
		if err != nil {
			return err
		}
		sv, err := store.Commit(ctx, value)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", sv.Hash)
		return nil
	},
}

func init() {
	commitCmd.Flags().StringVar(&commitFile, "file", "", "read the JSON value from a file instead of the positional argument")
}

func readValueInput(args []string) ([]byte, error) {
	if commitFile != "" {
		return os.ReadFile(commitFile)
	}
	if len(args) == 1 {
		return []byte(args[0]), nil
	}
	return nil, fmt.Errorf("provide a JSON value as an argument or via --file")
}
