package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shazhou-ww/hstore/internal/version"
)

var headCmd = &cobra.Command{
	Use:   "head",
	Short: "print the current head version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, _, err := openStore(ctx)
		if err != nil {
			return err
		}
		sv, ok, err := store.Head(ctx)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "(no commits yet)")
			return nil
		}
		return printVersion(cmd, sv)
	},
}

// stateVersionJSON is the CLI-facing rendering of a version.StateVersion:
// its hash, the value materialized as a plain Go tree, previous, and
// timestamp.
type stateVersionJSON struct {
	Hash      string      `json:"hash"`
	Value     interface{} `json:"value"`
	Previous  string      `json:"previous"`
	Timestamp int64       `json:"timestamp"`
}

func printVersion(cmd *cobra.Command, sv version.StateVersion) error {
	data, err := json.MarshalIndent(stateVersionJSON{
		Hash:      sv.Hash,
		Value:     sv.Value.ToGo(),
		Previous:  sv.Previous,
		Timestamp: sv.Timestamp,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("render version: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
