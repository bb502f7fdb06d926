package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shazhou-ww/hstore/internal/identity"
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "export or verify a signed snapshot of the current head",
}

var checkpointExportCmd = &cobra.Command{
	Use:   "export",
	Short: "sign and print a checkpoint of the current head",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, _, err := openStore(ctx)
		if err != nil {
			return err
		}

		var head string
		sv, ok, err := store.Head(ctx)
		if err != nil {
			return err
		}
		if ok {
			head = sv.Hash
		}

		chainLen, err := store.ChainLength(ctx)
		if err != nil {
			return err
		}

		idPath, err := identity.DefaultPath()
		if err != nil {
			return err
		}
		id, err := identity.Load(idPath)
		if err != nil {
			return fmt.Errorf("load local identity: %w", err)
		}

		cp, err := id.Export(head, chainLen, nowMS())
		if err != nil {
			return fmt.Errorf("export checkpoint: %w", err)
		}
		data, err := json.MarshalIndent(cp, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var checkpointVerifyFile string

var checkpointVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "verify a checkpoint document's signature",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if checkpointVerifyFile != "" {
			data, err = os.ReadFile(checkpointVerifyFile)
		} else {
			data, err = readAllStdin()
		}
		if err != nil {
			return fmt.Errorf("read checkpoint: %w", err)
		}

		var cp identity.Checkpoint
		if err := json.Unmarshal(data, &cp); err != nil {
			return fmt.Errorf("parse checkpoint: %w", err)
		}

		ok, err := identity.VerifyCheckpoint(cp)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("checkpoint signature is INVALID")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "checkpoint signature is valid")
		return nil
	},
}

func init() {
	checkpointVerifyCmd.Flags().StringVar(&checkpointVerifyFile, "file", "", "read the checkpoint document from a file instead of stdin")
	checkpointCmd.AddCommand(checkpointExportCmd)
	checkpointCmd.AddCommand(checkpointVerifyCmd)
}

func readAllStdin() ([]byte, error) {
	return io.ReadAll(os.Stdin)
}
