package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shazhou-ww/hstore/internal/browsefs"
)

var (
	mountpoint string
	mountDebug bool
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "mount a read-only inspection filesystem over the store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if mountpoint == "" {
			return fmt.Errorf("--mount is required")
		}
		if err := os.MkdirAll(mountpoint, 0755); err != nil {
			return fmt.Errorf("create mountpoint: %w", err)
		}

		ctx := context.Background()
		store, adapter, err := openStore(ctx)
		if err != nil {
			return err
		}

		server, err := browsefs.Mount(mountpoint, store, adapter, mountDebug)
		if err != nil {
			return fmt.Errorf("mount failed: %w", err)
		}

		done := make(chan os.Signal, 1)
		signal.Notify(done, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-done
			fmt.Fprintln(cmd.OutOrStdout(), "hstore: unmounting...")
			server.Unmount()
		}()

		fmt.Fprintf(cmd.OutOrStdout(), "hstore: mounted at %s (pid %d)\n", mountpoint, os.Getpid())
		server.Wait()
		return nil
	},
}

func init() {
	browseCmd.Flags().StringVar(&mountpoint, "mount", "", "FUSE mount point (required)")
	browseCmd.Flags().BoolVar(&mountDebug, "debug", false, "enable go-fuse debug logging")
}
