// Command hstore is the CLI front end over the content-addressed JSON
// store: commit, head, get, log, checkpoint export/verify, and a
// read-only browse mount.
//
// Built as a cobra command tree, one subcommand per verb, rather than
// a single flag.Parse() binary, since the surface grew past one verb.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shazhou-ww/hstore/internal/block"
	"github.com/shazhou-ww/hstore/internal/block/disk"
	"github.com/shazhou-ww/hstore/internal/block/memory"
	"github.com/shazhou-ww/hstore/internal/canhash"
	"github.com/shazhou-ww/hstore/internal/cascade"
	"github.com/shazhou-ww/hstore/internal/schema"
	"github.com/shazhou-ww/hstore/internal/version"
)

var (
	dataDir   string
	cacheDir  string
	hashName  string
	rootCmd   = &cobra.Command{
		Use:   "hstore",
		Short: "content-addressed JSON store",
		Long:  "hstore commits, reads, and inspects a content-addressed, version-chained JSON store.",
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".hstore", "on-disk data directory")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "optional faster front layer (empty disables caching)")
	rootCmd.PersistentFlags().StringVar(&hashName, "hash", "sha256", "hash function: sha256 or blake3")

	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(headCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(checkpointCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "hstore: %v\n", err)
		os.Exit(1)
	}
}

func resolveHashFn() (canhash.HashFn, error) {
	switch hashName {
	case "sha256":
		return canhash.SHA256(), nil
	case "blake3":
		return canhash.BLAKE3(), nil
	default:
		return nil, fmt.Errorf("unknown --hash %q (want sha256 or blake3)", hashName)
	}
}

func openAdapter() (block.Adapter, error) {
	onDisk, err := disk.New(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open data directory %s: %w", dataDir, err)
	}
	if cacheDir == "" {
		return onDisk, nil
	}
	front := memory.New()
	c, err := cascade.New([]block.Adapter{front, onDisk})
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(os.Stderr, "hstore: using in-memory front cache over %s\n", dataDir)
	return c, nil
}

func openStore(ctx context.Context) (*version.Store, block.Adapter, error) {
	adapter, err := openAdapter()
	if err != nil {
		return nil, nil, err
	}
	hashFn, err := resolveHashFn()
	if err != nil {
		return nil, nil, err
	}
	store, err := version.Open(ctx, adapter, hashFn, schema.Any{}, nowMS)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return store, adapter, nil
}
