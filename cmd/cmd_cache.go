// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/jcodagnone/talkmap/store"
	"github.com/jcodagnone/talkmap/utils/textutils"
	"github.com/spf13/cobra"
)

var errMissingCacheDB = errors.New("--cache-db or TALKMAP_CACHE_DB is required")

// withRepository opens the configured cache for the duration of fn.
func withRepository(cmd *cobra.Command, fn func(repo *store.Repository) error) (err error) {
	v, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	path := v.GetString("cache-db")
	if path == "" {
		return errMissingCacheDB
	}

	repo, closeRepo, err := openRepository(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, closeRepo())
	}()

	return fn(repo)
}

func newCacheExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Exports the cached geocodes as JSON sorted by location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(cmd, func(repo *store.Repository) error {
				n, err := store.ExportToJSON(repo, args[0])
				if err != nil {
					return fmt.Errorf("exporting cache: %w", err)
				}

				fmt.Printf("Exported %s geocodes to %s\n", textutils.FormatInt(int64(n)), args[0])

				return nil
			})
		},
	}
}

func newCacheImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Loads geocodes from a JSON export, replacing existing locations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(cmd, func(repo *store.Repository) error {
				n, err := store.ImportFromJSON(repo, args[0])
				if err != nil {
					return fmt.Errorf("importing cache: %w", err)
				}

				total, err := repo.Count()
				if err != nil {
					return err
				}

				fmt.Printf("Imported %s geocodes, %s cached\n",
					textutils.FormatInt(int64(n)), textutils.FormatInt(int64(total)))

				return nil
			})
		},
	}
}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manages the geocode cache",
	}
	cmd.AddCommand(newCacheExportCmd(), newCacheImportCmd())

	return cmd
}

func init() {
	rootCmd.AddCommand(newCacheCmd())
}
