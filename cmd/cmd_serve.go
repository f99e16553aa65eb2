// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jcodagnone/talkmap/preview"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serves the generated map for local preview",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			logger, err := loggerFor(cmd, v)
			if err != nil {
				return err
			}

			server, err := preview.NewServer(v.GetString("output-dir"), logger)
			if err != nil {
				return err
			}

			addr := v.GetString("addr")
			fmt.Printf("Serving %s on http://%s/\n", server.Dir(), addr)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.Run(ctx, addr)
		},
	}

	cmd.Flags().String("addr", "localhost:8080", "Address to listen on")

	return cmd
}

func init() {
	rootCmd.AddCommand(newServeCmd())
}
