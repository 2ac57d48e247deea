package main

import (
	"github.com/spf13/cobra"

	"github.com/Hakote/Hakote/internal/app"
)

func init() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the send scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Serve()
		},
	}
	rootCmd.AddCommand(serveCmd)
}
