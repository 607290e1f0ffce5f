package main

import (
	"github.com/spf13/cobra"

	"CreditScore/internal/di"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		app, cleanup, err := di.InitializeApp(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		// blocks until SIGINT/SIGTERM
		return app.Run(cmd.Context())
	},
}
