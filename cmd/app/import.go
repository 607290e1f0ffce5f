package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"CreditScore/internal/di"
	"CreditScore/internal/repository"
	"CreditScore/internal/services/features"
)

var importFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a CSV dataset through the configured backend",
	Long: `Reads credit records from a CSV file and sends them to the
backend selected by import.backend:
  kafka      - publish to kafka.topic; a serving instance with kafka.enabled stores them
  clickhouse - insert directly into the records table`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		catalog, err := features.LoadCatalog(cfg.Models.Catalog)
		if err != nil {
			return err
		}

		f, err := os.Open(importFile)
		if err != nil {
			return fmt.Errorf("open %s: %w", importFile, err)
		}
		defer f.Close()

		records, err := repository.ReadRecords(cmd.Context(), f, catalog.LoanTypes)
		if err != nil {
			return err
		}

		importer, cleanup, err := di.InitializeImporter(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		n, err := importer.Import(cmd.Context(), records)
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d records via %s\n", n, len(records), cfg.Import.Backend)
		return err
	},
}
