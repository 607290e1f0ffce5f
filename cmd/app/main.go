package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"CreditScore/pkg/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "creditscore",
	Short: "Credit score inference service and dataset dashboard backend",
	Long: `creditscore scores loan applicants with the supervised and
pseudo-label pipelines and serves the credit dataset aggregates.

Commands:
  serve   - run the HTTP API (and the Kafka record consumer when enabled)
  import  - load a CSV dataset into Kafka or ClickHouse
  predict - score one applicant from a JSON file`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "config file path")

	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "CSV file to import (required)")
	_ = importCmd.MarkFlagRequired("file")

	predictCmd.Flags().StringVarP(&predictModel, "model", "m", "supervised", "model variant: supervised or pseudo-label")
	predictCmd.Flags().StringVarP(&predictInput, "input", "i", "-", "applicant JSON file, - for stdin")

	rootCmd.AddCommand(serveCmd, importCmd, predictCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
