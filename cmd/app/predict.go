package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"CreditScore/internal/di"
	"CreditScore/internal/domain/models"
	xhttp "CreditScore/pkg/http"
)

var (
	predictModel string
	predictInput string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Score one applicant without starting the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		variant, ok := models.ParseModelVariant(predictModel)
		if !ok {
			return fmt.Errorf("unknown model %q", predictModel)
		}

		in, err := openInput(cmd, predictInput)
		if err != nil {
			return err
		}
		defer in.Close()

		applicant, err := readApplicant(cmd, in)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		predictor, cleanup, err := di.InitializePredictor(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		pred, err := predictor.Predict(cmd.Context(), variant, applicant)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), pred)
	},
}

func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

// readApplicant decodes and validates with the same rules as the HTTP API.
func readApplicant(cmd *cobra.Command, r io.Reader) (models.ApplicantInput, error) {
	var in models.ApplicantInput
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return in, fmt.Errorf("decode applicant: %w", err)
	}
	if verrs := xhttp.ValidateStruct(cmd.Context(), &in); len(verrs) > 0 {
		msgs := make([]string, 0, len(verrs))
		for _, v := range verrs {
			msgs = append(msgs, v.Message)
		}
		return in, fmt.Errorf("invalid applicant: %s", strings.Join(msgs, "; "))
	}
	return in, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
