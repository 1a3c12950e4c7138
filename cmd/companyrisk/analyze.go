package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gartstein/companyrisk/internal/company/controller"
	"github.com/gartstein/companyrisk/internal/company/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newAnalyzeCommand(a *app) *cobra.Command {
	var (
		mode         string
		out          string
		documentsDir string
	)

	cmd := &cobra.Command{
		Use:   "analyze <company-number>",
		Short: "Build, score and print a company record",
		Long: "Fetches the company profile, officers, persons with significant control\n" +
			"and filing history, scores every person and prints the record as JSON.\n" +
			"Binary mode also downloads the PDF of each filed document.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if documentsDir != "" && mode != controller.ModeBinary {
				return fmt.Errorf("--documents-dir requires --mode %s", controller.ModeBinary)
			}

			comps, err := a.build()
			if err != nil {
				return err
			}
			defer comps.Close()

			analysis, err := comps.service.Analyze(cmd.Context(), args[0], mode)
			if err != nil {
				return err
			}
			a.logger.Info("Analysis stored",
				zap.String("analysis_id", analysis.ID.String()),
				zap.String("company", analysis.Company.String()),
			)

			if documentsDir != "" {
				n, err := writeDocuments(documentsDir, analysis.Company)
				if err != nil {
					return err
				}
				a.logger.Info("Documents written", zap.Int("count", n), zap.String("dir", documentsDir))
			}

			if out == "" {
				return writeReport(cmd.OutOrStdout(), analysis.Company)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			if err := writeReport(f, analysis.Company); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}

	cmd.Flags().StringVar(&mode, "mode", controller.ModeBasic, "analysis mode (basic, binary)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file path (default: stdout)")
	cmd.Flags().StringVar(&documentsDir, "documents-dir", "", "directory for downloaded documents (binary mode)")

	return cmd
}

// writeReport writes the company record as indented JSON.
func writeReport(w io.Writer, c *models.Company) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// writeDocuments stores each downloaded document as <document-id>.pdf and
// returns the number of files written.
func writeDocuments(dir string, c *models.Company) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create documents dir: %w", err)
	}
	n := 0
	for _, doc := range c.Documents() {
		if len(doc.Binary) == 0 || doc.ID == "" {
			continue
		}
		path := filepath.Join(dir, filepath.Base(doc.ID)+".pdf")
		if err := os.WriteFile(path, doc.Binary, 0o644); err != nil {
			return n, fmt.Errorf("failed to write document %s: %w", doc.ID, err)
		}
		n++
	}
	return n, nil
}
