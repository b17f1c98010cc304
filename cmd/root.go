package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/greenfinch/fieldvisit/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "fieldvisit",
	Short: "Field visit credibility scoring and property valuation",
	Long:  `fieldvisit turns a field agent's property visit into a valuation report.

An agent records the postal code, documentation checks (neighbour confirmation,
employment proof, Aadhaar address match), neighbourhood and road conditions,
nearby sales and photos. fieldvisit scores the visit's credibility out of 100,
estimates the property value in lakhs, and places it in a loan band
(okay, caution or not recommended). Photographed handwritten notes are read
with OCR and summarized; property photos are classified.

Reports are stored in SQLite or Postgres and can be listed, rendered as HTML
or text, and exported to XLSX. Use "serve" for the HTTP API and results page,
"assess" to value a visit described in a YAML or JSON file, and "reports" to
browse stored reports.`,
	Example: `  fieldvisit assess --input visit.yaml --format html > report.html
  fieldvisit serve --port 8080
  fieldvisit reports list --loan-status caution`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
