package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/greenfinch/fieldvisit/internal/model"
	"github.com/greenfinch/fieldvisit/internal/report"
	"github.com/greenfinch/fieldvisit/internal/store"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect stored valuation reports",
	Long:  "Commands for listing, viewing, summarizing and exporting valuation reports.",
}

// -- reports list --

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List valuation reports",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("loan-status")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		reports, err := st.ListReports(ctx, store.ListOpts{
			Limit:      limit,
			Offset:     offset,
			LoanStatus: model.LoanStatus(status),
		})
		if err != nil {
			return eris.Wrap(err, "reports list")
		}

		if len(reports) == 0 {
			fmt.Fprintln(os.Stderr, "No reports found.")
			return nil
		}

		formatReportsList(cmd.OutOrStdout(), reports)
		return nil
	},
}

// -- reports show --

var reportsShowCmd = &cobra.Command{
	Use:   "show <report-id>",
	Short: "Show a report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rep, err := st.GetReport(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "reports show")
		}

		format, _ := cmd.Flags().GetString("format")
		return writeReport(cmd.OutOrStdout(), rep, format, time.Now())
	},
}

// -- reports stats --

var reportsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate report statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		stats, err := st.ReportStats(ctx)
		if err != nil {
			return eris.Wrap(err, "reports stats")
		}

		formatReportStats(cmd.OutOrStdout(), stats)
		return nil
	},
}

// -- reports export --

var reportsExportCmd = &cobra.Command{
	Use:   "export [report-id]",
	Short: "Export one report as HTML, or all reports as XLSX",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		outPath, _ := cmd.Flags().GetString("out")

		if len(args) == 1 {
			rep, err := st.GetReport(ctx, args[0])
			if err != nil {
				return eris.Wrap(err, "reports export")
			}
			if outPath == "" {
				outPath = report.DownloadFilename
			}
			return writeFile(outPath, func(w io.Writer) error {
				return report.RenderHTML(w, report.FromReport(*rep, time.Now()))
			})
		}

		if outPath == "" {
			outPath = "fieldvisit_reports.xlsx"
		}
		status, _ := cmd.Flags().GetString("loan-status")
		limit, _ := cmd.Flags().GetInt("limit")
		reports, err := st.ListReports(ctx, store.ListOpts{Limit: limit, LoanStatus: model.LoanStatus(status)})
		if err != nil {
			return eris.Wrap(err, "reports export")
		}
		return writeFile(outPath, func(w io.Writer) error {
			return report.WriteXLSX(w, reports)
		})
	},
}

func init() {
	reportsListCmd.Flags().String("loan-status", "", "filter by loan status (okay, caution, not_recommended)")
	reportsListCmd.Flags().Int("limit", 50, "max number of reports to display")
	reportsListCmd.Flags().Int("offset", 0, "number of reports to skip")

	reportsShowCmd.Flags().String("format", "text", "output format: text, json or html")

	reportsExportCmd.Flags().String("out", "", "output file (default depends on export type)")
	reportsExportCmd.Flags().String("loan-status", "", "filter XLSX export by loan status")
	reportsExportCmd.Flags().Int("limit", 10000, "max reports in XLSX export")

	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsShowCmd)
	reportsCmd.AddCommand(reportsStatsCmd)
	reportsCmd.AddCommand(reportsExportCmd)
	rootCmd.AddCommand(reportsCmd)
}

// writeReport renders rep in the requested format.
func writeReport(out io.Writer, rep *model.Report, format string, now time.Time) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case "html":
		return report.RenderHTML(out, report.FromReport(*rep, now))
	case "text", "":
		return report.RenderText(out, report.FromReport(*rep, now))
	default:
		return eris.Errorf("unknown format %q (want text, json or html)", format)
	}
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	if err := write(f); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "close %s", path)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	return nil
}

// formatReportsList writes a tabular list of reports to w.
func formatReportsList(out io.Writer, reports []model.Report) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPOSTAL\tSCORE\tVALUATION\tLOAN\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t------\t-----\t---------\t----\t-------")

	for _, r := range reports {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			truncateID(r.ID),
			r.Input.PostalCode,
			r.Result.Score,
			report.FormatValuation(r.Result.Valuation),
			r.Result.LoanRecommendation.Status,
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// formatReportStats writes aggregate stats to w.
func formatReportStats(out io.Writer, s *store.Stats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total reports:\t%d\n", s.Total)
	if s.Total > 0 {
		_, _ = fmt.Fprintf(w, "Avg score:\t%.1f\n", s.AverageScore)
	}

	statuses := make([]string, 0, len(s.ByLoanStatus))
	for st := range s.ByLoanStatus {
		statuses = append(statuses, string(st))
	}
	sort.Strings(statuses)
	for _, st := range statuses {
		_, _ = fmt.Fprintf(w, "  %s:\t%d\n", report.Label(st), s.ByLoanStatus[model.LoanStatus(st)])
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
