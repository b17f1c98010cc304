package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
)

// RenderText writes doc as plain text for terminals.
func RenderText(w io.Writer, doc Document) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n", Title, Subtitle)
	fmt.Fprintf(&b, "Generated on %s\n", FormatDate(doc.GeneratedAt))
	if doc.ID != "" {
		fmt.Fprintf(&b, "Report ID: %s\n", doc.ID)
	}
	if doc.Address != "" {
		fmt.Fprintf(&b, "Property: %s\n", doc.Address)
	}

	fmt.Fprintf(&b, "\nCredibility Score: %d/100 (%s)\n", doc.Score, CredibilityLabel(doc.Score))
	fmt.Fprintf(&b, "Valuation: %s\n", FormatValuation(doc.Valuation))
	fmt.Fprintf(&b, "Loan: %s, %s\n  %s\n", Label(doc.Loan.Status), doc.Loan.Range, doc.Loan.Message)

	b.WriteString("\nValuation Factors\n")
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	for _, f := range doc.Factors {
		fmt.Fprintf(tw, "  %s\t%s\t%.2f\n", f.Name, Label(f.Status), f.Contribution)
	}
	if err := tw.Flush(); err != nil {
		return eris.Wrap(err, "report: flush factors")
	}

	if doc.Summary != nil {
		fmt.Fprintf(&b, "\nAgent Notes Summary\n  %s\n", doc.Summary.Summary)
		for _, p := range doc.Summary.KeyPoints {
			fmt.Fprintf(&b, "  - %s\n", p)
		}
	}

	for i, img := range doc.Images {
		if i == 0 {
			b.WriteString("\nImage Analysis\n")
		}
		fmt.Fprintf(&b, "  %d. %s, %s quality, %d%% confidence: %s\n",
			i+1, img.PropertyType, img.Quality, img.ConfidenceScore, strings.Join(img.DetectedFeatures, ", "))
	}

	rec := Recommend(doc.Score)
	fmt.Fprintf(&b, "\nRecommendation\n  %s\n  %s\n", rec.Text, rec.Closing)

	if _, err := io.WriteString(w, b.String()); err != nil {
		return eris.Wrap(err, "report: write text")
	}
	return nil
}
