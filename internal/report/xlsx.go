package report

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/greenfinch/fieldvisit/internal/model"
)

// SheetName is the worksheet holding exported reports.
const SheetName = "Reports"

var xlsxHeader = []string{
	"ID", "Created At", "Postal Code", "Address", "Score", "Valuation (Lakhs)",
	"Loan Status", "Loan Range", "Images", "Notes Summary",
}

// WriteXLSX writes one row per report to a single-sheet workbook.
func WriteXLSX(w io.Writer, reports []model.Report) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range xlsxHeader {
		header.AddCell().SetString(h)
	}

	for _, r := range reports {
		row := sheet.AddRow()
		row.AddCell().SetString(r.ID)
		row.AddCell().SetString(r.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
		row.AddCell().SetString(r.Input.PostalCode)
		row.AddCell().SetString(r.Input.PropertyAddress)
		row.AddCell().SetInt(r.Result.Score)
		row.AddCell().SetString(r.Result.Valuation)
		row.AddCell().SetString(Label(r.Result.LoanRecommendation.Status))
		row.AddCell().SetString(r.Result.LoanRecommendation.Range)
		row.AddCell().SetInt(r.Input.ImageCount)
		summary := ""
		if r.Summary != nil {
			summary = strings.TrimSpace(r.Summary.Summary)
		}
		row.AddCell().SetString(summary)
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "report: write xlsx")
	}
	return nil
}
