package report

import (
	"html/template"
	"io"

	"github.com/rotisserie/eris"

	"github.com/greenfinch/fieldvisit/internal/model"
)

var htmlTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"valuation":    FormatValuation,
	"credibility":  CredibilityLabel,
	"date":         FormatDate,
	"label":        Label[model.FactorStatus],
	"loanColour":   loanColour,
	"factorColour": factorColour,
	"inc":          func(i int) int { return i + 1 },
}).Parse(htmlSource))

const htmlSource = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}} - {{.Subtitle}}</title>
<style>
body { font-family: Arial, Helvetica, sans-serif; max-width: 800px; margin: 0 auto; padding: 20px; color: #333; }
h1, h3 { color: #166534; }
.box { margin-bottom: 20px; padding: 15px; border: 1px solid #ccc; border-radius: 5px; }
.row { display: flex; align-items: center; justify-content: space-between; }
.big { font-size: 24px; font-weight: bold; }
</style>
</head>
<body>
<div style="text-align: center; margin-bottom: 20px;">
  <h1 style="margin-bottom: 5px;">{{.Title}}</h1>
  <h2 style="margin-top: 0;">{{.Subtitle}}</h2>
  <p>Generated on {{date .Doc.GeneratedAt}}</p>
  {{- with .Doc.Address}}
  <p>{{.}}</p>
  {{- end}}
</div>

<div class="box">
  <h3 style="margin-top: 0;">Credibility Score</h3>
  <div class="row">
    <div class="big">{{.Doc.Score}}/100</div>
    <div class="big">{{valuation .Doc.Valuation}}</div>
  </div>
  <p>{{credibility .Doc.Score}}</p>
</div>

<div class="box">
  <h3 style="margin-top: 0;">Loan Recommendation</h3>
  <div style="padding: 10px; background-color: {{loanColour .Doc.Loan.Status}}; border-radius: 5px;">
    <div style="font-weight: bold;">{{.Doc.Loan.Range}}</div>
    <div>{{.Doc.Loan.Message}}</div>
  </div>
</div>

<div class="box">
  <h3 style="margin-top: 0;">Valuation Factors</h3>
  <ul style="padding-left: 20px;">
  {{- range .Doc.Factors}}
    <li style="margin-bottom: 10px;">
      <div style="font-weight: bold;">{{.Name}}</div>
      <div style="color: {{factorColour .Status}};">{{label .Status}}</div>
    </li>
  {{- end}}
  </ul>
</div>
{{- with .Doc.Summary}}

<div class="box">
  <h3 style="margin-top: 0;">Agent Notes Summary</h3>
  <p>{{.Summary}}</p>
  {{- if .KeyPoints}}
  <ul>
  {{- range .KeyPoints}}
    <li>{{.}}</li>
  {{- end}}
  </ul>
  {{- end}}
</div>
{{- end}}
{{- if .Doc.Images}}

<div class="box">
  <h3 style="margin-top: 0;">Image Analysis</h3>
  <ul style="padding-left: 20px;">
  {{- range $i, $img := .Doc.Images}}
    <li>Image {{inc $i}}: {{$img.PropertyType}}, {{$img.Quality}} quality ({{$img.ConfidenceScore}}% confidence)</li>
  {{- end}}
  </ul>
</div>
{{- end}}

<div class="box">
  <h3 style="margin-top: 0;">AI Recommendation</h3>
  <p>{{.Rec.Text}}</p>
  <p>{{.Rec.Closing}}</p>
</div>

<div style="text-align: center; margin-top: 30px; font-size: 12px; color: #666;">
  {{.Footer}}
</div>
</body>
</html>
`

type htmlData struct {
	Title    string
	Subtitle string
	Footer   string
	Doc      Document
	Rec      Recommendation
}

// RenderHTML writes doc as a self-contained HTML page.
func RenderHTML(w io.Writer, doc Document) error {
	data := htmlData{
		Title:    Title,
		Subtitle: Subtitle,
		Footer:   Footer,
		Doc:      doc,
		Rec:      Recommend(doc.Score),
	}
	if err := htmlTmpl.Execute(w, data); err != nil {
		return eris.Wrap(err, "report: render html")
	}
	return nil
}

func loanColour(status model.LoanStatus) template.CSS {
	switch status {
	case model.LoanOkay:
		return "#dcfce7"
	case model.LoanCaution:
		return "#fef9c3"
	case model.LoanNotRecommended:
		return "#fee2e2"
	default:
		return "#f3f4f6"
	}
}

func factorColour(status model.FactorStatus) template.CSS {
	switch status {
	case model.FactorPositive:
		return "green"
	case model.FactorNeutral:
		return "orange"
	default:
		return "red"
	}
}
