package report

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/leeaandrob/roascalc/internal/dashboard"
	"github.com/leeaandrob/roascalc/internal/models"
	"github.com/leeaandrob/roascalc/internal/roas"
)

// ComparativeInput is the month list behind a comparative document.
type ComparativeInput struct {
	Buckets      []models.MonthlyBucket
	SubjectName  string
	SubjectEmail string
	GeneratedAt  time.Time
}

type monthView struct {
	Label        string
	RatioDisplay string
	Invested     string
	Revenue      string
	Profit       string
	Negative     bool
	Count        int
}

type comparativeView struct {
	Months        []monthView
	TotalAnalyses int
	TotalInvested string
	TotalRevenue  string
	SubjectName   string
	SubjectEmail  string
	GeneratedAt   string
}

var comparativeTemplate = template.Must(template.New("comparative").Parse(documentHead + `
<div class="header">
  <h1>Relatório Comparativo ROAS</h1>
  <p>Evolução mensal do retorno sobre investimento em publicidade</p>
</div>
<div class="info-grid">
  <div class="info-card"><strong>Data do relatório</strong><span>{{.GeneratedAt}}</span></div>
  <div class="info-card"><strong>Cliente</strong><span>{{.SubjectName}}</span></div>
  {{- if .SubjectEmail}}
  <div class="info-card"><strong>Email</strong><span>{{.SubjectEmail}}</span></div>
  {{- end}}
</div>
{{- range .Months}}
<div class="month-card">
  <h3>{{.Label}}</h3>
  <div class="metrics">
    <div class="metric"><div class="metric-label">ROAS</div><div class="metric-value">{{.RatioDisplay}}</div></div>
    <div class="metric"><div class="metric-label">Investimento</div><div class="metric-value">{{.Invested}}</div></div>
    <div class="metric"><div class="metric-label">Receita</div><div class="metric-value">{{.Revenue}}</div></div>
    <div class="metric"><div class="metric-label">Lucro</div><div class="metric-value {{if .Negative}}negative{{else}}positive{{end}}">{{.Profit}}</div></div>
  </div>
  <p>{{.Count}} análise(s)</p>
</div>
{{- else}}
<p>Nenhuma análise registrada.</p>
{{- end}}
<div class="summary">
  <h2>Resumo Geral</h2>
  <div class="metrics">
    <div class="metric"><div class="metric-label">Total de análises</div><div class="metric-value">{{.TotalAnalyses}}</div></div>
    <div class="metric"><div class="metric-label">Investimento total</div><div class="metric-value">{{.TotalInvested}}</div></div>
    <div class="metric"><div class="metric-label">Receita total</div><div class="metric-value">{{.TotalRevenue}}</div></div>
  </div>
</div>
` + documentFoot))

// ComparativeHTML renders one card per month in ascending month order plus
// totals across all months. The input slice is not reordered.
func ComparativeHTML(in ComparativeInput) (string, error) {
	buckets := make([]models.MonthlyBucket, len(in.Buckets))
	copy(buckets, in.Buckets)
	dashboard.SortBuckets(buckets)

	view := comparativeView{
		Months:       make([]monthView, 0, len(buckets)),
		SubjectName:  in.SubjectName,
		SubjectEmail: in.SubjectEmail,
		GeneratedAt:  formatDateTime(in.GeneratedAt),
	}

	var invested, revenue float64
	for _, b := range buckets {
		invested += b.TotalInvested
		revenue += b.TotalRevenue
		view.TotalAnalyses += b.AnalysisCount

		profit := b.Profit()
		view.Months = append(view.Months, monthView{
			Label:        MonthLabel(b.ReferenceMonth),
			RatioDisplay: roas.Display(b.AverageROAS),
			Invested:     Money(b.TotalInvested),
			Revenue:      Money(b.TotalRevenue),
			Profit:       Money(profit),
			Negative:     profit < 0,
			Count:        b.AnalysisCount,
		})
	}
	view.TotalInvested = Money(invested)
	view.TotalRevenue = Money(revenue)

	var buf bytes.Buffer
	if err := comparativeTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render comparative report: %w", err)
	}
	return buf.String(), nil
}

// Comparative renders the comparative document as a data URI.
func Comparative(in ComparativeInput) (string, error) {
	doc, err := ComparativeHTML(in)
	if err != nil {
		return "", err
	}
	return EncodeDataURI(doc), nil
}
