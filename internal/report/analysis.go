// Package report renders self-contained HTML documents for a single
// analysis and for a multi-month comparison.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/leeaandrob/roascalc/internal/roas"
)

// AnalysisInput is everything the single-analysis document shows.
type AnalysisInput struct {
	Ratio    float64
	Invested float64
	Revenue  float64
	// InsightHTML must already be escaped, as produced by insights.ForDocument.
	InsightHTML  string
	Platform     string
	CampaignDate *time.Time
	SubjectName  string
	SubjectEmail string
	GeneratedAt  time.Time
}

type analysisView struct {
	RatioDisplay string
	Invested     string
	Revenue      string
	Profit       string
	Negative     bool
	Insight      template.HTML
	Platform     string
	CampaignDate string
	SubjectName  string
	SubjectEmail string
	GeneratedAt  string
}

var analysisTemplate = template.Must(template.New("analysis").Parse(documentHead + `
<div class="header">
  <h1>Relatório de Análise ROAS</h1>
  <p>Análise completa de retorno sobre investimento em publicidade</p>
</div>
<div class="info-grid">
  <div class="info-card"><strong>Data do relatório</strong><span>{{.GeneratedAt}}</span></div>
  <div class="info-card"><strong>Cliente</strong><span>{{.SubjectName}}</span></div>
  <div class="info-card"><strong>Email</strong><span>{{.SubjectEmail}}</span></div>
  {{- if .Platform}}
  <div class="info-card"><strong>Plataforma</strong><span>{{.Platform}}</span></div>
  {{- end}}
  {{- if .CampaignDate}}
  <div class="info-card"><strong>Data da campanha</strong><span>{{.CampaignDate}}</span></div>
  {{- end}}
</div>
<div class="roas-display">
  <div class="roas-label">Seu ROAS</div>
  <div class="roas-value">{{.RatioDisplay}}</div>
</div>
<div class="metrics">
  <div class="metric"><div class="metric-label">Investimento</div><div class="metric-value">{{.Invested}}</div></div>
  <div class="metric"><div class="metric-label">Receita</div><div class="metric-value">{{.Revenue}}</div></div>
  <div class="metric"><div class="metric-label">Lucro</div><div class="metric-value {{if .Negative}}negative{{else}}positive{{end}}">{{.Profit}}</div></div>
</div>
<div class="insights">
  <h2>Análise e Recomendações</h2>
  {{.Insight}}
</div>
` + documentFoot))

// AnalysisHTML renders the single-analysis document.
func AnalysisHTML(in AnalysisInput) (string, error) {
	profit := in.Revenue - in.Invested
	view := analysisView{
		RatioDisplay: roas.Display(in.Ratio),
		Invested:     Money(in.Invested),
		Revenue:      Money(in.Revenue),
		Profit:       Money(profit),
		Negative:     profit < 0,
		Insight:      template.HTML(in.InsightHTML),
		Platform:     strings.TrimSpace(in.Platform),
		SubjectName:  in.SubjectName,
		SubjectEmail: in.SubjectEmail,
		GeneratedAt:  formatDateTime(in.GeneratedAt),
	}
	if in.CampaignDate != nil {
		view.CampaignDate = formatDate(in.CampaignDate.UTC())
	}

	var buf bytes.Buffer
	if err := analysisTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render analysis report: %w", err)
	}
	return buf.String(), nil
}

// Analysis renders the single-analysis document as a data URI.
func Analysis(in AnalysisInput) (string, error) {
	doc, err := AnalysisHTML(in)
	if err != nil {
		return "", err
	}
	return EncodeDataURI(doc), nil
}

const documentHead = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Relatório ROAS</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Roboto, Arial, sans-serif; margin: 0; padding: 32px; background: #f9fafb; color: #111827; }
  .container { max-width: 860px; margin: 0 auto; background: #ffffff; border-radius: 12px; padding: 32px; box-shadow: 0 1px 3px rgba(0,0,0,0.1); }
  .header { text-align: center; border-bottom: 2px solid #e5e7eb; padding-bottom: 20px; margin-bottom: 24px; }
  .header h1 { margin: 0 0 8px; color: #4f46e5; }
  .header p { margin: 0; color: #6b7280; }
  .info-grid { display: flex; flex-wrap: wrap; gap: 12px; margin-bottom: 24px; }
  .info-card { flex: 1 1 180px; background: #f3f4f6; border-radius: 8px; padding: 12px; }
  .info-card strong { display: block; font-size: 12px; color: #6b7280; text-transform: uppercase; }
  .roas-display { text-align: center; background: #4f46e5; color: #ffffff; border-radius: 12px; padding: 24px; margin-bottom: 24px; }
  .roas-label { font-size: 14px; text-transform: uppercase; letter-spacing: 1px; }
  .roas-value { font-size: 48px; font-weight: 700; }
  .metrics { display: flex; gap: 12px; margin-bottom: 24px; }
  .metric { flex: 1; border: 1px solid #e5e7eb; border-radius: 8px; padding: 16px; text-align: center; }
  .metric-label { font-size: 12px; color: #6b7280; text-transform: uppercase; }
  .metric-value { font-size: 20px; font-weight: 600; margin-top: 4px; }
  .positive { color: #059669; }
  .negative { color: #dc2626; }
  .insights h2 { color: #374151; border-bottom: 1px solid #e5e7eb; padding-bottom: 8px; }
  .month-card { border: 1px solid #e5e7eb; border-radius: 8px; padding: 16px; margin-bottom: 12px; }
  .month-card h3 { margin: 0 0 12px; color: #4f46e5; }
  .summary { background: #eef2ff; border-radius: 12px; padding: 20px; margin-top: 24px; }
  .footer { text-align: center; color: #9ca3af; font-size: 12px; margin-top: 32px; }
</style>
</head>
<body>
<div class="container">`

const documentFoot = `
<div class="footer">Relatório gerado automaticamente pela Calculadora de ROAS</div>
</div>
</body>
</html>
`
