package insights

import (
	"fmt"
	"strings"
	"time"

	"github.com/leeaandrob/roascalc/internal/report"
)

// Campaign is the data the narrative is written about.
type Campaign struct {
	Invested     float64
	Revenue      float64
	Ratio        float64
	Platform     string
	CampaignDate *time.Time
}

// BuildPrompt renders the analyst prompt for a campaign.
func BuildPrompt(c Campaign) string {
	var data strings.Builder
	fmt.Fprintf(&data, "- Investimento: %s\n", report.Money(c.Invested))
	fmt.Fprintf(&data, "- Receita Gerada: %s\n", report.Money(c.Revenue))
	fmt.Fprintf(&data, "- ROAS: %.2fx\n", c.Ratio)
	if p := strings.TrimSpace(c.Platform); p != "" {
		fmt.Fprintf(&data, "- Plataforma: %s\n", p)
	}
	if c.CampaignDate != nil {
		fmt.Fprintf(&data, "- Data da Campanha: %s\n", c.CampaignDate.UTC().Format("02/01/2006"))
	}

	return fmt.Sprintf(`Você é um especialista em marketing digital e análise de ROI com mais de 10 anos de experiência. Analise esta campanha de marketing:

DADOS DA CAMPANHA:
%s
FORNEÇA UMA ANÁLISE COMPLETA E DETALHADA COM:

1. **CLASSIFICAÇÃO DO DESEMPENHO** (Excelente/Bom/Regular/Ruim) com emoji
2. **ANÁLISE DETALHADA** do resultado obtido (mínimo 3 parágrafos)
3. **BENCHMARKS DO MERCADO** para comparação específica da plataforma
4. **5 RECOMENDAÇÕES ESPECÍFICAS** para otimização (numeradas)
5. **PRÓXIMOS PASSOS** estratégicos (3 ações concretas)
6. **ALERTAS E OPORTUNIDADES** baseados no ROAS atual

IMPORTANTE:
- Use linguagem profissional mas acessível
- Seja específico e acionável nas recomendações
- Inclua números e percentuais quando relevante
- Mencione estratégias específicas para a plataforma informada
- Responda em português brasileiro
- Comece cada seção com um destes emojis: 🎯 📊 🔧 📈 ✅ ❌ ⚠️ 💡 🚀

Análise:`, data.String())
}
