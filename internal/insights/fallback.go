package insights

import (
	"fmt"
	"strings"
)

// Tier is the performance band a ratio falls into.
type Tier string

const (
	TierExcellent        Tier = "excellent"
	TierGood             Tier = "good"
	TierNeedsImprovement Tier = "needs_improvement"
)

// TierFor classifies a ratio: >= 4 excellent, >= 2 good, below that needs improvement.
func TierFor(ratio float64) Tier {
	switch {
	case ratio >= 4:
		return TierExcellent
	case ratio >= 2:
		return TierGood
	default:
		return TierNeedsImprovement
	}
}

type fallbackTemplate struct {
	headline        string
	verdict         string // completes "Seu ROAS de N.NNx<platform> "
	analysis        []string
	benchmarkLabel  string
	benchmarkRange  string
	benchmarkTier   string
	recommendations string
	actions         [5]string
	nextSteps       [3]string
	closingTitle    string
	closing         [3]string
}

// Analysis paragraphs reference the formatted ratio through {roas}.
var fallbackTemplates = map[Tier]fallbackTemplate{
	TierExcellent: {
		headline: "🎉 EXCELENTE RESULTADO!",
		verdict:  "está muito acima da média do mercado e representa uma performance excepcional.",
		analysis: []string{
			"Sua campanha está performando no topo do mercado. Com um retorno de R$ {roas} para cada R$ 1,00 investido, você está extraindo valor máximo do seu investimento. Este resultado indica segmentação precisa, criativos eficazes e otimização contínua.",
			"A margem atual permite escalar de forma agressiva sem comprometer a rentabilidade. Campanhas com ROAS acima de 4x costumam indicar product-market fit forte e audiência altamente qualificada.",
		},
		benchmarkLabel:  "Top 10% das campanhas",
		benchmarkRange:  ">4x",
		benchmarkTier:   "Elite",
		recommendations: "🚀 RECOMENDAÇÕES ESPECÍFICAS:",
		actions: [5]string{
			"ESCALE IMEDIATAMENTE - Aumente o orçamento em 50-100% mantendo a mesma estratégia",
			"REPLIQUE A FÓRMULA - Duplique esta campanha para outros produtos ou serviços",
			"EXPANDA AUDIÊNCIAS - Teste públicos semelhantes (lookalike) baseados nos conversores atuais",
			"DOCUMENTE TUDO - Registre criativos, copy, segmentação e horários",
			"TESTE INCREMENTALMENTE - Faça pequenos testes A/B para otimizar ainda mais",
		},
		nextSteps: [3]string{
			"Aumentar o orçamento gradualmente (20-30% por semana)",
			"Criar campanhas semelhantes para outros canais",
			"Implementar automações para manter a performance",
		},
		closingTitle: "⚠️ ALERTAS:",
		closing: [3]string{
			"Monitore de perto para evitar saturação da audiência",
			"Prepare criativos de reserva para manter o desempenho",
			"Considere diversificar canais para reduzir dependência",
		},
	},
	TierGood: {
		headline: "✅ BOM RESULTADO!",
		verdict:  "está dentro da média esperada do mercado e representa uma base sólida para crescimento.",
		analysis: []string{
			"Sua campanha está gerando retorno positivo e sustentável. Com cada R$ 1,00 investido retornando R$ {roas}, você está no caminho certo, mas há espaço significativo para otimização.",
			"Este nível de ROAS indica que a estratégia básica funciona, mas alguns elementos podem ser refinados para alcançar resultados superiores. A margem atual permite investir em otimização sem risco de prejuízo.",
		},
		benchmarkLabel:  "Campanhas medianas",
		benchmarkRange:  "1.5-2.5x",
		benchmarkTier:   "Dentro da média",
		recommendations: "🔧 RECOMENDAÇÕES ESPECÍFICAS:",
		actions: [5]string{
			"OTIMIZE CRIATIVOS - Teste novos formatos, imagens e copy para melhorar o CTR",
			"REFINE A SEGMENTAÇÃO - Exclua audiências de baixa performance e foque nos melhores segmentos",
			"MELHORE A LANDING PAGE - Otimize a página de destino para aumentar a conversão",
			"TESTE HORÁRIOS - Experimente diferentes horários e dias da semana",
			"TESTE OFERTAS - Compare propostas de valor e CTAs com testes A/B",
		},
		nextSteps: [3]string{
			"Manter o orçamento atual enquanto otimiza",
			"Identificar e pausar segmentos de baixo desempenho",
			"Implementar melhorias semanais incrementais",
		},
		closingTitle: "🎯 OPORTUNIDADES:",
		closing: [3]string{
			"Potencial para chegar a 3-4x com otimizações",
			"Espaço para aumentar o orçamento após as melhorias",
			"Possibilidade de expandir para novos públicos",
		},
	},
	TierNeedsImprovement: {
		headline: "⚠️ RESULTADO ABAIXO DO ESPERADO",
		verdict:  "está abaixo da média do mercado e requer atenção imediata.",
		analysis: []string{
			"Sua campanha está gerando retorno baixo, o que indica possíveis problemas de estratégia, execução ou segmentação. Com retorno de apenas R$ {roas} para cada R$ 1,00 investido, há risco de prejuízo se nada for ajustado.",
			"Este resultado sugere desalinhamento entre oferta e audiência, problemas nos criativos ou na página de conversão. É crucial identificar e corrigir os gargalos rapidamente.",
		},
		benchmarkLabel:  "Campanhas de baixo desempenho",
		benchmarkRange:  "<1.5x",
		benchmarkTier:   "Abaixo da média",
		recommendations: "🚨 RECOMENDAÇÕES URGENTES:",
		actions: [5]string{
			"REVISE O PÚBLICO-ALVO - Ele pode estar amplo demais, inadequado ou saturado",
			"REFORMULE OS CRIATIVOS - Teste formatos diferentes e mensagens mais diretas",
			"AUDITORIA COMPLETA - Revise o funil inteiro: anúncio, landing page e checkout",
			"REDUZA CUSTOS - Pause imediatamente os segmentos de pior performance",
			"ANALISE A CONCORRÊNCIA - Estude o que está funcionando no seu mercado",
		},
		nextSteps: [3]string{
			"Reduzir o orçamento temporariamente (50%)",
			"Fazer uma auditoria completa da campanha",
			"Implementar mudanças significativas na estratégia",
		},
		closingTitle: "🔴 ALERTAS CRÍTICOS:",
		closing: [3]string{
			"Risco de prejuízo se mantido sem mudanças",
			"Necessidade de revisão completa da estratégia",
			"Considere pausar e repensar a abordagem",
		},
	},
}

// Fallback returns the canned narrative for a ratio. The output depends only
// on its inputs.
func Fallback(ratio float64, platform string) string {
	tpl := fallbackTemplates[TierFor(ratio)]
	r := fmt.Sprintf("%.2f", ratio)
	platform = strings.TrimSpace(platform)

	on := ""
	if platform != "" {
		on = " na " + platform
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n", tpl.headline)
	fmt.Fprintf(&b, "Seu ROAS de %sx%s %s\n\n", r, on, tpl.verdict)

	b.WriteString("**📊 ANÁLISE DETALHADA:**\n")
	for i, p := range tpl.analysis {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strings.ReplaceAll(p, "{roas}", r) + "\n")
	}

	b.WriteString("\n**🎯 BENCHMARKS DO MERCADO:**\n")
	b.WriteString("- Média geral do setor: 2-3x\n")
	fmt.Fprintf(&b, "- %s: %s\n", tpl.benchmarkLabel, tpl.benchmarkRange)
	fmt.Fprintf(&b, "- Sua campanha: %sx (%s)\n", r, tpl.benchmarkTier)
	if platform != "" {
		fmt.Fprintf(&b, "- Média específica %s: 2.5-3.5x\n", platform)
	}

	fmt.Fprintf(&b, "\n**%s**\n\n", tpl.recommendations)
	for i, a := range tpl.actions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, a)
	}

	b.WriteString("\n**📈 PRÓXIMOS PASSOS:**\n")
	for _, s := range tpl.nextSteps {
		fmt.Fprintf(&b, "- %s\n", s)
	}

	fmt.Fprintf(&b, "\n**%s**\n", tpl.closingTitle)
	for i, s := range tpl.closing {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s", s)
	}

	return b.String()
}
