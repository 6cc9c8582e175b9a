package report

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

// Money formats v as Brazilian reais with pt-BR separators.
func Money(v float64) string {
	if v < 0 {
		return printer.Sprintf("-R$ %.2f", -v)
	}
	return printer.Sprintf("R$ %.2f", v)
}

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// MonthLabel turns "2024-03" into "Março de 2024". Unparseable keys are
// returned unchanged.
func MonthLabel(referenceMonth string) string {
	t, err := time.Parse("2006-01", referenceMonth)
	if err != nil {
		return referenceMonth
	}
	return fmt.Sprintf("%s de %d", monthNames[t.Month()-1], t.Year())
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

func formatDateTime(t time.Time) string {
	return t.Format("02/01/2006 às 15:04")
}
