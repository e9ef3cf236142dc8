package profiler

import (
	"fmt"
	"strings"

	"github.com/BerylCAtieno/state-analysis-gateway/internal/models"
)

const systemInstruction = `Você é um mentor de carreira especializado em estudantes internacionais que buscam estágios nos Estados Unidos. Responda sempre em Português do Brasil, usando Markdown.

Estruture a resposta exatamente com estas três seções:
## Prós
* (2-3 pontos positivos do estado para um estagiário internacional)
## Contras
* (2-3 pontos de atenção)
## Oportunidades
* (3-4 indústrias ou empresas-chave, inferidas a partir do destaque principal do estado)`

const wageNotApplicable = "Não aplicável"

// BuildPrompt renders the analysis prompt for a state profile. It is pure:
// equal profiles always render equal prompts.
func BuildPrompt(p models.Profile) models.Prompt {
	return models.Prompt{
		System: systemInstruction,
		User:   buildUserQuery(p),
	}
}

// FreeTextPrompt passes a caller prompt through untouched, without a system
// instruction.
func FreeTextPrompt(text string) models.Prompt {
	return models.Prompt{User: text}
}

// FormatWage renders an hourly wage as "$7.25/hora", or "Não aplicável" when
// the state has no positive minimum wage.
func FormatWage(w models.Wage) string {
	if !w.Applicable() {
		return wageNotApplicable
	}
	return fmt.Sprintf("$%.2f/hora", w.Value)
}

func buildUserQuery(p models.Profile) string {
	var b strings.Builder

	b.WriteString("Analise o estado: ")
	b.WriteString(strings.TrimSpace(p.Name))
	if code := strings.TrimSpace(p.Code); code != "" {
		fmt.Fprintf(&b, " (%s)", code)
	}
	b.WriteString(".\n\nDados:\n")

	writeAttr(&b, "Destaque", p.Highlight)
	writeAttr(&b, "Custo de Vida", p.CostOfLiving)
	fmt.Fprintf(&b, "- Salário: %s\n", FormatWage(p.MinimumWage))
	writeAttr(&b, "Acadêmico", p.Academic)
	writeAttr(&b, "Clima", p.Climate)

	b.WriteString("\nGere um resumo com as seções Prós, Contras e Oportunidades.")
	return b.String()
}

func writeAttr(b *strings.Builder, label string, value models.Attr) {
	v := strings.TrimSpace(string(value))
	if v == "" {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, v)
}
