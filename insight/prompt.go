package insight

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/maikmano/zentask/domain"
)

const noteExcerptLimit = 150

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// dailyInsightsPrompt frames the user's open work and notes for a
// productivity-coach reading. Done tasks stay out so the model never
// suggests redoing finished work.
func dailyInsightsPrompt(tasks []domain.Task, notes []domain.Note) string {
	var active []string
	completed := 0
	for _, t := range tasks {
		if t.Status == "done" {
			completed++
			continue
		}
		priority := t.Priority
		if priority == "" {
			priority = "média"
		}
		active = append(active, fmt.Sprintf("- [%s] %s: %s", priority, t.Title, t.Description))
	}
	tasksContext := strings.Join(active, "\n")
	if tasksContext == "" {
		tasksContext = "Nenhuma tarefa pendente no momento."
	}

	var noteLines []string
	for _, n := range notes {
		noteLines = append(noteLines, fmt.Sprintf("- %s: %s...", n.Title, noteExcerpt(n.Content)))
	}
	notesContext := strings.Join(noteLines, "\n")
	if notesContext == "" {
		notesContext = "O usuário não escreveu notas hoje."
	}

	return fmt.Sprintf(`Aja como um Coach de Produtividade e Mentor de Organização.
Analise o contexto abaixo para fornecer insights estratégicos e de bem-estar.

Resumo da Execução:
- Tarefas Concluídas Hoje: %d
- Tarefas Pendentes e Desafios:
%s

Reflexões e Notas Mentais:
%s

Instruções de Resposta:
1. NÃO sugira fazer coisas que já foram marcadas como concluídas.
2. Analise as Notas para dar 2 dicas de MELHORIA PESSOAL (mentalidade, foco, descanso).
3. Analise as Tarefas Pendentes para sugerir 2 melhorias de ORGANIZAÇÃO (ordem, delegação ou simplificação).
4. Mantenha um tom profissional, inspirador e direto ao ponto.
5. Retorne o texto formatado com títulos claros em Português.`, completed, tasksContext, notesContext)
}

func refinePrompt(text string) string {
	return fmt.Sprintf(`Refine esta tarefa para um tom mais profissional e acionável em Português: %q. Retorne apenas o texto refinado sem aspas.`, text)
}

// noteExcerpt strips markup and caps the excerpt so long notes don't blow
// up the prompt.
func noteExcerpt(content string) string {
	plain := htmlTag.ReplaceAllString(content, "")
	runes := []rune(plain)
	if len(runes) > noteExcerptLimit {
		return string(runes[:noteExcerptLimit])
	}
	return plain
}
