package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maikmano/zentask/command"
	"github.com/maikmano/zentask/domain"
)

const welcomeNoteContent = "# Bem-vindo ao seu novo fluxo!\n\n" +
	"Este é o seu espaço sagrado para produtividade. Aqui estão algumas dicas:\n\n" +
	"- **Modo Desktop**: O app foi feito para parecer nativo.\n" +
	"- **IA Insights**: No menu lateral, a IA analisa seu dia.\n" +
	"- **Markdown**: Use `/` ou atalhos para formatar.\n\n" +
	"Divirta-se!"

// Bootstrapper seeds a brand-new account with welcome data. The guard is
// session-scoped: it fires at most once between sign-in and sign-out, and
// the attempt is marked before any write so a partial failure is never
// retried with duplicate data.
type Bootstrapper struct {
	log   *logrus.Entry
	store command.Store
	now   func() int64

	mu        sync.Mutex
	attempted bool
}

func NewBootstrapper(log *logrus.Entry, store command.Store) *Bootstrapper {
	return &Bootstrapper{
		log:   log,
		store: store,
		now:   func() int64 { return time.Now().UnixMilli() },
	}
}

// Reset re-arms the guard for a fresh session.
func (b *Bootstrapper) Reset() {
	b.mu.Lock()
	b.attempted = false
	b.mu.Unlock()
}

// MaybeSeed is called with every boards snapshot. A non-empty snapshot
// disarms the guard; the first empty one triggers the seed.
func (b *Bootstrapper) MaybeSeed(ctx context.Context, userID string, boards []domain.Board) {
	b.mu.Lock()
	if b.attempted {
		b.mu.Unlock()
		return
	}
	b.attempted = true
	b.mu.Unlock()

	if len(boards) > 0 {
		return
	}
	if err := b.seed(ctx, userID); err != nil {
		b.log.Errorf("onboarding seed failed: %v", err)
	}
}

func (b *Bootstrapper) seed(ctx context.Context, userID string) error {
	b.log.WithField("userId", userID).Info("seeding welcome data")

	boardID, err := b.store.Create(ctx, domain.CollectionBoards, userID, map[string]any{
		"title":     "🚀 Comece Aqui",
		"icon":      "✨",
		"createdAt": b.now(),
	})
	if err != nil {
		return err
	}

	colTitles := []string{"A Aprender", "Em Prática", "Dominado"}
	colIDs := make([]string, len(colTitles))
	for i, title := range colTitles {
		colIDs[i], err = b.store.Create(ctx, domain.CollectionColumns, userID, map[string]any{
			"boardId": boardID,
			"title":   title,
			"order":   i,
		})
		if err != nil {
			return err
		}
	}

	sampleTasks := []map[string]any{
		{
			"boardId":     boardID,
			"columnId":    colIDs[0],
			"title":       "Explore o Editor de Notas",
			"description": "Use Markdown like # H1 ou - para listas. O alinhamento é pixel-perfect!",
			"status":      colTitles[0],
			"priority":    domain.PriorityHigh,
			"createdAt":   b.now(),
			"tags":        []domain.TaskTag{{Name: "Dica", Color: "#34d399"}},
		},
		{
			"boardId":     boardID,
			"columnId":    colIDs[0],
			"title":       "Troque seu Avatar",
			"description": "Vá em configurações e mude sua foto (estilo Discord).",
			"status":      colTitles[0],
			"priority":    domain.PriorityMedium,
			"createdAt":   b.now(),
			"tags":        []domain.TaskTag{{Name: "Perfil", Color: "#60a5fa"}},
		},
	}
	for _, fields := range sampleTasks {
		if _, err := b.store.Create(ctx, domain.CollectionTasks, userID, fields); err != nil {
			return err
		}
	}

	now := b.now()
	_, err = b.store.Create(ctx, domain.CollectionNotes, userID, map[string]any{
		"title":        "📖 Guia do Zentask",
		"content":      welcomeNoteContent,
		"createdAt":    now,
		"lastModified": now,
	})
	return err
}
