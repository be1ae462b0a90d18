package command

import (
	"context"
	"strings"

	"github.com/maikmano/zentask/domain"
)

const (
	newNoteTitle   = "Nova Nota"
	newNoteContent = "# Título da Nota\nClique aqui para começar a editar..."
)

// CreateNote creates a note with placeholder title and content and returns
// its id so the caller can open it immediately.
func (c *Commands) CreateNote(ctx context.Context) (string, error) {
	userID, err := c.userID()
	if err != nil {
		return "", err
	}
	now := c.now()
	return c.store.Create(ctx, domain.CollectionNotes, userID, map[string]any{
		"title":        newNoteTitle,
		"content":      newNoteContent,
		"createdAt":    now,
		"lastModified": now,
	})
}

// RenameNote changes a note's title.
func (c *Commands) RenameNote(ctx context.Context, id, title string) error {
	userID, err := c.userID()
	if err != nil {
		return err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrTitleRequired
	}
	return c.store.Update(ctx, domain.CollectionNotes, userID, id, map[string]any{
		"title":        title,
		"lastModified": c.now(),
	})
}

// UpdateNoteContent replaces a note's body.
func (c *Commands) UpdateNoteContent(ctx context.Context, id, content string) error {
	userID, err := c.userID()
	if err != nil {
		return err
	}
	return c.store.Update(ctx, domain.CollectionNotes, userID, id, map[string]any{
		"content":      content,
		"lastModified": c.now(),
	})
}

// DeleteNote removes a note after confirmation.
func (c *Commands) DeleteNote(ctx context.Context, id string, confirmed bool) error {
	userID, err := c.userID()
	if err != nil {
		return err
	}
	if !confirmed {
		return ErrConfirmationRequired
	}
	return c.store.Delete(ctx, domain.CollectionNotes, userID, id)
}
