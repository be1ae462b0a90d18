package command

import (
	"context"
	"strings"

	"github.com/maikmano/zentask/domain"
)

const defaultBoardIcon = "📊"

var defaultColumnTitles = []string{"Pendente", "Fazendo", "Feito"}

// CreateBoard creates a board plus its three starter columns and returns
// the new board id once every write is acknowledged.
func (c *Commands) CreateBoard(ctx context.Context, title, icon string) (string, error) {
	userID, err := c.userID()
	if err != nil {
		return "", err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrTitleRequired
	}
	if icon == "" {
		icon = defaultBoardIcon
	}
	boardID, err := c.store.Create(ctx, domain.CollectionBoards, userID, map[string]any{
		"title":     title,
		"icon":      icon,
		"createdAt": c.now(),
	})
	if err != nil {
		return "", err
	}
	for i, colTitle := range defaultColumnTitles {
		if _, err := c.store.Create(ctx, domain.CollectionColumns, userID, map[string]any{
			"boardId": boardID,
			"title":   colTitle,
			"order":   i,
		}); err != nil {
			return "", err
		}
	}
	return boardID, nil
}

// UpdateBoard changes a board's title and icon.
func (c *Commands) UpdateBoard(ctx context.Context, id, title, icon string) error {
	userID, err := c.userID()
	if err != nil {
		return err
	}
	return c.store.Update(ctx, domain.CollectionBoards, userID, id, map[string]any{
		"title":        strings.TrimSpace(title),
		"icon":         icon,
		"lastModified": c.now(),
	})
}

// DeleteBoard removes a board and everything under it: every task on the
// board first, then its columns, then the board itself. Children go first
// so an interrupted cascade never leaves orphans pointing at a dead board.
func (c *Commands) DeleteBoard(ctx context.Context, id string, confirmed bool) error {
	userID, err := c.userID()
	if err != nil {
		return err
	}
	if !confirmed {
		return ErrConfirmationRequired
	}
	c.log.WithField("boardId", id).Debug("cascading board delete")
	for _, task := range c.state.Tasks() {
		if task.BoardID != id {
			continue
		}
		if err := c.store.Delete(ctx, domain.CollectionTasks, userID, task.ID); err != nil {
			return err
		}
	}
	for _, col := range c.state.Columns() {
		if col.BoardID != id {
			continue
		}
		if err := c.store.Delete(ctx, domain.CollectionColumns, userID, col.ID); err != nil {
			return err
		}
	}
	return c.store.Delete(ctx, domain.CollectionBoards, userID, id)
}
