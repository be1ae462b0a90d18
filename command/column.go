package command

import (
	"context"
	"strings"

	"github.com/maikmano/zentask/domain"
)

// CreateColumn appends a column to a board. The ordinal position is the
// count of the board's live columns, so new columns always land last.
func (c *Commands) CreateColumn(ctx context.Context, boardID, title string) (string, error) {
	userID, err := c.userID()
	if err != nil {
		return "", err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrTitleRequired
	}
	order := 0
	for _, col := range c.state.Columns() {
		if col.BoardID == boardID {
			order++
		}
	}
	return c.store.Create(ctx, domain.CollectionColumns, userID, map[string]any{
		"boardId": boardID,
		"title":   title,
		"order":   order,
	})
}

// RenameColumn changes a column's title.
func (c *Commands) RenameColumn(ctx context.Context, id, title string) error {
	userID, err := c.userID()
	if err != nil {
		return err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrTitleRequired
	}
	return c.store.Update(ctx, domain.CollectionColumns, userID, id, map[string]any{
		"title": title,
	})
}

// DeleteColumn removes a column and its tasks, tasks first. A column that
// still holds tasks must be confirmed; an empty one is deleted outright.
func (c *Commands) DeleteColumn(ctx context.Context, id string, confirmed bool) error {
	userID, err := c.userID()
	if err != nil {
		return err
	}
	var colTasks []domain.Task
	for _, task := range c.state.Tasks() {
		if task.ColumnID == id {
			colTasks = append(colTasks, task)
		}
	}
	if len(colTasks) > 0 && !confirmed {
		return ErrConfirmationRequired
	}
	for _, task := range colTasks {
		if err := c.store.Delete(ctx, domain.CollectionTasks, userID, task.ID); err != nil {
			return err
		}
	}
	return c.store.Delete(ctx, domain.CollectionColumns, userID, id)
}
