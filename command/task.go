package command

import (
	"context"
	"strings"

	"github.com/maikmano/zentask/domain"
)

// SaveTask persists a task draft: a draft without an id becomes a create
// with status "todo", one with an id becomes a full-field update.
func (c *Commands) SaveTask(ctx context.Context, draft domain.Task) (string, error) {
	userID, err := c.userID()
	if err != nil {
		return "", err
	}
	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Title == "" {
		return "", ErrTitleRequired
	}
	if draft.Priority == "" {
		draft.Priority = domain.PriorityMedium
	}
	if draft.Tags == nil {
		draft.Tags = []domain.TaskTag{}
	}
	fields := map[string]any{
		"boardId":     draft.BoardID,
		"columnId":    draft.ColumnID,
		"title":       draft.Title,
		"description": draft.Description,
		"priority":    draft.Priority,
		"tags":        draft.Tags,
	}
	if draft.Deadline != nil {
		fields["deadline"] = *draft.Deadline
	}
	if draft.ID != "" {
		fields["status"] = draft.Status
		fields["createdAt"] = draft.CreatedAt
		return draft.ID, c.store.Update(ctx, domain.CollectionTasks, userID, draft.ID, fields)
	}
	fields["status"] = "todo"
	fields["createdAt"] = c.now()
	return c.store.Create(ctx, domain.CollectionTasks, userID, fields)
}

// MoveTask reassigns a task to another column. Nothing else about the task
// changes, so the update carries only the column reference.
func (c *Commands) MoveTask(ctx context.Context, id, columnID string) error {
	userID, err := c.userID()
	if err != nil {
		return err
	}
	return c.store.Update(ctx, domain.CollectionTasks, userID, id, map[string]any{
		"columnId": columnID,
	})
}

// ToggleTaskTag flips one tag on a persisted task: present tags are
// removed, absent ones appended, the rest keep their order.
func (c *Commands) ToggleTaskTag(ctx context.Context, id string, tag domain.TaskTag) error {
	userID, err := c.userID()
	if err != nil {
		return err
	}
	for _, task := range c.state.Tasks() {
		if task.ID != id {
			continue
		}
		return c.store.Update(ctx, domain.CollectionTasks, userID, id, map[string]any{
			"tags": domain.ToggleTag(task.Tags, tag),
		})
	}
	return ErrTaskNotFound
}

// DeleteTask removes a single task after confirmation.
func (c *Commands) DeleteTask(ctx context.Context, id string, confirmed bool) error {
	userID, err := c.userID()
	if err != nil {
		return err
	}
	if !confirmed {
		return ErrConfirmationRequired
	}
	return c.store.Delete(ctx, domain.CollectionTasks, userID, id)
}
