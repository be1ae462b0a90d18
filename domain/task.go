package domain

// Priority levels accepted on a task.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// TaskTag is a label embedded on a task. Tags live inside the task document,
// not in a collection of their own; name uniqueness is enforced only when
// toggling a draft.
type TaskTag struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Task is a unit of work inside a column.
type Task struct {
	ID          string    `json:"id"`
	BoardID     string    `json:"boardId"`
	ColumnID    string    `json:"columnId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status,omitempty"`
	Priority    string    `json:"priority"`
	CreatedAt   int64     `json:"createdAt"`
	Deadline    *int64    `json:"deadline,omitempty"`
	Tags        []TaskTag `json:"tags,omitempty"`
}

// ToggleTag returns the tag set with tag removed when an entry of the same
// name is already present, keeping the order of the remaining tags, or with
// tag appended otherwise. Toggling the same tag twice yields the original set.
func ToggleTag(tags []TaskTag, tag TaskTag) []TaskTag {
	for i := range tags {
		if tags[i].Name == tag.Name {
			out := make([]TaskTag, 0, len(tags)-1)
			out = append(out, tags[:i]...)
			return append(out, tags[i+1:]...)
		}
	}
	out := make([]TaskTag, 0, len(tags)+1)
	out = append(out, tags...)
	return append(out, tag)
}
