package domain

// Board is a named workspace owning columns and, transitively, their tasks.
type Board struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Icon         string `json:"icon,omitempty"`
	CreatedAt    int64  `json:"createdAt"`
	LastModified int64  `json:"lastModified,omitempty"`
}

// Column is a lane within a board. Order fixes its position among the
// board's columns and must be unique within the board for a stable sort.
type Column struct {
	ID      string `json:"id"`
	BoardID string `json:"boardId"`
	Title   string `json:"title"`
	Order   int    `json:"order"`
}
