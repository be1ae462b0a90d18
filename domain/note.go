package domain

// Note is a freeform rich-text document owned directly by the identity,
// with no board relation. Content is persisted verbatim.
type Note struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	CreatedAt    int64  `json:"createdAt"`
	LastModified int64  `json:"lastModified"`
}
