package domain

// Collection names in the remote document store. Documents are schemaless
// records; the shapes in this package are imposed by convention only.
const (
	CollectionBoards  = "boards"
	CollectionColumns = "columns"
	CollectionTasks   = "tasks"
	CollectionNotes   = "notes"
	CollectionUsers   = "users"
)
