package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/maikmano/zentask/domain"
)

// Tables maps collections to table names in the backing account.
type Tables struct {
	Boards  string
	Columns string
	Tasks   string
	Notes   string
	Users   string
}

// Client provides access to the hosted document store. Documents are stored
// one table per collection, partitioned by owning user, with the document
// body serialized into a single Data column. Every acknowledged write
// publishes a change notification on the realtime channel.
type Client struct {
	tables  map[string]*aztables.Client
	rc      *redis.Client
	channel string
}

// New creates a Client from the given connection string.
func New(connStr string, tables Tables, rc *redis.Client, channel string) (*Client, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &Client{
		tables: map[string]*aztables.Client{
			domain.CollectionBoards:  svc.NewClient(tables.Boards),
			domain.CollectionColumns: svc.NewClient(tables.Columns),
			domain.CollectionTasks:   svc.NewClient(tables.Tasks),
			domain.CollectionNotes:   svc.NewClient(tables.Notes),
			domain.CollectionUsers:   svc.NewClient(tables.Users),
		},
		rc:      rc,
		channel: channel,
	}, nil
}

var errUnknownCollection = errors.New("unknown collection")

func (c *Client) table(collection string) (*aztables.Client, error) {
	t, ok := c.tables[collection]
	if !ok {
		return nil, errUnknownCollection
	}
	return t, nil
}

// Create inserts a new document and returns its generated id.
func (c *Client) Create(ctx context.Context, collection, userID string, fields map[string]any) (string, error) {
	table, err := c.table(collection)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	payload, err := encodeEntity(userID, id, fields)
	if err != nil {
		return "", err
	}
	if _, err := table.AddEntity(ctx, payload, nil); err != nil {
		return "", err
	}
	c.publishChange(ctx, collection, userID)
	return id, nil
}

// Update applies a partial overwrite: fields present in the request replace
// the stored values, everything else is preserved.
func (c *Client) Update(ctx context.Context, collection, userID, id string, fields map[string]any) error {
	table, err := c.table(collection)
	if err != nil {
		return err
	}
	current, err := c.getDocument(ctx, table, userID, id)
	if err != nil {
		return err
	}
	if current == nil {
		current = map[string]any{}
	}
	for k, v := range fields {
		current[k] = v
	}
	payload, err := encodeEntity(userID, id, current)
	if err != nil {
		return err
	}
	et := azcore.ETagAny
	if _, err := table.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeMerge}); err != nil {
		return err
	}
	c.publishChange(ctx, collection, userID)
	return nil
}

// Upsert merges fields into the document with the given id, creating it when
// absent. Used for the single-row profile record.
func (c *Client) Upsert(ctx context.Context, collection, userID, id string, fields map[string]any) error {
	table, err := c.table(collection)
	if err != nil {
		return err
	}
	current, err := c.getDocument(ctx, table, userID, id)
	if err != nil {
		return err
	}
	if current == nil {
		current = map[string]any{}
	}
	for k, v := range fields {
		current[k] = v
	}
	payload, err := encodeEntity(userID, id, current)
	if err != nil {
		return err
	}
	if _, err := table.UpsertEntity(ctx, payload, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeMerge}); err != nil {
		return err
	}
	c.publishChange(ctx, collection, userID)
	return nil
}

// Delete removes a document. A missing document is not an error so repeated
// deletes of the same id stay safe under concurrent commands.
func (c *Client) Delete(ctx context.Context, collection, userID, id string) error {
	table, err := c.table(collection)
	if err != nil {
		return err
	}
	if _, err := table.DeleteEntity(ctx, userID, id, nil); err != nil {
		if !isNotFound(err) {
			return err
		}
	}
	c.publishChange(ctx, collection, userID)
	return nil
}

func (c *Client) getDocument(ctx context.Context, table *aztables.Client, userID, id string) (map[string]any, error) {
	resp, err := table.GetEntity(ctx, userID, id, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var ent storedEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return nil, err
	}
	return decodeDocument(ent.Data)
}

// partitionFilter builds the OData filter for one user's partition. Single
// quotes in the key are doubled per the OData string literal rules.
func partitionFilter(userID string) string {
	return "PartitionKey eq '" + strings.ReplaceAll(userID, "'", "''") + "'"
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == 404
}

func (c *Client) list(ctx context.Context, collection, userID string) ([]storedEntity, error) {
	table, err := c.table(collection)
	if err != nil {
		return nil, err
	}
	filter := partitionFilter(userID)
	pager := table.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	ents := []storedEntity{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var ent storedEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			ents = append(ents, ent)
		}
	}
	return ents, nil
}

// ListBoards retrieves all boards owned by the given user.
func (c *Client) ListBoards(ctx context.Context, userID string) ([]domain.Board, error) {
	ents, err := c.list(ctx, domain.CollectionBoards, userID)
	if err != nil {
		return nil, err
	}
	boards := make([]domain.Board, 0, len(ents))
	for _, ent := range ents {
		var b domain.Board
		if err := json.Unmarshal([]byte(ent.Data), &b); err != nil {
			return nil, err
		}
		b.ID = ent.RowKey
		boards = append(boards, b)
	}
	sort.Slice(boards, func(i, j int) bool { return boards[i].CreatedAt < boards[j].CreatedAt })
	return boards, nil
}

// ListColumns retrieves all columns owned by the given user, ordered by
// their position so snapshots are deterministic.
func (c *Client) ListColumns(ctx context.Context, userID string) ([]domain.Column, error) {
	ents, err := c.list(ctx, domain.CollectionColumns, userID)
	if err != nil {
		return nil, err
	}
	columns := make([]domain.Column, 0, len(ents))
	for _, ent := range ents {
		var col domain.Column
		if err := json.Unmarshal([]byte(ent.Data), &col); err != nil {
			return nil, err
		}
		col.ID = ent.RowKey
		columns = append(columns, col)
	}
	sort.SliceStable(columns, func(i, j int) bool { return columns[i].Order < columns[j].Order })
	return columns, nil
}

// ListTasks retrieves all tasks owned by the given user.
func (c *Client) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	ents, err := c.list(ctx, domain.CollectionTasks, userID)
	if err != nil {
		return nil, err
	}
	tasks := make([]domain.Task, 0, len(ents))
	for _, ent := range ents {
		var t domain.Task
		if err := json.Unmarshal([]byte(ent.Data), &t); err != nil {
			return nil, err
		}
		t.ID = ent.RowKey
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt < tasks[j].CreatedAt })
	return tasks, nil
}

// ListNotes retrieves all notes owned by the given user, most recently
// modified first.
func (c *Client) ListNotes(ctx context.Context, userID string) ([]domain.Note, error) {
	ents, err := c.list(ctx, domain.CollectionNotes, userID)
	if err != nil {
		return nil, err
	}
	notes := make([]domain.Note, 0, len(ents))
	for _, ent := range ents {
		var n domain.Note
		if err := json.Unmarshal([]byte(ent.Data), &n); err != nil {
			return nil, err
		}
		n.ID = ent.RowKey
		notes = append(notes, n)
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].LastModified > notes[j].LastModified })
	return notes, nil
}

// ListProfile retrieves the profile document for the given user. The result
// holds at most one element.
func (c *Client) ListProfile(ctx context.Context, userID string) ([]domain.Profile, error) {
	table, err := c.table(domain.CollectionUsers)
	if err != nil {
		return nil, err
	}
	doc, err := c.getDocument(ctx, table, userID, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return []domain.Profile{}, nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var p domain.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return []domain.Profile{p}, nil
}
