package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/maikmano/zentask/domain"
)

func TestEncodeEntityRoundTripsNestedFields(t *testing.T) {
	deadline := int64(1700000000000)
	fields := map[string]any{
		"boardId":     "b1",
		"columnId":    "c1",
		"title":       "Explore o Editor de Notas",
		"description": "Use Markdown like # H1",
		"status":      "todo",
		"priority":    domain.PriorityHigh,
		"createdAt":   int64(1690000000000),
		"deadline":    deadline,
		"tags":        []domain.TaskTag{{Name: "Dica", Color: "#34d399"}},
	}

	payload, err := encodeEntity("user-1", "task-1", fields)
	if err != nil {
		t.Fatalf("encode entity: %v", err)
	}

	var ent storedEntity
	if err := json.Unmarshal(payload, &ent); err != nil {
		t.Fatalf("unmarshal entity: %v", err)
	}
	if ent.PartitionKey != "user-1" || ent.RowKey != "task-1" {
		t.Fatalf("unexpected keys: %s/%s", ent.PartitionKey, ent.RowKey)
	}

	var task domain.Task
	if err := json.Unmarshal([]byte(ent.Data), &task); err != nil {
		t.Fatalf("unmarshal document: %v", err)
	}
	task.ID = ent.RowKey
	if task.Title != "Explore o Editor de Notas" {
		t.Fatalf("unexpected title: %s", task.Title)
	}
	if task.Priority != domain.PriorityHigh {
		t.Fatalf("unexpected priority: %s", task.Priority)
	}
	if task.Deadline == nil || *task.Deadline != deadline {
		t.Fatalf("unexpected deadline: %v", task.Deadline)
	}
	if len(task.Tags) != 1 || task.Tags[0] != (domain.TaskTag{Name: "Dica", Color: "#34d399"}) {
		t.Fatalf("unexpected tags: %v", task.Tags)
	}
}

func TestDecodeDocumentEmptyData(t *testing.T) {
	doc, err := decodeDocument("")
	if err != nil {
		t.Fatalf("decode empty document: %v", err)
	}
	if len(doc) != 0 {
		t.Fatalf("expected empty document, got %v", doc)
	}
}

func TestPartitionFilterEscapesQuotes(t *testing.T) {
	if got := partitionFilter("user-1"); got != "PartitionKey eq 'user-1'" {
		t.Fatalf("unexpected filter: %s", got)
	}
	if got := partitionFilter("o'brien"); got != "PartitionKey eq 'o''brien'" {
		t.Fatalf("unescaped quote in filter: %s", got)
	}
}

func TestPublishChangeNotifiesChannel(t *testing.T) {
	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer m.Close()
	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer rc.Close()

	ctx := context.Background()
	sub := rc.Subscribe(ctx, "zentask:updates")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	c := &Client{rc: rc, channel: "zentask:updates"}
	c.publishChange(ctx, domain.CollectionBoards, "user-1")

	select {
	case msg := <-sub.Channel():
		var ev changeEvent
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			t.Fatalf("parse change event: %v", err)
		}
		if ev.Collection != domain.CollectionBoards || ev.UserID != "user-1" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no change event published")
	}
}

func TestPublishChangeWithoutRedisIsNoop(t *testing.T) {
	c := &Client{}
	c.publishChange(context.Background(), domain.CollectionNotes, "user-1")
}
