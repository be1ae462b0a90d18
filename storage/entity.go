package storage

import (
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
)

// storedEntity carries one schemaless document. Nested values (task tags,
// deadlines) do not fit flat table columns, so the body lives in Data as JSON.
type storedEntity struct {
	aztables.Entity
	Data string `json:"Data"`
}

func encodeEntity(userID, id string, fields map[string]any) ([]byte, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return json.Marshal(storedEntity{
		Entity: aztables.Entity{PartitionKey: userID, RowKey: id},
		Data:   string(data),
	})
}

func decodeDocument(data string) (map[string]any, error) {
	if data == "" {
		return map[string]any{}, nil
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
