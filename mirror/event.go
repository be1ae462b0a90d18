package mirror

import "github.com/bytedance/sonic"

// changeEvent mirrors the payload published by the storage client after
// every write.
type changeEvent struct {
	Collection string `json:"collection"`
	UserID     string `json:"userId"`
}

func decodeChange(payload string, ev *changeEvent) error {
	return sonic.UnmarshalString(payload, ev)
}
