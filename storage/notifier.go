package storage

import (
	"context"
	"encoding/json"

	log "github.com/sirupsen/logrus"
)

type changeEvent struct {
	Collection string `json:"collection"`
	UserID     string `json:"userId"`
}

// publishChange announces an acknowledged write on the realtime channel so
// live mirrors refetch their snapshot. Publish failures degrade the mirrors
// to stale data and are logged, never propagated to the caller: the write
// itself already succeeded.
func (c *Client) publishChange(ctx context.Context, collection, userID string) {
	if c.rc == nil {
		return
	}
	payload, err := json.Marshal(changeEvent{Collection: collection, UserID: userID})
	if err != nil {
		log.Errorf("marshal change event: %v", err)
		return
	}
	if err := c.rc.Publish(ctx, c.channel, payload).Err(); err != nil {
		log.Errorf("unable to publish %s change for %s: %v", collection, userID, err)
	}
}
