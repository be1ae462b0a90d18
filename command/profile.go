package command

import (
	"context"
	"strings"

	"github.com/maikmano/zentask/domain"
)

// SaveProfile upserts the per-identity profile document with merge
// semantics: fields not carried here stay as they are.
func (c *Commands) SaveProfile(ctx context.Context, profile domain.Profile) error {
	userID, err := c.userID()
	if err != nil {
		return err
	}
	return c.store.Upsert(ctx, domain.CollectionUsers, userID, userID, map[string]any{
		"displayName": strings.TrimSpace(profile.DisplayName),
		"avatarUrl":   profile.AvatarURL,
		"theme":       profile.Theme,
		"updatedAt":   c.now(),
	})
}
