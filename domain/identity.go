package domain

// Identity is the authenticated user context for the session. At most one
// identity is active at a time.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	Theme       string `json:"theme,omitempty"`
}

// Profile is the per-identity document held by the profile store. Unset
// fields keep whatever the identity provider reported.
type Profile struct {
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	Theme       string `json:"theme,omitempty"`
}

// Merge overlays profile fields onto the provider identity in a single step.
// Profile values win wherever they are present.
func (id Identity) Merge(p Profile) Identity {
	if p.DisplayName != "" {
		id.DisplayName = p.DisplayName
	}
	if p.AvatarURL != "" {
		id.AvatarURL = p.AvatarURL
	}
	if p.Theme != "" {
		id.Theme = p.Theme
	}
	return id
}
