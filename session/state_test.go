package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maikmano/zentask/domain"
)

func TestStateIdentityMergesProfile(t *testing.T) {
	s := NewState(nil)
	s.SetIdentity(domain.Identity{UID: "u1", DisplayName: "Provider Name", Theme: "dark"})
	s.SetProfile([]domain.Profile{{DisplayName: "Escolhido", AvatarURL: "https://cdn/a.png"}})

	id, ok := s.Identity()
	require.True(t, ok)
	assert.Equal(t, "Escolhido", id.DisplayName, "profile wins where set")
	assert.Equal(t, "https://cdn/a.png", id.AvatarURL)
	assert.Equal(t, "dark", id.Theme, "provider value kept where profile is silent")
}

func TestStateResetClearsEverything(t *testing.T) {
	s := NewState(nil)
	s.SetIdentity(domain.Identity{UID: "u1"})
	s.SetBoards([]domain.Board{{ID: "b1"}})
	s.SetTasks([]domain.Task{{ID: "t1"}})
	s.PushNotice("algo falhou")

	s.Reset()
	_, ok := s.Identity()
	assert.False(t, ok)
	assert.Empty(t, s.Boards())
	assert.Empty(t, s.Tasks())
	assert.Empty(t, s.Notices())
}

func TestStateNoticePushAndDismiss(t *testing.T) {
	s := NewState(nil)
	id1 := s.PushNotice("primeiro")
	id2 := s.PushNotice("segundo")
	require.Len(t, s.Notices(), 2)

	s.DismissNotice(id1)
	notices := s.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, id2, notices[0].ID)
	assert.Equal(t, "segundo", notices[0].Message)

	s.DismissNotice("unknown")
	assert.Len(t, s.Notices(), 1)
}

func TestStateOnChangeFiresPerMutation(t *testing.T) {
	var fired int
	s := NewState(func() { fired++ })
	s.SetBoards(nil)
	s.PushNotice("x")
	s.Reset()
	assert.Equal(t, 3, fired)
}

func TestStateSnapshotsAreCopies(t *testing.T) {
	s := NewState(nil)
	s.SetBoards([]domain.Board{{ID: "b1", Title: "Original"}})

	boards := s.Boards()
	boards[0].Title = "mutated"
	assert.Equal(t, "Original", s.Boards()[0].Title)
}
