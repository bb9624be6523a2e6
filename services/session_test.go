package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mrnavastar/yagua/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestOfflineUuid(t *testing.T) {
	id := OfflineUuid("Steve")
	assert.Equal(t, id, OfflineUuid("Steve"))
	assert.NotEqual(t, id, OfflineUuid("Alex"))

	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(3), parsed.Version())
	assert.Equal(t, uuid.RFC4122, parsed.Variant())
}

func TestLoginOffline(t *testing.T) {
	session, err := LoginOffline(" Steve ")
	require.NoError(t, err)
	assert.Equal(t, "Steve", session.Username)
	assert.Equal(t, session.Uuid, session.AccessToken())

	_, err = LoginOffline("")
	assert.Error(t, err)
	_, err = LoginOffline("two words")
	assert.Error(t, err)
}

func TestSessionKeyring(t *testing.T) {
	keyring.MockInit()

	_, err := LoadSession()
	assert.ErrorIs(t, err, ErrNoSession)

	session := util.Session{Username: "Steve", Uuid: OfflineUuid("Steve")}
	require.NoError(t, SaveSession(session))
	loaded, err := LoadSession()
	require.NoError(t, err)
	assert.Equal(t, session, loaded)

	require.NoError(t, ClearSession())
	require.NoError(t, ClearSession())
	_, err = LoadSession()
	assert.ErrorIs(t, err, ErrNoSession)
}
