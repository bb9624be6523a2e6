package services

import (
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mrnavastar/yagua/util"
	"github.com/zalando/go-keyring"
)

const (
	keyringService = "yagua"
	keyringUser    = "session"
)

// ErrNoSession is returned by LoadSession when nobody is logged in.
var ErrNoSession = errors.New("no saved session")

// OfflineUuid is the name based uuid servers derive for offline players.
func OfflineUuid(username string) string {
	sum := md5.Sum([]byte("OfflinePlayer:" + username))
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80
	id, _ := uuid.FromBytes(sum[:])
	return id.String()
}

func LoginOffline(username string) (util.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.ContainsAny(username, " \t\n") {
		return util.Session{}, fmt.Errorf("invalid username %q", username)
	}
	return util.Session{Username: username, Uuid: OfflineUuid(username)}, nil
}

// SaveSession keeps the session in the system keyring.
func SaveSession(session util.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return keyring.Set(keyringService, keyringUser, string(data))
}

func LoadSession() (util.Session, error) {
	secret, err := keyring.Get(keyringService, keyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return util.Session{}, ErrNoSession
	}
	if err != nil {
		return util.Session{}, err
	}

	var session util.Session
	if err := json.Unmarshal([]byte(secret), &session); err != nil {
		return util.Session{}, fmt.Errorf("decoding saved session: %w", err)
	}
	return session, nil
}

func ClearSession() error {
	err := keyring.Delete(keyringService, keyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
