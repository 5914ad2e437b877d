// Package userbot drives registered user accounts over MTProto so greetings
// are sent from the user's own identity instead of the bot's.
package userbot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
)

type sessionStore struct {
	dir string
}

func newSessionStore(dir string) (*sessionStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory %s: %w", dir, err)
	}
	return &sessionStore{dir: dir}, nil
}

func (s *sessionStore) path(ownerTelegramID int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d.json", ownerTelegramID))
}

// pendingPath holds the session of a login in progress. It replaces path only
// once sign-in succeeds, so the authorized session keeps delivering meanwhile.
func (s *sessionStore) pendingPath(ownerTelegramID int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d.pending.json", ownerTelegramID))
}

// discardPending removes an unfinished login session.
func (s *sessionStore) discardPending(ownerTelegramID int64) error {
	err := os.Remove(s.pendingPath(ownerTelegramID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove pending session file: %w", err)
	}
	return nil
}

// promote makes the pending session the account's session.
func (s *sessionStore) promote(ownerTelegramID int64) error {
	if err := os.Rename(s.pendingPath(ownerTelegramID), s.path(ownerTelegramID)); err != nil {
		return fmt.Errorf("failed to store session file: %w", err)
	}
	return nil
}

func (s *sessionStore) newClient(ownerTelegramID int64, apiID int, apiHash string) *telegram.Client {
	return newFileClient(s.path(ownerTelegramID), apiID, apiHash)
}

func (s *sessionStore) newPendingClient(ownerTelegramID int64, apiID int, apiHash string) *telegram.Client {
	return newFileClient(s.pendingPath(ownerTelegramID), apiID, apiHash)
}

func newFileClient(path string, apiID int, apiHash string) *telegram.Client {
	return telegram.NewClient(apiID, apiHash, telegram.Options{
		SessionStorage: &session.FileStorage{Path: path},
		NoUpdates:      true,
	})
}
