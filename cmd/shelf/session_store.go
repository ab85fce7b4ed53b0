package main

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"shelf/internal/library"

	"go.uber.org/zap"
)

type storedSession struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "shelf", "session.json")
}

// loadSession reads the session file. A missing or unreadable file is a
// signed-out session. Every later Issue or Clear is written back to path;
// write failures are logged since the command itself already succeeded.
func loadSession(path string, log *zap.Logger) *library.Session {
	stored, err := readSession(path)
	if err != nil {
		log.Warn("ignoring unreadable session file", zap.String("path", path), zap.Error(err))
		stored = storedSession{}
	}

	s := library.NewSession(stored.Token, stored.UserID, stored.Email)
	s.OnChange(func(token, userID, email string) {
		if err := saveSession(path, storedSession{Token: token, UserID: userID, Email: email}); err != nil {
			log.Warn("could not save session", zap.String("path", path), zap.Error(err))
		}
	})
	return s
}

func readSession(path string) (storedSession, error) {
	var stored storedSession
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return stored, nil
	}
	if err != nil {
		return stored, err
	}
	err = json.Unmarshal(data, &stored)
	return stored, err
}

func saveSession(path string, s storedSession) error {
	if s.Token == "" {
		err := os.Remove(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
