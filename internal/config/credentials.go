package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
)

const credFileName = "credentials.json"

// APIKeyEnv overrides the stored key.
const APIKeyEnv = EnvPrefix + "_FIRESTORE_API_KEY"

// KeyInfo is the stored Firestore API key.
type KeyInfo struct {
	Key       string    `json:"key"`
	Source    string    `json:"source"`     // "env" | "file"
	CreatedAt time.Time `json:"created_at"` // when we saved to file
}

func credFilePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, credFileName), nil
}

// GetAPIKey returns the key from the environment or the credentials file,
// or nil when neither is set.
func GetAPIKey() (*KeyInfo, error) {
	// 1) env override
	if env := strings.TrimSpace(os.Getenv(APIKeyEnv)); env != "" {
		return &KeyInfo{Key: env, Source: "env"}, nil
	}

	// 2) file
	p, err := credFilePath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var ki KeyInfo
	if err := json.Unmarshal(b, &ki); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	ki.Key = strings.TrimSpace(ki.Key)
	if ki.Key == "" {
		return nil, nil
	}
	ki.Source = "file"
	return &ki, nil
}

// SetAPIKey writes the key to ~/.dreams/credentials.json, owner-only.
func SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("empty key")
	}
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	ki := KeyInfo{
		Key:       key,
		Source:    "file",
		CreatedAt: time.Now(),
	}
	b, err := json.MarshalIndent(ki, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	p, err := credFilePath()
	if err != nil {
		return err
	}
	// New files get the temp file's 0600 mode; an existing file keeps its own.
	if err := atomic.WriteFile(p, bytes.NewReader(b)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// DeleteAPIKey removes the credentials file; a missing file is not an error.
func DeleteAPIKey() error {
	p, err := credFilePath()
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

// MaskKey shows only the last four characters of a key.
func MaskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
