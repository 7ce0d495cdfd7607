package sqlite

import (
	"database/sql"
	"errors"
)

// PreferenceStore persists user preferences in the preferences table. It
// implements prefs.Store.
type PreferenceStore struct {
	backend *Backend
}

// Preferences returns the preference store of the backend.
func (b *Backend) Preferences() *PreferenceStore {
	return &PreferenceStore{backend: b}
}

// Get returns the stored value for key.
func (s *PreferenceStore) Get(key string) ([]byte, bool, error) {
	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()
	if !s.backend.attached {
		return nil, false, ErrDetached
	}
	var value string
	err := s.backend.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(value), true, nil
}

// Put stores value under key; last writer wins.
func (s *PreferenceStore) Put(key string, value []byte) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	if !s.backend.attached {
		return ErrDetached
	}
	_, err := s.backend.db.Exec(`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), timestamp())
	return err
}
