package users

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Record is one saved channel in the user directory: the name the user typed, the
// avatar image URL we last resolved for them, and whether they were live at the last
// refresh
type Record struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Live     bool   `json:"live"`
}

// Store persists the user directory as a single JSON object keyed by username. The
// whole map is loaded once at startup and rewritten on every mutation; lookups are
// case-insensitive while records keep their original-case username
type Store struct {
	path string

	mu      sync.Mutex
	records map[string]Record
}

func NewStore(path string) *Store {
	return &Store{
		path:    path,
		records: make(map[string]Record),
	}
}

// Load reads the directory from disk; a missing file is an empty directory, not an
// error
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read user directory: %w", err)
	}
	records := make(map[string]Record)
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse user directory: %w", err)
	}
	s.records = make(map[string]Record, len(records))
	for _, record := range records {
		s.records[strings.ToLower(record.Username)] = record
	}
	return nil
}

// save rewrites the whole directory; callers must hold s.mu
func (s *Store) save() error {
	keyed := make(map[string]Record, len(s.records))
	for _, record := range s.records {
		keyed[record.Username] = record
	}
	data, err := json.MarshalIndent(keyed, "", "\t")
	if err != nil {
		return fmt.Errorf("failed to serialize user directory: %w", err)
	}

	// Write-then-rename so a crash mid-write can't truncate the directory
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create user directory path: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write user directory: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace user directory: %w", err)
	}
	return nil
}

// All returns a copy of every record, keyed by original-case username
func (s *Store) All() map[string]Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[string]Record, len(s.records))
	for _, record := range s.records {
		result[record.Username] = record
	}
	return result
}

// Get looks up a single record by username
func (s *Store) Get(username string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[strings.ToLower(username)]
	return record, ok
}

// Set inserts or replaces a record and persists the directory
func (s *Store) Set(record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[strings.ToLower(record.Username)] = record
	return s.save()
}

// Remove deletes a record, if present, and persists the directory
func (s *Store) Remove(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(username)
	if _, ok := s.records[key]; !ok {
		return nil
	}
	delete(s.records, key)
	return s.save()
}

// SetLive flags the listed usernames as live and every other record as offline,
// then persists the directory; used after a bulk liveness refresh
func (s *Store) SetLive(liveUsernames []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := make(map[string]struct{}, len(liveUsernames))
	for _, username := range liveUsernames {
		live[strings.ToLower(username)] = struct{}{}
	}
	for key, record := range s.records {
		_, isLive := live[key]
		record.Live = isLive
		s.records[key] = record
	}
	return s.save()
}
