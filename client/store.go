package client

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// QueueFile is the well known name of queue state file.
const QueueFile = "glh-timer-queue.json"

// Store represents persistent storage of queued records.
//
// Replace persists the whole queue at once, incremental updates
// are never used.
type Store interface {
	Load() ([]Record, error)
	Replace(records []Record) error
}

// FileStore stores queued records in a JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates store with state in specified directory.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, QueueFile)}
}

// Load reads all queued records.
//
// Missing file means empty queue.
func (s *FileStore) Load() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Replace overwrites stored queue with specified records.
func (s *FileStore) Replace(records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
