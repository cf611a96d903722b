package watchlist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// List is the persisted watchlist document.
type List struct {
	Symbols   []string  `json:"symbols"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store keeps the watchlist in a JSON file with concurrency safety.
type Store struct {
	mu       sync.Mutex
	list     *List
	filePath string
}

// NewStore loads (or initializes) the watchlist. Seed symbols are only
// written when the file does not exist yet.
func NewStore(filePath string, seed []string) (*Store, error) {
	list, err := load(filePath)
	if err != nil {
		return nil, err
	}
	s := &Store{list: list, filePath: filePath}
	if len(list.Symbols) == 0 && len(seed) > 0 {
		s.list.Symbols = append([]string(nil), seed...)
		if err := s.save(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Symbols returns a copy of the watched symbols.
func (s *Store) Symbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.list.Symbols...)
}

// Len returns the number of watched symbols.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.list.Symbols)
}

// Add appends a symbol if not already present. Reports whether it was added.
func (s *Store) Add(code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.list.Symbols {
		if c == code {
			return false, nil
		}
	}
	s.list.Symbols = append(s.list.Symbols, code)
	return true, s.save()
}

// Remove deletes a symbol. Reports whether it was present.
func (s *Store) Remove(code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.list.Symbols {
		if c == code {
			s.list.Symbols = append(s.list.Symbols[:i], s.list.Symbols[i+1:]...)
			return true, s.save()
		}
	}
	return false, nil
}

func load(filePath string) (*List, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &List{}, nil
		}
		return nil, err
	}
	var list List
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (s *Store) save() error {
	s.list.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(s.list, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.filePath, data, 0644)
}
