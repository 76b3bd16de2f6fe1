package swap

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

const (
	DefaultStoreFileName = ".wallet-core-swaps.json"
)

var (
	ErrProcessNotFound = errors.New("swap process not found")
	ErrProcessActive   = errors.New("swap process has an open deposit")
)

// Store persists swap processes in a JSON file
type Store struct {
	filePath  string
	mu        sync.RWMutex
	processes map[string]*SwapProcess
}

// storeFile represents the JSON structure of the store
type storeFile struct {
	Processes map[string]*SwapProcess `json:"processes"`
}

// NewStore opens the store at filePath, creating it on first save
func NewStore(filePath string) (*Store, error) {
	if filePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, DefaultStoreFileName)
	}

	store := &Store{
		filePath:  filePath,
		processes: make(map[string]*SwapProcess),
	}

	if err := store.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load swaps: %w", err)
	}

	return store, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var file storeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal swaps: %w", err)
	}

	s.processes = file.Processes
	if s.processes == nil {
		s.processes = make(map[string]*SwapProcess)
	}
	return nil
}

// saveLocked writes all processes; the caller holds the write lock
func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(storeFile{Processes: s.processes}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal swaps: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to temporary file first, then rename for atomic write
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write swaps: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Create adds a new process
func (s *Store) Create(p *SwapProcess) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.processes[p.ID]; exists {
		return fmt.Errorf("swap process '%s' already exists", p.ID)
	}
	stored := *p
	s.processes[p.ID] = &stored
	return s.saveLocked()
}

// Get returns a copy of a process
func (s *Store) Get(id string) (*SwapProcess, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.processes[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrProcessNotFound, id)
	}
	out := *p
	return &out, nil
}

// Update replaces an existing process
func (s *Store) Update(p *SwapProcess) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.processes[p.ID]; !exists {
		return fmt.Errorf("%w: %s", ErrProcessNotFound, p.ID)
	}
	stored := *p
	s.processes[p.ID] = &stored
	return s.saveLocked()
}

// Delete removes a process
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.processes[id]; !exists {
		return fmt.Errorf("%w: %s", ErrProcessNotFound, id)
	}
	delete(s.processes, id)
	return s.saveLocked()
}

// List returns all processes, oldest first
func (s *Store) List() []*SwapProcess {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*SwapProcess, 0, len(s.processes))
	for _, p := range s.processes {
		out := *p
		list = append(list, &out)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list
}

// ListByState returns processes in the given state, oldest first
func (s *Store) ListByState(state ProcessState) []*SwapProcess {
	var out []*SwapProcess
	for _, p := range s.List() {
		if p.State == state {
			out = append(out, p)
		}
	}
	return out
}
