package liststore

import (
	"context"
	"sort"
)

// MemListStore is the in-memory implementation, for tests and single-process
// runs without redis. Single-writer assumption, same as the rest of the
// engine.
type MemListStore struct {
	Lists map[string]map[string]bool
}

func NewMemListStore() MemListStore {
	return MemListStore{
		Lists: make(map[string]map[string]bool),
	}
}

func (s MemListStore) Contains(ctx context.Context, list, username string) (bool, error) {
	return s.Lists[list][username], nil
}

func (s MemListStore) Add(ctx context.Context, list, username string) error {
	m, ok := s.Lists[list]
	if !ok {
		m = make(map[string]bool)
		s.Lists[list] = m
	}
	m[username] = true
	return nil
}

func (s MemListStore) Remove(ctx context.Context, list, username string) error {
	delete(s.Lists[list], username)
	return nil
}

func (s MemListStore) Members(ctx context.Context, list string) ([]string, error) {
	out := make([]string, 0, len(s.Lists[list]))
	for username := range s.Lists[list] {
		out = append(out, username)
	}
	sort.Strings(out)
	return out, nil
}

func (s MemListStore) Clear(ctx context.Context, list string) error {
	delete(s.Lists, list)
	return nil
}
