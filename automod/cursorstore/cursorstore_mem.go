package cursorstore

import (
	"context"
)

type MemCursorStore struct {
	Cursors map[string]string
}

func NewMemCursorStore() MemCursorStore {
	return MemCursorStore{
		Cursors: make(map[string]string),
	}
}

func (s MemCursorStore) Get(ctx context.Context, key string) (string, error) {
	return s.Cursors[key], nil
}

func (s MemCursorStore) Set(ctx context.Context, key, val string) error {
	s.Cursors[key] = val
	return nil
}
