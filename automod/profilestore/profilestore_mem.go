package profilestore

import (
	"context"
	"sort"
	"time"

	"github.com/isstabb/InstaMod/automod/profile"
)

type MemProfileStore struct {
	Profiles map[string]*profile.Profile
}

func NewMemProfileStore() MemProfileStore {
	return MemProfileStore{
		Profiles: make(map[string]*profile.Profile),
	}
}

func memKey(community, username string) string {
	return community + "/" + username
}

func (s MemProfileStore) Get(ctx context.Context, community, username string) (*profile.Profile, error) {
	p, ok := s.Profiles[memKey(community, username)]
	if !ok {
		return nil, nil
	}
	cp := *p
	cp.Counters = p.Counters.Clone()
	return &cp, nil
}

func (s MemProfileStore) Put(ctx context.Context, p *profile.Profile) error {
	cp := *p
	cp.Counters = p.Counters.Clone()
	s.Profiles[memKey(p.Community, p.Username)] = &cp
	return nil
}

func (s MemProfileStore) Delete(ctx context.Context, community, username string) error {
	delete(s.Profiles, memKey(community, username))
	return nil
}

func (s MemProfileStore) Oldest(ctx context.Context, community string) (string, error) {
	oldest := ""
	var when time.Time
	for _, p := range s.Profiles {
		if p.Community != community {
			continue
		}
		if oldest == "" || p.AnalyzedAt.Before(when) {
			oldest = p.Username
			when = p.AnalyzedAt
		}
	}
	return oldest, nil
}

func (s MemProfileStore) ListAnalyzedBefore(ctx context.Context, community string, cutoff time.Time) ([]string, error) {
	var out []string
	for _, p := range s.Profiles {
		if p.Community == community && p.AnalyzedAt.Before(cutoff) {
			out = append(out, p.Username)
		}
	}
	sort.Strings(out)
	return out, nil
}
