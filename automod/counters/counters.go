package counters

import (
	"sort"
)

// CategoryCounter accumulates a signed integer per category label. A missing
// label always reads as zero.
type CategoryCounter map[string]int64

func NewCategoryCounter() CategoryCounter {
	return make(CategoryCounter)
}

func (c CategoryCounter) Get(label string) int64 {
	return c[label]
}

func (c CategoryCounter) Add(label string, delta int64) {
	c[label] += delta
}

// Merge adds every count from other into this counter. Additive only; merging
// the same delta twice doubles it.
func (c CategoryCounter) Merge(other CategoryCounter) {
	for label, count := range other {
		c[label] += count
	}
}

func (c CategoryCounter) Clone() CategoryCounter {
	out := make(CategoryCounter, len(c))
	for label, count := range c {
		out[label] = count
	}
	return out
}

// SumOver totals the counts for the given labels. Labels absent from the
// counter contribute zero.
func (c CategoryCounter) SumOver(labels []string) int64 {
	var total int64
	for _, label := range labels {
		total += c[label]
	}
	return total
}

type Entry struct {
	Label string
	Count int64
}

// MostCommon returns up to n entries ordered by descending count. Equal counts
// order by label so that results are deterministic across runs.
func (c CategoryCounter) MostCommon(n int) []Entry {
	entries := c.sorted(func(a, b Entry) bool {
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Label < b.Label
	})
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// LeastCommon returns up to n entries ordered by ascending count, with the
// same deterministic label tie-break as MostCommon.
func (c CategoryCounter) LeastCommon(n int) []Entry {
	entries := c.sorted(func(a, b Entry) bool {
		if a.Count != b.Count {
			return a.Count < b.Count
		}
		return a.Label < b.Label
	})
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

func (c CategoryCounter) sorted(less func(a, b Entry) bool) []Entry {
	entries := make([]Entry, 0, len(c))
	for label, count := range c {
		entries = append(entries, Entry{Label: label, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		return less(entries[i], entries[j])
	})
	return entries
}

// CounterSet is the fixed set of per-category counters tracked for a user.
// The fields are enumerated explicitly: merge iterates this known set rather
// than discovering fields by name.
type CounterSet struct {
	CommentKarma CategoryCounter
	PostKarma    CategoryCounter
	PosComments  CategoryCounter
	NegComments  CategoryCounter
	PosPosts     CategoryCounter
	NegPosts     CategoryCounter
	PosQuality   CategoryCounter
	NegQuality   CategoryCounter
}

func NewCounterSet() CounterSet {
	return CounterSet{
		CommentKarma: NewCategoryCounter(),
		PostKarma:    NewCategoryCounter(),
		PosComments:  NewCategoryCounter(),
		NegComments:  NewCategoryCounter(),
		PosPosts:     NewCategoryCounter(),
		NegPosts:     NewCategoryCounter(),
		PosQuality:   NewCategoryCounter(),
		NegQuality:   NewCategoryCounter(),
	}
}

// Merge adds every counter from other into this set, field by field.
func (s *CounterSet) Merge(other CounterSet) {
	s.CommentKarma.Merge(other.CommentKarma)
	s.PostKarma.Merge(other.PostKarma)
	s.PosComments.Merge(other.PosComments)
	s.NegComments.Merge(other.NegComments)
	s.PosPosts.Merge(other.PosPosts)
	s.NegPosts.Merge(other.NegPosts)
	s.PosQuality.Merge(other.PosQuality)
	s.NegQuality.Merge(other.NegQuality)
}

func (s CounterSet) Clone() CounterSet {
	return CounterSet{
		CommentKarma: s.CommentKarma.Clone(),
		PostKarma:    s.PostKarma.Clone(),
		PosComments:  s.PosComments.Clone(),
		NegComments:  s.NegComments.Clone(),
		PosPosts:     s.PosPosts.Clone(),
		NegPosts:     s.NegPosts.Clone(),
		PosQuality:   s.PosQuality.Clone(),
		NegQuality:   s.NegQuality.Clone(),
	}
}

// NetQuality derives positive minus negative quality counts per label. It is
// recomputed on every call so the result can never drift from its inputs.
func (s CounterSet) NetQuality() CategoryCounter {
	out := make(CategoryCounter, len(s.PosQuality))
	for label, count := range s.PosQuality {
		out[label] = count - s.NegQuality[label]
	}
	for label, count := range s.NegQuality {
		if _, ok := s.PosQuality[label]; !ok {
			out[label] = -count
		}
	}
	return out
}
