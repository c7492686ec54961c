package counters

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// The persisted representation of a CategoryCounter is a flat string of
// space-separated "label count" token pairs, eg "askhist 12 ch 3". Zero counts
// are kept so that an explicitly-tracked label survives a round trip.

// FormatTokens renders the counter as token pairs in sorted label order.
func FormatTokens(c CategoryCounter) string {
	labels := make([]string, 0, len(c))
	for label := range c {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var b strings.Builder
	for i, label := range labels {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(label)
		b.WriteByte(' ')
		b.WriteString(strconv.FormatInt(c[label], 10))
	}
	return b.String()
}

// ParseTokens parses the token-pair representation back into a counter.
// Accepts any whitespace between tokens; input order is irrelevant.
func ParseTokens(raw string) (CategoryCounter, error) {
	fields := strings.Fields(raw)
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("counter tokens: odd token count (%d)", len(fields))
	}
	out := make(CategoryCounter, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		count, err := strconv.ParseInt(fields[i+1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("counter tokens: bad count for label %q: %w", fields[i], err)
		}
		out[fields[i]] = count
	}
	return out, nil
}
