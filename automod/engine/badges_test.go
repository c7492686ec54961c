package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccountAgeBadge(t *testing.T) {
	assert := assert.New(t)

	now := fixedNow
	cases := []struct {
		age    time.Duration
		expect string
	}{
		{24 * time.Hour, "1 day old"},
		{5 * 24 * time.Hour, "5 days old"},
		{30 * 24 * time.Hour, "30 days old"},
		{45 * 24 * time.Hour, "1 month old"},
		{90 * 24 * time.Hour, "3 months old"},
	}
	for _, c := range cases {
		assert.Equal(c.expect, accountAgeBadge(now, now.Add(-c.age)), "age %s", c.age)
	}
}
