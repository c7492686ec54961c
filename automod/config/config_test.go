package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isstabb/InstaMod/automod/rules"
)

var sampleConfig = []byte(`{
	"community": "testsub",
	"label": "test",
	"mods": ["mod1", "mod2"],
	"features": {
		"thread_lock": true,
		"progression": true,
		"tags": true,
		"read_directives": true
	},
	"account_age_months": 6,
	"tag_expiration_days": 7,
	"quality": {
		"pos_karma": 3,
		"pos_words": null,
		"neg_karma": -1,
		"neg_words": null
	},
	"categories": {
		"primary": {"TestSub": "test", "OtherSub": "test", "AskThings": "ask"},
		"secondary": {"SideSub": "side"}
	},
	"tiers": [
		{
			"metric": "positive comments",
			"targets": "PRIMARY",
			"comparison": "GREATER_THAN_EQUAL_TO",
			"value": 100,
			"flair_text": "regular",
			"flair_css": "gold",
			"permissions": "CUSTOM_FLAIR"
		},
		{
			"metric": "ELSE",
			"flair_text": "new here",
			"flair_css": "new"
		}
	],
	"tag_rules": [
		{
			"metric": "net QC",
			"targets": "ALL",
			"sort": "MOST_COMMON",
			"tag_cap": 3,
			"comparison": "GREATER_THAN_EQUAL_TO",
			"value": 15,
			"pre_text": "r/",
			"post_text": ""
		}
	],
	"thread_locks": [
		{
			"metric": "net QC",
			"targets": "PRIMARY",
			"comparison": "LESS_THAN_EQUAL_TO",
			"value": 10,
			"flair_id": "Politics",
			"action": "REMOVE"
		}
	],
	"sticky_comment": "This thread is restricted.",
	"remove_message": {"subject": "Comment removed", "body": "Your account is not approved to post here."}
}`)

func TestParseSample(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	c, err := Parse(sampleConfig)
	require.NoError(err)

	assert.Equal("testsub", c.Name)
	assert.Equal("test", c.Label)
	assert.True(c.Features.ThreadLock)
	assert.False(c.Features.CommunityLock)
	require.NotNil(c.Quality.PosKarma)
	assert.Equal(int64(3), *c.Quality.PosKarma)
	assert.Nil(c.Quality.PosWords)

	require.Len(c.Tiers, 2)
	assert.Equal(rules.GroupPrimary, c.Tiers[0].Targets.Group)
	assert.Equal(rules.MetricElse, c.Tiers[1].Metric)

	label, ok := c.LabelFor("othersub")
	assert.True(ok)
	assert.Equal("test", label)
	_, ok = c.LabelFor("nowhere")
	assert.False(ok)

	g := c.Groups()
	assert.Equal([]string{"ask", "test"}, g.Primary)
	assert.Equal([]string{"side"}, g.Secondary)

	rule, ok := c.ThreadLockForFlair("Politics")
	assert.True(ok)
	assert.Equal(rules.ActionRemove, rule.Action)
	_, ok = c.ThreadLockForFlair("Memes")
	assert.False(ok)

	assert.True(c.IsMod("Mod1"))
	assert.False(c.IsMod("rando"))
}

func TestValidateRejects(t *testing.T) {
	assert := assert.New(t)

	cases := []struct {
		name string
		doc  string
	}{
		{"missing name", `{"label": "x"}`},
		{"missing label", `{"community": "x"}`},
		{"bad metric", `{"community": "x", "label": "x",
			"tiers": [{"metric": "karma typo", "targets": "ALL", "comparison": "EQUAL_TO", "value": 1, "flair_text": "t"}]}`},
		{"bad sort", `{"community": "x", "label": "x",
			"tag_rules": [{"metric": "net QC", "targets": "ALL", "sort": "SIDEWAYS", "tag_cap": 1, "comparison": "EQUAL_TO", "value": 1}]}`},
		{"zero tag cap", `{"community": "x", "label": "x",
			"tag_rules": [{"metric": "net QC", "targets": "ALL", "sort": "MOST_COMMON", "tag_cap": 0, "comparison": "EQUAL_TO", "value": 1}]}`},
		{"bad action", `{"community": "x", "label": "x",
			"thread_locks": [{"metric": "net QC", "targets": "ALL", "comparison": "EQUAL_TO", "value": 1, "flair_id": "f", "action": "SHRED"}]}`},
		{"lock missing flair", `{"community": "x", "label": "x",
			"thread_locks": [{"metric": "net QC", "targets": "ALL", "comparison": "EQUAL_TO", "value": 1, "action": "SPAM"}]}`},
		{"bad target group", `{"community": "x", "label": "x",
			"tiers": [{"metric": "net QC", "targets": "C_SUBS", "comparison": "EQUAL_TO", "value": 1, "flair_text": "t"}]}`},
	}
	for _, tc := range cases {
		_, err := Parse([]byte(tc.doc))
		assert.Error(err, tc.name)
	}
}
