// Package config defines the typed per-community rule configuration. A
// document is parsed from JSON (local file or a wiki page fetched by the
// caller) and validated once at load; the rest of the system only ever sees
// the typed form.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/isstabb/InstaMod/automod/profile"
	"github.com/isstabb/InstaMod/automod/rules"
)

// Features toggles the orchestrator's optional behaviors per community.
type Features struct {
	ThreadLock     bool `json:"thread_lock"`
	CommunityLock  bool `json:"community_lock"`
	Progression    bool `json:"progression"`
	Tags           bool `json:"tags"`
	ReadDirectives bool `json:"read_directives"`
}

// Quality configures quality-count classification of comments. Every field is
// optional: a nil karma threshold disables that side entirely, a nil word
// bound disables the word-count gate.
type Quality struct {
	PosKarma *int64 `json:"pos_karma"`
	PosWords *int   `json:"pos_words"`
	NegKarma *int64 `json:"neg_karma"`
	NegWords *int   `json:"neg_words"`
}

// Categories maps community names to category labels. Communities sharing a
// label have their counters summed. Lookup is case-insensitive.
type Categories struct {
	Primary   map[string]string `json:"primary"`
	Secondary map[string]string `json:"secondary"`
}

// RemoveMessage is the notification sent alongside a REMOVE lock action.
type RemoveMessage struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Community is the complete rule configuration for one monitored community.
type Community struct {
	Name              string           `json:"community"`
	Label             string           `json:"label"`
	Mods              []string         `json:"mods"`
	Features          Features         `json:"features"`
	AccountAgeMonths  int              `json:"account_age_months"`
	TagExpirationDays int              `json:"tag_expiration_days"`
	Quality           Quality          `json:"quality"`
	Categories        Categories       `json:"categories"`
	Tiers             []rules.TierRule `json:"tiers"`
	TagRules          []rules.TagRule  `json:"tag_rules"`
	ThreadLocks       []rules.LockRule `json:"thread_locks"`
	CommunityLocks    []rules.LockRule `json:"community_locks"`
	StickyComment     string           `json:"sticky_comment"`
	RemoveMessage     *RemoveMessage   `json:"remove_message"`
}

// Parse unmarshals and validates a configuration document.
func Parse(raw []byte) (*Community, error) {
	var c Community
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parsing community config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadFile reads and parses a configuration document from disk.
func LoadFile(path string) (*Community, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

func (c *Community) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("community config: missing community name")
	}
	if c.Label == "" {
		return fmt.Errorf("community config %s: missing label", c.Name)
	}
	for i, tier := range c.Tiers {
		if err := validateCriteria(tier.Criteria); err != nil {
			return fmt.Errorf("tier %d: %w", i, err)
		}
	}
	for i, rule := range c.TagRules {
		if err := validateCriteria(rule.Criteria); err != nil {
			return fmt.Errorf("tag rule %d: %w", i, err)
		}
		if rule.Sort != rules.SortMostCommon && rule.Sort != rules.SortLeastCommon {
			return fmt.Errorf("tag rule %d: unknown sort %q", i, rule.Sort)
		}
		if rule.TagCap <= 0 {
			return fmt.Errorf("tag rule %d: tag_cap must be positive", i)
		}
	}
	for i, rule := range c.ThreadLocks {
		if err := validateLock(rule); err != nil {
			return fmt.Errorf("thread lock %d: %w", i, err)
		}
		if rule.FlairID == "" {
			return fmt.Errorf("thread lock %d: missing flair_id", i)
		}
	}
	for i, rule := range c.CommunityLocks {
		if err := validateLock(rule); err != nil {
			return fmt.Errorf("community lock %d: %w", i, err)
		}
		if rule.LockID == "" {
			return fmt.Errorf("community lock %d: missing lock_id", i)
		}
	}
	return nil
}

func validateCriteria(c rules.Criteria) error {
	if c.Metric == rules.MetricElse {
		return nil
	}
	if !profile.KnownMetric(c.Metric) {
		return fmt.Errorf("unknown metric %q", c.Metric)
	}
	return nil
}

func validateLock(rule rules.LockRule) error {
	if err := validateCriteria(rule.Criteria); err != nil {
		return err
	}
	if rule.Action != rules.ActionRemove && rule.Action != rules.ActionSpam {
		return fmt.Errorf("unknown action %q", rule.Action)
	}
	return nil
}

// LabelFor resolves a community name to its category label, case-insensitive.
// Unmapped communities return ok=false and are ignored by the analyzer.
func (c *Community) LabelFor(community string) (string, bool) {
	for name, label := range c.Categories.Primary {
		if strings.EqualFold(name, community) {
			return label, true
		}
	}
	for name, label := range c.Categories.Secondary {
		if strings.EqualFold(name, community) {
			return label, true
		}
	}
	return "", false
}

// Groups returns the deduplicated label sets behind the named target groups.
func (c *Community) Groups() rules.Groups {
	return rules.Groups{
		Primary:   labelSet(c.Categories.Primary),
		Secondary: labelSet(c.Categories.Secondary),
	}
}

func labelSet(m map[string]string) []string {
	seen := make(map[string]bool, len(m))
	var out []string
	for _, label := range m {
		if !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}
	sort.Strings(out)
	return out
}

// ThreadLockForFlair matches a post's link flair against the thread-lock
// rules. The same lookup resolves a stored lock id back to its rule.
func (c *Community) ThreadLockForFlair(flair string) (rules.LockRule, bool) {
	for _, rule := range c.ThreadLocks {
		if rule.FlairID == flair {
			return rule, true
		}
	}
	return rules.LockRule{}, false
}

// IsMod reports whether the username is in the community's mod list.
func (c *Community) IsMod(username string) bool {
	for _, mod := range c.Mods {
		if strings.EqualFold(mod, username) {
			return true
		}
	}
	return false
}
