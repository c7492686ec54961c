// Package engine ties the analyzer, rule evaluation, and moderation actions
// together. One Engine instance serves one monitored community; the daemon
// runs each engine's ScanCycle once per poll period.
package engine

import (
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/isstabb/InstaMod/automod/config"
	"github.com/isstabb/InstaMod/automod/cursorstore"
	"github.com/isstabb/InstaMod/automod/liststore"
	"github.com/isstabb/InstaMod/automod/profilestore"
	"github.com/isstabb/InstaMod/automod/rules"
	"github.com/isstabb/InstaMod/reddit"
)

type Opts struct {
	Logger   *slog.Logger
	Config   *config.Community
	Source   reddit.ActivitySource
	Actions  reddit.ActionExecutor
	Profiles profilestore.ProfileStore
	Lists    liststore.ListStore
	Cursors  cursorstore.CursorStore

	// SelfName is the bot's own account name, exempt from analysis, badges,
	// and removals.
	SelfName string

	// Activity older than Staleness is merged into the stored record once;
	// newer activity is re-scanned every cycle.
	Staleness time.Duration
	// A user analyzed within AnalysisCooldown is not re-analyzed.
	AnalysisCooldown time.Duration
	// PostScanLimit bounds the community post listing fetched per cycle.
	PostScanLimit int
	// LockedThreadTTL bounds how long a thread-lock registration is trusted
	// before the post listing must confirm it again.
	LockedThreadTTL time.Duration
}

type Engine struct {
	logger   *slog.Logger
	cfg      *config.Community
	source   reddit.ActivitySource
	actions  reddit.ActionExecutor
	profiles profilestore.ProfileStore
	lists    liststore.ListStore
	cursors  cursorstore.CursorStore

	selfName         string
	staleness        time.Duration
	analysisCooldown time.Duration
	postScanLimit    int

	lockedThreads *expirable.LRU[string, rules.LockRule]
	stickied      *expirable.LRU[string, bool]

	// now is swapped out by tests
	now func() time.Time
}

func New(opts Opts) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	staleness := opts.Staleness
	if staleness == 0 {
		staleness = 90 * 24 * time.Hour
	}
	cooldown := opts.AnalysisCooldown
	if cooldown == 0 {
		cooldown = 7 * 24 * time.Hour
	}
	postLimit := opts.PostScanLimit
	if postLimit == 0 {
		postLimit = 25
	}
	lockedTTL := opts.LockedThreadTTL
	if lockedTTL == 0 {
		lockedTTL = 5 * time.Minute
	}
	return &Engine{
		logger:           logger.With("community", opts.Config.Name),
		cfg:              opts.Config,
		source:           opts.Source,
		actions:          opts.Actions,
		profiles:         opts.Profiles,
		lists:            opts.Lists,
		cursors:          opts.Cursors,
		selfName:         opts.SelfName,
		staleness:        staleness,
		analysisCooldown: cooldown,
		postScanLimit:    postLimit,
		lockedThreads:    expirable.NewLRU[string, rules.LockRule](1024, nil, lockedTTL),
		stickied:         expirable.NewLRU[string, bool](1024, nil, 24*time.Hour),
		now:              time.Now,
	}
}

// Community returns the name of the community this engine serves.
func (eng *Engine) Community() string {
	return eng.cfg.Name
}

// listName namespaces a well-known list name under this community.
func (eng *Engine) listName(list string) string {
	return eng.cfg.Name + "/" + list
}
