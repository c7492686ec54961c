package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/isstabb/InstaMod/automod/config"
	"github.com/isstabb/InstaMod/automod/cursorstore"
	"github.com/isstabb/InstaMod/automod/engine"
	"github.com/isstabb/InstaMod/automod/liststore"
	"github.com/isstabb/InstaMod/automod/profilestore"
	"github.com/isstabb/InstaMod/reddit"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "instamod",
		Usage:   "recurring-poll community moderation daemon",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "reddit-client-id",
			EnvVars: []string{"REDDIT_CLIENT_ID"},
		},
		&cli.StringFlag{
			Name:    "reddit-client-secret",
			EnvVars: []string{"REDDIT_CLIENT_SECRET"},
		},
		&cli.StringFlag{
			Name:    "reddit-username",
			EnvVars: []string{"REDDIT_USERNAME"},
		},
		&cli.StringFlag{
			Name:    "reddit-password",
			EnvVars: []string{"REDDIT_PASSWORD"},
		},
		&cli.IntFlag{
			Name:    "max-db-connections",
			EnvVars: []string{"MAX_DB_CONNECTIONS"},
			Value:   40,
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the daemon",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "community",
			Usage:   "community to monitor (repeatable)",
			EnvVars: []string{"INSTAMOD_COMMUNITIES"},
		},
		&cli.StringFlag{
			Name:    "config-dir",
			Usage:   "directory holding per-community rule configs (<community>.json)",
			Value:   "configs",
			EnvVars: []string{"INSTAMOD_CONFIG_DIR"},
		},
		&cli.StringFlag{
			Name:    "config-wiki-page",
			Usage:   "load rule configs from this wiki page of each community instead of config-dir",
			EnvVars: []string{"INSTAMOD_CONFIG_WIKI_PAGE"},
		},
		&cli.StringFlag{
			Name:    "database-url",
			Value:   "sqlite://data/instamod/instamod.sqlite",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis for lists and scan cursors; in-memory when empty",
			EnvVars: []string{"INSTAMOD_REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3989",
			EnvVars: []string{"INSTAMOD_METRICS_LISTEN"},
		},
		&cli.DurationFlag{
			Name:    "cycle-period",
			Usage:   "time budget for one full poll cycle",
			Value:   60 * time.Second,
			EnvVars: []string{"INSTAMOD_CYCLE_PERIOD"},
		},
		&cli.DurationFlag{
			Name:    "staleness",
			Usage:   "activity older than this is merged into stored records",
			Value:   90 * 24 * time.Hour,
			EnvVars: []string{"INSTAMOD_STALENESS"},
		},
		&cli.DurationFlag{
			Name:    "analysis-cooldown",
			Usage:   "minimum time between re-analyses of the same user",
			Value:   7 * 24 * time.Hour,
			EnvVars: []string{"INSTAMOD_ANALYSIS_COOLDOWN"},
		},
		&cli.IntFlag{
			Name:    "post-scan-limit",
			Usage:   "community posts inspected per cycle for thread locks",
			Value:   25,
			EnvVars: []string{"INSTAMOD_POST_SCAN_LIMIT"},
		},
		&cli.DurationFlag{
			Name:    "locked-thread-ttl",
			Usage:   "how long a thread-lock registration lasts before re-confirmation",
			Value:   5 * time.Minute,
			EnvVars: []string{"INSTAMOD_LOCKED_THREAD_TTL"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "debug, info, warn, or error",
			Value:   "info",
			EnvVars: []string{"INSTAMOD_LOG_LEVEL"},
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLogLevel(cctx.String("log-level")),
		}))
		slog.SetDefault(logger)

		communities := cctx.StringSlice("community")
		if len(communities) == 0 {
			return fmt.Errorf("no communities configured")
		}

		client := reddit.NewClient(reddit.Credentials{
			ClientID:     cctx.String("reddit-client-id"),
			ClientSecret: cctx.String("reddit-client-secret"),
			Username:     cctx.String("reddit-username"),
			Password:     cctx.String("reddit-password"),
		}, logger)
		client.UserAgent = "instamod/" + versioninfo.Short()

		db, err := profilestore.OpenDatabase(cctx.String("database-url"), cctx.Int("max-db-connections"))
		if err != nil {
			return err
		}
		profiles, err := profilestore.NewGormProfileStore(db)
		if err != nil {
			return err
		}

		var lists liststore.ListStore
		var cursors cursorstore.CursorStore
		if redisURL := cctx.String("redis-url"); redisURL != "" {
			lists, err = liststore.NewRedisListStore(redisURL)
			if err != nil {
				return fmt.Errorf("connecting to redis: %w", err)
			}
			cursors, err = cursorstore.NewRedisCursorStore(redisURL)
			if err != nil {
				return fmt.Errorf("connecting to redis: %w", err)
			}
		} else {
			lists = liststore.NewMemListStore()
			cursors = cursorstore.NewMemCursorStore()
		}

		selfName := cctx.String("reddit-username")
		if name, err := client.Me(ctx); err != nil {
			logger.Warn("could not confirm own account, using configured username", "err", err)
		} else {
			selfName = name
		}

		var engines []*engine.Engine
		for _, community := range communities {
			cfg, err := loadCommunityConfig(ctx, cctx, client, community)
			if err != nil {
				return fmt.Errorf("loading config for %s: %w", community, err)
			}
			engines = append(engines, engine.New(engine.Opts{
				Logger:           logger,
				Config:           cfg,
				Source:           client,
				Actions:          client,
				Profiles:         profiles,
				Lists:            lists,
				Cursors:          cursors,
				SelfName:         selfName,
				Staleness:        cctx.Duration("staleness"),
				AnalysisCooldown: cctx.Duration("analysis-cooldown"),
				PostScanLimit:    cctx.Int("post-scan-limit"),
				LockedThreadTTL:  cctx.Duration("locked-thread-ttl"),
			}))
		}

		srv := &Server{
			logger:      logger,
			engines:     engines,
			cyclePeriod: cctx.Duration("cycle-period"),
		}

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				slog.Error("failed to start metrics endpoint", "error", err)
				panic(fmt.Errorf("failed to start metrics endpoint: %w", err))
			}
		}()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("failed to run moderation daemon: %w", err)
		}
		return nil
	},
}

func loadCommunityConfig(ctx context.Context, cctx *cli.Context, client *reddit.Client, community string) (*config.Community, error) {
	if page := cctx.String("config-wiki-page"); page != "" {
		raw, err := client.WikiPage(ctx, community, page)
		if err != nil {
			return nil, fmt.Errorf("fetching wiki config: %w", err)
		}
		return config.Parse([]byte(raw))
	}
	return config.LoadFile(filepath.Join(cctx.String("config-dir"), community+".json"))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
