package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/shivavenkatesh/webforge/internal/accounts"
	"github.com/shivavenkatesh/webforge/internal/config"
	"github.com/shivavenkatesh/webforge/internal/credits"
	"github.com/shivavenkatesh/webforge/internal/editor"
	"github.com/shivavenkatesh/webforge/internal/logging"
	"github.com/shivavenkatesh/webforge/internal/projects"
	"github.com/shivavenkatesh/webforge/internal/ratelimit"
	"github.com/shivavenkatesh/webforge/internal/server"
	"github.com/shivavenkatesh/webforge/internal/store/sqlite"
	"github.com/shivavenkatesh/webforge/internal/support"
)

// app holds the wired services shared by every command
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	store  *sqlite.Store
	svc    server.Services
}

// initApp loads configuration, opens the database and wires the services
func initApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, err
	}

	st, err := sqlite.New(sqlite.Config{Path: cfg.Database.Path})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	logger.Debug().Str("database", st.Path()).Msg("store opened")

	cs := credits.New(st, cfg.Credits.AssistantCost, logger.With().Str("component", "credits").Logger())
	acc := accounts.New(st, st, cs, accounts.Rewards{
		SignUp:       cfg.Credits.SignupBonus,
		Referrer:     cfg.Credits.ReferrerBonus,
		Referee:      cfg.Credits.RefereeBonus,
		PerCompleted: cfg.Credits.RewardPerReferral,
	}, logger.With().Str("component", "accounts").Logger())
	ps := projects.New(st, cfg.Editor.ProjectCacheSize, acc, logger.With().Str("component", "projects").Logger())

	svc := server.Services{
		Accounts: acc,
		Credits:  cs,
		Projects: ps,
		Editor: editor.NewManager(ps, cs, nil, editor.Config{
			Latency:          cfg.Editor.Latency,
			AutosaveQuiet:    cfg.Editor.AutosaveQuiet,
			SaveTimeout:      cfg.Editor.SaveTimeout,
			FlushConcurrency: cfg.Editor.FlushConcurrency,
		}, logger.With().Str("component", "editor").Logger()),
		Support: support.New(st, logger.With().Str("component", "support").Logger()),
	}
	if cfg.RateLimit.Enabled {
		svc.Limiter = ratelimit.New(st, ratelimit.Config{
			Window:      cfg.RateLimit.Window,
			MaxRequests: cfg.RateLimit.MaxRequests,
		})
	}
	if cfg.Editor.ThrottlePerMinute > 0 {
		svc.Throttle = ratelimit.NewThrottle(cfg.Editor.ThrottlePerMinute, cfg.Editor.ThrottleBurst, 10*time.Minute)
	}

	return &app{cfg: cfg, logger: logger, store: st, svc: svc}, nil
}

// Close releases the database
func (a *app) Close() error {
	return a.store.Close()
}

// requireUser returns the --user flag or an error when it is unset
func requireUser() (string, error) {
	if userID == "" {
		return "", errors.New("no user: pass --user or set WEBFORGE_USER")
	}
	return userID, nil
}
