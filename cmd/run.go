package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tankyu/diary/internal/analysis"
	"github.com/tankyu/diary/internal/catalog"
	"github.com/tankyu/diary/internal/config"
	"github.com/tankyu/diary/internal/llm"
	"github.com/tankyu/diary/internal/logger"
	"github.com/tankyu/diary/internal/report"
	"github.com/tankyu/diary/internal/store"
	"github.com/tankyu/diary/internal/streak"
)

// deps is everything a command needs to work on reports.
type deps struct {
	cfg     config.Config
	log     *logger.Logger
	store   *store.Store
	catalog *catalog.Catalog
	reports *report.Service
	streaks *streak.Service
}

func (d *deps) Close() {
	d.store.Close()
	d.log.Sync()
}

// buildDeps opens the store, builds the oracle client, and wires the
// services.
func buildDeps(cmd *cobra.Command) (*deps, error) {
	ctx := cmd.Context()

	st, cfg, err := openStore(cmd)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init logger: %w", err)
	}

	provider, err := llm.NewProvider(ctx, cfg.LLM, st.EventRepo(), log)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init LLM provider: %w", err)
	}

	acfg := analysis.DefaultConfig()
	acfg.Timeout = cfg.LLM.Timeout
	acfg.FreeText = cfg.LLM.FreeText

	cat := catalog.New(st.Catalog())
	streaks := streak.NewService(st, log)
	an := analysis.NewAnalyzer(provider, cat, acfg, log)

	return &deps{
		cfg:     cfg,
		log:     log,
		store:   st,
		catalog: cat,
		reports: report.NewService(st, cat, an, streaks, log),
		streaks: streaks,
	}, nil
}
