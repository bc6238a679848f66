package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"narrativedetect/internal/connectors"
	"narrativedetect/internal/pipeline/aliaspack"
	"narrativedetect/internal/pipeline/model"
	"narrativedetect/internal/pipeline/orchestrator"
	"narrativedetect/internal/platform/config"
	"narrativedetect/internal/platform/logger"
	"narrativedetect/internal/platform/store/ch"
	"narrativedetect/internal/platform/store/pg"
)

func main() {
	root := config.New()
	pgCfg := root.Prefix("NARRATIVE_PGSQL_")
	chCfg := root.Prefix("NARRATIVE_CLICKHOUSE_")
	l := logger.Get()

	var (
		startStr     = flag.String("start", "", "inclusive window start, RFC3339")
		endStr       = flag.String("end", "", "inclusive window end, RFC3339")
		baselineDays = flag.Int("baseline-days", 7, "lookback window (days) for the velocity baseline")
		workers      = flag.Int("workers", 4, "pairwise-similarity and scoring fan-out")
		fixturesPath = flag.String("fixtures", "", "path to a JSON file of []model.SignalEvent; skips live connectors/ClickHouse read")
		runID        = flag.String("run-id", "", "run identifier; defaults to the window's start timestamp")
	)
	flag.Parse()

	if *startStr == "" || *endStr == "" {
		log.Fatal("start/end are required (RFC3339)")
	}
	start, err := time.Parse(time.RFC3339, *startStr)
	if err != nil {
		log.Fatalf("bad -start: %v", err)
	}
	end, err := time.Parse(time.RFC3339, *endStr)
	if err != nil {
		log.Fatalf("bad -end: %v", err)
	}
	if !start.Before(end) {
		log.Fatal("start must be < end")
	}
	window := model.Window{Start: start.UTC(), End: end.UTC()}
	baseline := model.Window{
		Start: start.UTC().Add(-time.Duration(*baselineDays) * 24 * time.Hour),
		End:   start.UTC(),
	}

	id := *runID
	if id == "" {
		id = fmt.Sprintf("run-%s", start.UTC().Format("20060102T150405Z"))
	}

	cfg, events, baselineEvents := loadConfigAndEvents(context.Background(), l, pgCfg, chCfg, *fixturesPath, window, baseline)
	cfg.Workers = *workers

	rc := model.RunContext{
		RunID:       id,
		GeneratedAt: time.Now().UTC(),
		Window:      window,
		Baseline:    baseline,
	}

	artifact, err := orchestrator.Run(context.Background(), events, baselineEvents, cfg, rc)
	if err != nil {
		l.Fatal().Err(err).Msg("pipeline run failed")
	}

	persistArtifact(context.Background(), l, pgCfg, chCfg, *fixturesPath, artifact)

	fmt.Printf("run %s: ingested=%d after_dedup=%d candidates=%d ranked=%d\n",
		artifact.RunID, artifact.Totals.Ingested, artifact.Totals.AfterDedup,
		artifact.Totals.Candidates, artifact.Totals.Ranked)
	for _, n := range artifact.Narratives {
		fmt.Printf("  [%.2f/%s] %s (%d members)\n", n.Score, n.ConfidenceTier, n.Label, len(n.Members))
	}
}

func loadConfigAndEvents(ctx context.Context, l *logger.Logger, pgCfg, chCfg config.Conf, fixturesPath string, window, baseline model.Window) (model.Config, []model.SignalEvent, []model.SignalEvent) {
	aliases, cfg, err := aliaspack.Load()
	if err != nil {
		l.Fatal().Err(err).Msg("aliaspack.Load failed")
	}
	cfg.Aliases = aliases

	if fixturesPath != "" {
		events := readFixtures(fixturesPath)
		conn := connectors.FixtureConnector{Events: events}
		windowEvents, _ := conn.Fetch(ctx, window)
		baselineEvents, _ := conn.Fetch(ctx, baseline)
		return cfg, windowEvents, baselineEvents
	}

	p, err := pg.Open(ctx, pg.Config{
		URL:      pgCfg.MustString("DBURL"),
		MaxConns: int32(pgCfg.MayInt("MAX_CONNS", 4)),
	}, nil, nil)
	if err != nil {
		l.Fatal().Err(err).Msg("pg.Open failed")
	}
	defer p.Close()

	if overrides, err := p.AliasOverrides(ctx); err != nil {
		l.Warn().Err(err).Msg("alias_overrides lookup failed, using embedded defaults only")
	} else if overrides != nil {
		cfg.Aliases = cfg.Aliases.Merge(overrides)
	}

	c, err := ch.Open(ctx, ch.Config{
		Addr:     chCfg.MayCSV("ADDR", []string{"localhost:9000"}),
		Database: chCfg.MayString("DATABASE", "default"),
		Username: chCfg.MayString("USERNAME", "default"),
		Password: chCfg.MayString("PASSWORD", ""),
		Role:     "narrative-detect",
	})
	if err != nil {
		l.Fatal().Err(err).Msg("ch.Open failed")
	}
	defer c.Close()

	windowEvents, err := c.WindowEvents(ctx, window)
	if err != nil {
		l.Fatal().Err(err).Msg("loading window events failed")
	}
	baselineEvents, err := c.BaselineEvents(ctx, baseline)
	if err != nil {
		l.Fatal().Err(err).Msg("loading baseline events failed")
	}
	return cfg, windowEvents, baselineEvents
}

func persistArtifact(ctx context.Context, l *logger.Logger, pgCfg, chCfg config.Conf, fixturesPath string, artifact model.RunArtifact) {
	if fixturesPath != "" {
		return // no live store configured; nothing to persist against
	}

	p, err := pg.Open(ctx, pg.Config{URL: pgCfg.MustString("DBURL")}, nil, nil)
	if err != nil {
		l.Error().Err(err).Msg("pg.Open for persistence failed")
		return
	}
	defer p.Close()
	if err := p.InsertRun(ctx, artifact); err != nil {
		l.Error().Err(err).Msg("InsertRun failed")
	}

	c, err := ch.Open(ctx, ch.Config{
		Addr:     chCfg.MayCSV("ADDR", []string{"localhost:9000"}),
		Database: chCfg.MayString("DATABASE", "default"),
		Role:     "narrative-detect",
	})
	if err != nil {
		l.Error().Err(err).Msg("ch.Open for persistence failed")
		return
	}
	defer c.Close()
	if err := c.InsertSignalEvents(ctx, artifact.RunID, artifact.NormalizedEvents); err != nil {
		l.Error().Err(err).Msg("InsertSignalEvents failed")
	}
	if err := c.InsertRankedNarratives(ctx, artifact.RunID, artifact.GeneratedAt, artifact.Narratives); err != nil {
		l.Error().Err(err).Msg("InsertRankedNarratives failed")
	}
}

func readFixtures(path string) []model.SignalEvent {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("reading fixtures: %v", err)
	}
	var events []model.SignalEvent
	if err := json.Unmarshal(data, &events); err != nil {
		log.Fatalf("parsing fixtures: %v", err)
	}
	return events
}
