package usecase

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/draft-combine-pipeline/internal/platform/logging"
)

type JoinConfig struct {
	RawPrefix     string
	CombineKey    string
	CuratedPrefix string
	TableName     string
	Logger        *logging.Logger
	Recorder      Recorder
}

// JoinService materializes the stats-to-combine join for a set of seasons.
type JoinService struct {
	engine   JoinEngine
	pages    PageStore
	base     JoinPlan
	logger   *logging.Logger
	recorder Recorder
}

type JoinInput struct {
	// Seasons limits re-materialization; empty means every season with ingested pages.
	Seasons []int `json:"seasons"`
}

func NewJoinService(engine JoinEngine, pages PageStore, cfg JoinConfig) *JoinService {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = NopRecorder()
	}
	return &JoinService{
		engine: engine,
		pages:  pages,
		base: JoinPlan{
			RawPrefix:     cfg.RawPrefix,
			CombineKey:    cfg.CombineKey,
			CuratedPrefix: cfg.CuratedPrefix,
			TableName:     cfg.TableName,
		},
		logger:   logger,
		recorder: recorder,
	}
}

func (s *JoinService) Plan(ctx context.Context, input JoinInput) (JoinPlan, error) {
	seasons := normalizeSeasons(input.Seasons)
	if len(seasons) == 0 {
		discovered, err := s.pages.Seasons(ctx)
		if err != nil {
			return JoinPlan{}, fmt.Errorf("discover ingested seasons: %w", err)
		}
		seasons = normalizeSeasons(discovered)
	}
	if len(seasons) == 0 {
		return JoinPlan{}, fmt.Errorf("%w: no ingested seasons to join", ErrNotFound)
	}

	plan := s.base
	plan.Seasons = seasons
	if err := plan.Validate(); err != nil {
		return JoinPlan{}, err
	}
	return plan, nil
}

func (s *JoinService) Materialize(ctx context.Context, input JoinInput) (JoinResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JoinService.Materialize")
	defer span.End()

	plan, err := s.Plan(ctx, input)
	if err != nil {
		recordSpanError(span, err)
		return JoinResult{}, err
	}
	span.SetAttributes(attribute.IntSlice("seasons", plan.Seasons))

	result, err := s.engine.Materialize(ctx, plan)
	if err != nil {
		recordSpanError(span, err)
		return JoinResult{}, fmt.Errorf("materialize join: %w", err)
	}

	for _, season := range result.Seasons {
		s.recorder.JoinMaterialized(season.Season, season.JoinedRows, season.ExcludedRows)
		s.logger.InfoContext(ctx, "season partition materialized",
			"season", season.Season,
			"key", season.Key,
			"joined_rows", season.JoinedRows,
			"excluded_rows", season.ExcludedRows,
			"unkeyed_rows", season.UnkeyedRows,
		)
	}
	return result, nil
}
