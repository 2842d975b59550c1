package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/blob"
	"github.com/riskibarqy/draft-combine-pipeline/internal/infrastructure/query/local"
	"github.com/riskibarqy/draft-combine-pipeline/internal/platform/logging"
	"github.com/riskibarqy/draft-combine-pipeline/internal/usecase"
)

// S3Secret configures httpfs when the data lives in an S3-compatible bucket.
type S3Secret struct {
	KeyID    string
	Secret   string
	Region   string
	Endpoint string
	URLStyle string
	UseSSL   bool
}

type EngineConfig struct {
	// Path of the DuckDB catalog file; empty keeps the catalog in memory.
	Path string
	// BaseURI is the location the object store keys are resolved against:
	// a local directory or s3://bucket.
	BaseURI string
	S3      *S3Secret
	Now     func() time.Time
	Logger  *logging.Logger
}

// Engine pushes the join down into DuckDB, reading the raw pages and combine export
// where the object store keeps them and writing one Parquet file per season.
type Engine struct {
	db      *sql.DB
	store   blob.Store
	pages   usecase.PageStore
	baseURI string
	local   bool
	now     func() time.Time
	logger  *logging.Logger
}

func Open(ctx context.Context, store blob.Store, pages usecase.PageStore, cfg EngineConfig) (*Engine, error) {
	baseURI := strings.TrimRight(strings.TrimSpace(cfg.BaseURI), "/")
	if baseURI == "" {
		return nil, fmt.Errorf("duckdb base uri is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	db, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, crerr.Wrap(err, "open duckdb")
	}
	db.SetMaxOpenConns(1)

	e := &Engine{
		db:      db,
		store:   store,
		pages:   pages,
		baseURI: baseURI,
		local:   !strings.Contains(baseURI, "://"),
		now:     now,
		logger:  logger,
	}
	if err := e.bootstrap(ctx, cfg.S3); err != nil {
		_ = db.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) Close() error {
	return e.db.Close()
}

func (e *Engine) bootstrap(ctx context.Context, secret *S3Secret) error {
	if e.local {
		return nil
	}
	for _, stmt := range []string{"INSTALL httpfs", "LOAD httpfs"} {
		if _, err := e.db.ExecContext(ctx, stmt); err != nil {
			return crerr.Wrapf(err, "duckdb %s", strings.ToLower(stmt))
		}
	}
	if secret == nil {
		return nil
	}
	stmt, err := secretSQL(*secret)
	if err != nil {
		return err
	}
	if _, err := e.db.ExecContext(ctx, stmt); err != nil {
		return crerr.Wrap(err, "create duckdb s3 secret")
	}
	return nil
}

func (e *Engine) uri(key string) string {
	key = strings.TrimPrefix(key, "/")
	if e.local {
		return filepath.ToSlash(filepath.Join(e.baseURI, filepath.FromSlash(key)))
	}
	return e.baseURI + "/" + key
}

func (e *Engine) Materialize(ctx context.Context, plan usecase.JoinPlan) (usecase.JoinResult, error) {
	if err := plan.Validate(); err != nil {
		return usecase.JoinResult{}, err
	}

	result := usecase.JoinResult{Table: plan.TableName, Seasons: make([]usecase.SeasonResult, 0, len(plan.Seasons))}
	for _, season := range plan.Seasons {
		seasonResult, err := e.materializeSeason(ctx, plan, season)
		if err != nil {
			return usecase.JoinResult{}, fmt.Errorf("season=%d: %w", season, err)
		}
		result.Seasons = append(result.Seasons, seasonResult)
	}

	glob := e.uri(path.Join(plan.CuratedPrefix, "season=*", "*.parquet"))
	if _, err := e.db.ExecContext(ctx, viewSQL(plan.TableName, glob)); err != nil {
		return usecase.JoinResult{}, crerr.Wrapf(err, "register view %s", plan.TableName)
	}
	if err := local.UpdateManifest(ctx, e.store, plan, result.Seasons, e.now()); err != nil {
		return usecase.JoinResult{}, err
	}
	return result, nil
}

func (e *Engine) materializeSeason(ctx context.Context, plan usecase.JoinPlan, season int) (usecase.SeasonResult, error) {
	refs, err := e.pages.ListPages(ctx, season)
	if err != nil {
		return usecase.SeasonResult{}, err
	}
	q := seasonSQL{
		season:     season,
		rawGlob:    e.uri(path.Join(plan.RawPrefix, fmt.Sprintf("season=%d", season), "*", "*.jsonl")),
		hasPages:   len(refs) > 0,
		combineURI: e.uri(plan.CombineKey),
	}
	out := usecase.SeasonResult{Season: season, Key: plan.PartitionKey(season)}

	countQuery, err := q.countsSQL()
	if err != nil {
		return usecase.SeasonResult{}, err
	}
	if err := e.db.QueryRowContext(ctx, countQuery).Scan(&out.JoinedRows, &out.ExcludedRows, &out.UnkeyedRows); err != nil {
		return usecase.SeasonResult{}, crerr.Wrap(err, "count joined rows")
	}

	joinedQuery, err := q.joinedSQL()
	if err != nil {
		return usecase.SeasonResult{}, err
	}
	dest := e.uri(out.Key)
	if e.local {
		if err := os.MkdirAll(filepath.Dir(filepath.FromSlash(dest)), 0o755); err != nil {
			return usecase.SeasonResult{}, fmt.Errorf("create partition dir: %w", err)
		}
	}
	if _, err := e.db.ExecContext(ctx, copySQL(joinedQuery, dest)); err != nil {
		return usecase.SeasonResult{}, crerr.Wrapf(err, "copy partition to %s", dest)
	}
	e.logger.DebugContext(ctx, "duckdb partition written", "season", season, "dest", dest, "pages", len(refs))
	return out, nil
}
