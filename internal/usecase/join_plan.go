package usecase

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
)

const (
	curatedPartFile  = "part-00000.parquet"
	tableManifestKey = "_table.json"
)

// JoinPlan describes one season-scoped materialization of stats rows joined to combine rows.
type JoinPlan struct {
	Seasons       []int
	RawPrefix     string
	CombineKey    string
	CuratedPrefix string
	TableName     string
}

func (p JoinPlan) Validate() error {
	if len(p.Seasons) == 0 {
		return fmt.Errorf("%w: join plan needs at least one season", ErrInvalidInput)
	}
	for _, season := range p.Seasons {
		if season <= 0 {
			return fmt.Errorf("%w: season must be greater than zero", ErrInvalidInput)
		}
	}
	if strings.TrimSpace(p.CombineKey) == "" {
		return fmt.Errorf("%w: combine object key is required", ErrInvalidInput)
	}
	if strings.TrimSpace(p.CuratedPrefix) == "" {
		return fmt.Errorf("%w: curated prefix is required", ErrInvalidInput)
	}
	if strings.TrimSpace(p.TableName) == "" {
		return fmt.Errorf("%w: table name is required", ErrInvalidInput)
	}
	return nil
}

// PartitionPrefix is the directory holding the output of one season.
func (p JoinPlan) PartitionPrefix(season int) string {
	return path.Join(p.CuratedPrefix, fmt.Sprintf("season=%d", season))
}

// PartitionKey is the single part file written for a season.
func (p JoinPlan) PartitionKey(season int) string {
	return path.Join(p.PartitionPrefix(season), curatedPartFile)
}

func (p JoinPlan) ManifestKey() string {
	return path.Join(p.CuratedPrefix, tableManifestKey)
}

// SeasonResult counts one materialized partition. Excluded rows matched on key
// but failed a cast; Unkeyed rows had no name key and never join.
type SeasonResult struct {
	Season       int    `json:"season"`
	Key          string `json:"key"`
	JoinedRows   int    `json:"joined_rows"`
	ExcludedRows int    `json:"excluded_rows"`
	UnkeyedRows  int    `json:"unkeyed_rows"`
}

type JoinResult struct {
	Table   string         `json:"table"`
	Seasons []SeasonResult `json:"seasons"`
}

// JoinEngine executes a plan and registers the output as a queryable table.
type JoinEngine interface {
	Materialize(ctx context.Context, plan JoinPlan) (JoinResult, error)
}

func normalizeSeasons(seasons []int) []int {
	seen := make(map[int]struct{}, len(seasons))
	out := make([]int, 0, len(seasons))
	for _, s := range seasons {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}
