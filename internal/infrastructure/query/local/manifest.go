package local

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/blob"
	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/joined"
	"github.com/riskibarqy/draft-combine-pipeline/internal/usecase"
)

// TableManifest registers the curated partitions as one logical table.
type TableManifest struct {
	Table      string      `json:"table"`
	Format     string      `json:"format"`
	Columns    []string    `json:"columns"`
	Partitions []Partition `json:"partitions"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

type Partition struct {
	Season int    `json:"season"`
	Key    string `json:"key"`
	Rows   int    `json:"rows"`
}

func ReadManifest(ctx context.Context, store blob.Store, key string) (TableManifest, bool, error) {
	body, err := store.Get(ctx, key)
	if errors.Is(err, blob.ErrNotFound) {
		return TableManifest{}, false, nil
	}
	if err != nil {
		return TableManifest{}, false, fmt.Errorf("read table manifest key=%s: %w", key, err)
	}
	var manifest TableManifest
	if err := sonic.Unmarshal(body, &manifest); err != nil {
		return TableManifest{}, false, fmt.Errorf("decode table manifest key=%s: %w", key, err)
	}
	return manifest, true, nil
}

// mergeManifest replaces the partitions of the rewritten seasons and keeps the rest.
func mergeManifest(existing TableManifest, plan usecase.JoinPlan, seasons []usecase.SeasonResult, now time.Time) TableManifest {
	bySeason := make(map[int]Partition, len(existing.Partitions)+len(seasons))
	for _, p := range existing.Partitions {
		bySeason[p.Season] = p
	}
	for _, s := range seasons {
		bySeason[s.Season] = Partition{Season: s.Season, Key: s.Key, Rows: s.JoinedRows}
	}

	out := TableManifest{
		Table:      plan.TableName,
		Format:     "parquet",
		Columns:    append([]string(nil), joined.Columns...),
		Partitions: make([]Partition, 0, len(bySeason)),
		UpdatedAt:  now.UTC(),
	}
	for _, p := range bySeason {
		out.Partitions = append(out.Partitions, p)
	}
	sort.Slice(out.Partitions, func(i, j int) bool { return out.Partitions[i].Season < out.Partitions[j].Season })
	return out
}

// UpdateManifest merges the rewritten seasons into the manifest stored at the plan's manifest key.
func UpdateManifest(ctx context.Context, store blob.Store, plan usecase.JoinPlan, seasons []usecase.SeasonResult, now time.Time) error {
	existing, _, err := ReadManifest(ctx, store, plan.ManifestKey())
	if err != nil {
		return err
	}
	return writeManifest(ctx, store, plan.ManifestKey(), mergeManifest(existing, plan, seasons, now))
}

func writeManifest(ctx context.Context, store blob.Store, key string, manifest TableManifest) error {
	body, err := sonic.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("encode table manifest: %w", err)
	}
	if err := store.Put(ctx, key, body, "application/json"); err != nil {
		return fmt.Errorf("write table manifest key=%s: %w", key, err)
	}
	return nil
}
