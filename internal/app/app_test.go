package app

import (
	"context"
	"testing"

	"github.com/riskibarqy/draft-combine-pipeline/internal/config"
	"github.com/riskibarqy/draft-combine-pipeline/internal/infrastructure/blobstore"
	"github.com/riskibarqy/draft-combine-pipeline/internal/platform/logging"
)

func TestNew_MemoryPipeline(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		StorageDriver:          config.StorageMemory,
		StorageRawPrefix:       "raw",
		StorageStatePrefix:     "state",
		JoinEngine:             config.JoinEngineLocal,
		JoinCombineKey:         "reference/combine.csv",
		JoinCuratedPrefix:      "curated",
		JoinTableName:          "player_game_combine",
		IngestWorkerCount:      2,
		IngestMaxPagesPerRun:   10,
		BallDontLiePerPage:     25,
		BallDontLieMaxAttempts: 8,
	}
	p, err := New(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	defer func() { _ = p.Close() }()

	if _, ok := p.Store.(*blobstore.MemoryStore); !ok {
		t.Fatalf("unexpected store type: %T", p.Store)
	}
	if p.Ingestion == nil || p.Batch == nil || p.Runs == nil {
		t.Fatalf("pipeline not fully wired: %+v", p)
	}
	if _, err := p.JoinService(context.Background()); err != nil {
		t.Fatalf("join service: %v", err)
	}
}

func TestDuckDBLocation(t *testing.T) {
	t.Parallel()

	fs, err := blobstore.NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("filesystem store: %v", err)
	}
	if base, secret := duckdbLocation(config.Config{}, fs); base != fs.Root() || secret != nil {
		t.Fatalf("unexpected filesystem location: base=%s secret=%v", base, secret)
	}

	cfg := config.Config{
		StorageDriver:    config.StorageMinio,
		StorageBucket:    "lake",
		StorageAccessKey: "minio",
		StorageSecretKey: "minio123",
		StorageEndpoint:  "localhost:9000",
	}
	base, secret := duckdbLocation(cfg, blobstore.NewMemoryStore())
	if base != "s3://lake" || secret == nil || secret.URLStyle != "path" {
		t.Fatalf("unexpected minio location: base=%s secret=%+v", base, secret)
	}
}
