package postgres

import (
	"strings"
	"testing"

	qb "github.com/riskibarqy/draft-combine-pipeline/internal/platform/querybuilder"
)

func TestRunUpsertQuery(t *testing.T) {
	t.Parallel()

	query, args, err := qb.Upsert(runsTable, runModel{ID: "run-1", Season: 2024}, "id")
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	if !strings.HasPrefix(query, "INSERT INTO ingestion_runs (id, season, start_date, end_date, reset, status,") {
		t.Fatalf("unexpected insert head: %s", query)
	}
	if !strings.Contains(query, "ON CONFLICT (id) DO UPDATE SET season = EXCLUDED.season") {
		t.Fatalf("unexpected conflict clause: %s", query)
	}
	if strings.Contains(query, "id = EXCLUDED.id") {
		t.Fatalf("conflict key must not be updated: %s", query)
	}
	if len(args) != 12 || args[0] != "run-1" {
		t.Fatalf("unexpected args: %v", args)
	}
}
