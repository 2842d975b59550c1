package duckdb

import (
	"strings"
	"testing"
)

func TestSeasonSQL_JoinedQuery(t *testing.T) {
	t.Parallel()

	q := seasonSQL{
		season:     2024,
		rawGlob:    "/data/raw/season=2024/*/*.jsonl",
		hasPages:   true,
		combineURI: "/data/reference/combine.csv",
	}
	query, err := q.joinedSQL()
	if err != nil {
		t.Fatalf("joined sql: %v", err)
	}

	for _, want := range []string{
		"WITH stats AS (SELECT game_date, game_id",
		"read_json('/data/raw/season=2024/*/*.jsonl', format = 'newline_delimited'",
		"'player_name_key': 'VARCHAR'",
		"read_csv('/data/reference/combine.csv', header = true, all_varchar = true)",
		"WHERE player_name_key IS NOT NULL",
		"JOIN combine c ON s.player_name_key = c.combine_key",
		"WHERE s.cast_ok",
		"CAST(2024 AS BIGINT) AS season",
		"ORDER BY s.game_date_c, s.game_id_c, s.player_id_c",
	} {
		if !strings.Contains(query, want) {
			t.Fatalf("expected %q in query:\n%s", want, query)
		}
	}
	if strings.Contains(query, "$1") {
		t.Fatalf("query must not bind parameters: %s", query)
	}
}

func TestSeasonSQL_EmptySeasonUsesTypedEmptySource(t *testing.T) {
	t.Parallel()

	query, err := seasonSQL{season: 2022, combineURI: "s3://bucket/combine.csv"}.countsSQL()
	if err != nil {
		t.Fatalf("counts sql: %v", err)
	}
	if strings.Contains(query, "read_json") {
		t.Fatalf("season without pages must not glob raw files: %s", query)
	}
	if !strings.Contains(query, "CAST(NULL AS VARCHAR) AS min WHERE false") {
		t.Fatalf("expected typed empty source: %s", query)
	}
	if !strings.Contains(query, "count(*) FILTER (WHERE NOT s.cast_ok) AS excluded_rows") {
		t.Fatalf("expected exclusion count: %s", query)
	}
}

func TestCopyAndViewSQL(t *testing.T) {
	t.Parallel()

	if got := copySQL("SELECT 1", "s3://b/curated/season=2024/part-00000.parquet"); got != "COPY (SELECT 1) TO 's3://b/curated/season=2024/part-00000.parquet' (FORMAT PARQUET, COMPRESSION SNAPPY)" {
		t.Fatalf("unexpected copy sql: %s", got)
	}
	if got := viewSQL("player_game_combine", "/d/curated/season=*/*.parquet"); got != `CREATE OR REPLACE VIEW "player_game_combine" AS SELECT * FROM read_parquet('/d/curated/season=*/*.parquet', union_by_name = true)` {
		t.Fatalf("unexpected view sql: %s", got)
	}
}

func TestSecretSQL(t *testing.T) {
	t.Parallel()

	got, err := secretSQL(S3Secret{KeyID: "minio", Secret: "it's", Endpoint: "http://localhost:9000"})
	if err != nil {
		t.Fatalf("secret sql: %v", err)
	}
	want := "CREATE OR REPLACE SECRET pipeline_s3 (TYPE S3, KEY_ID 'minio', SECRET 'it''s', URL_STYLE 'path', USE_SSL false, ENDPOINT 'localhost:9000')"
	if got != want {
		t.Fatalf("unexpected secret sql:\n got=%s\nwant=%s", got, want)
	}
	if _, err := secretSQL(S3Secret{}); err == nil {
		t.Fatalf("expected missing credentials to fail")
	}
}

func TestEngineURI(t *testing.T) {
	t.Parallel()

	local := &Engine{baseURI: "/data/lake", local: true}
	if got := local.uri("/raw/season=2024/x.jsonl"); got != "/data/lake/raw/season=2024/x.jsonl" {
		t.Fatalf("unexpected local uri: %s", got)
	}
	remote := &Engine{baseURI: "s3://lake"}
	if got := remote.uri("curated/_table.json"); got != "s3://lake/curated/_table.json" {
		t.Fatalf("unexpected remote uri: %s", got)
	}
}
