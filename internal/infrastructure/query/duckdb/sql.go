package duckdb

import (
	"fmt"
	"strings"

	qb "github.com/riskibarqy/draft-combine-pipeline/internal/platform/querybuilder"
)

// rawColumns mirrors the JSON Lines page schema; every value is read as text and cast later.
var rawColumns = []string{
	"game_date", "game_id", "player_id", "player_first_name", "player_last_name",
	"player_name_display", "player_name_key", "team_id", "pts", "reb", "ast", "min",
}

func statsSource(glob string, hasPages bool) string {
	if !hasPages {
		cols := make([]string, len(rawColumns))
		for i, c := range rawColumns {
			cols[i] = "CAST(NULL AS VARCHAR) AS " + c
		}
		return "(SELECT " + strings.Join(cols, ", ") + " WHERE false)"
	}
	types := make([]string, len(rawColumns))
	for i, c := range rawColumns {
		types[i] = qb.Quote(c) + ": 'VARCHAR'"
	}
	return fmt.Sprintf("read_json(%s, format = 'newline_delimited', columns = {%s})", qb.Quote(glob), strings.Join(types, ", "))
}

func combineSource(uri string) string {
	return fmt.Sprintf("read_csv(%s, header = true, all_varchar = true)", qb.Quote(uri))
}

// combineKeyExpr canonicalises free-text names exactly like combine.JoinKey.
const combineKeyExpr = `CASE
	WHEN n IS NULL OR n = '' THEN NULL
	WHEN strpos(n, ',') > 0 THEN lower(trim(n))
	WHEN strpos(n, ' ') > 0 THEN lower(trim(substr(n, strpos(n, ' ') + 1) || ', ' || substr(n, 1, strpos(n, ' ') - 1)))
	ELSE lower(trim(n))
END`

func intCast(col string) string {
	return fmt.Sprintf("CASE WHEN TRY_CAST(%[1]s AS DOUBLE) = floor(TRY_CAST(%[1]s AS DOUBLE)) THEN CAST(TRY_CAST(%[1]s AS DOUBLE) AS BIGINT) END", col)
}

func floatCast(col string) string {
	return fmt.Sprintf("TRY_CAST(%s AS DOUBLE)", col)
}

const minutesCast = `CASE
	WHEN strpos(min, ':') > 0 THEN
		CASE WHEN TRY_CAST(split_part(min, ':', 2) AS DOUBLE) >= 0 AND TRY_CAST(split_part(min, ':', 2) AS DOUBLE) < 60
			THEN TRY_CAST(split_part(min, ':', 1) AS DOUBLE) + TRY_CAST(split_part(min, ':', 2) AS DOUBLE) / 60 END
	ELSE TRY_CAST(min AS DOUBLE)
END`

const dateCast = `strftime(TRY_STRPTIME(substr(game_date, 1, 10), '%Y-%m-%d'), '%Y-%m-%d')`

// castOK is false when any non-null source value failed its cast; such rows are excluded.
const castOK = `(game_date IS NULL OR game_date_c IS NOT NULL)
	AND (game_id IS NULL OR game_id_c IS NOT NULL)
	AND (player_id IS NULL OR player_id_c IS NOT NULL)
	AND (team_id IS NULL OR team_id_c IS NOT NULL)
	AND (pts IS NULL OR pts_c IS NOT NULL)
	AND (reb IS NULL OR reb_c IS NOT NULL)
	AND (ast IS NULL OR ast_c IS NOT NULL)
	AND (min IS NULL OR min_c IS NOT NULL)`

type seasonSQL struct {
	season     int
	rawGlob    string
	hasPages   bool
	combineURI string
}

func (s seasonSQL) withCTEs(final *qb.SelectBuilder) *qb.SelectBuilder {
	stats := qb.Select(rawColumns...).From(statsSource(s.rawGlob, s.hasPages))

	casted := qb.Select(
		"*",
		dateCast+" AS game_date_c",
		intCast("game_id")+" AS game_id_c",
		intCast("player_id")+" AS player_id_c",
		intCast("team_id")+" AS team_id_c",
		floatCast("pts")+" AS pts_c",
		floatCast("reb")+" AS reb_c",
		floatCast("ast")+" AS ast_c",
		minutesCast+" AS min_c",
	).From("stats").Where(qb.IsNotNull("player_name_key"))
	checked := qb.Select("*", castOK+" AS cast_ok").From("casted")

	named := qb.Select("*", `regexp_replace(trim(player), '\s+', ' ', 'g') AS n`).From(combineSource(s.combineURI))
	keyed := qb.Select("*", combineKeyExpr+" AS combine_key", "row_number() OVER () AS src_row").From("combine_named")
	deduped := qb.Select("*").From("combine_keyed").Where(
		qb.IsNotNull("combine_key"),
		qb.Expr("src_row = (SELECT min(k.src_row) FROM combine_keyed k WHERE k.combine_key = combine_keyed.combine_key)"),
	)

	return final.
		With("stats", stats).
		With("casted", casted).
		With("checked", checked).
		With("combine_named", named).
		With("combine_keyed", keyed).
		With("combine", deduped)
}

func joinOn() qb.Condition {
	return qb.Expr("s.player_name_key = c.combine_key")
}

// joinedSQL selects the output rows in the joined.Row column order.
func (s seasonSQL) joinedSQL() (string, error) {
	final := qb.Select(
		fmt.Sprintf("CAST(%d AS BIGINT) AS season", s.season),
		"s.game_date_c AS game_date",
		"s.game_id_c AS game_id",
		"s.player_id_c AS player_id",
		"s.player_first_name",
		"s.player_last_name",
		"s.player_name_display",
		"s.player_name_key",
		"s.team_id_c AS team_id",
		"s.pts_c AS pts",
		"s.reb_c AS reb",
		"s.ast_c AS ast",
		"s.min_c AS min",
		"trim(c.player) AS combine_player",
		intCast("c.year")+" AS combine_year",
		"NULLIF(trim(c.pos), '') AS pos",
		floatCast("c.hgt")+" AS hgt",
		floatCast("c.wngspn")+" AS wngspn",
		floatCast("c.wgt")+" AS wgt",
		floatCast("c.bmi")+" AS bmi",
		floatCast("c.bf")+" AS bf",
	).From("checked s").Join("combine c", joinOn()).Where(qb.Expr("s.cast_ok")).
		OrderBy("s.game_date_c", "s.game_id_c", "s.player_id_c")
	return render(s.withCTEs(final))
}

func (s seasonSQL) countsSQL() (string, error) {
	final := qb.Select(
		"count(*) FILTER (WHERE s.cast_ok) AS joined_rows",
		"count(*) FILTER (WHERE NOT s.cast_ok) AS excluded_rows",
		"(SELECT count(*) FROM stats WHERE player_name_key IS NULL) AS unkeyed_rows",
	).From("checked s").Join("combine c", joinOn())
	return render(s.withCTEs(final))
}

func copySQL(query, dest string) string {
	return "COPY (" + query + ") TO " + qb.Quote(dest) + " (FORMAT PARQUET, COMPRESSION SNAPPY)"
}

func viewSQL(table, glob string) string {
	return "CREATE OR REPLACE VIEW " + qb.QuoteIdent(table) + " AS SELECT * FROM read_parquet(" + qb.Quote(glob) + ", union_by_name = true)"
}

func render(b *qb.SelectBuilder) (string, error) {
	query, args, err := b.ToSQL()
	if err != nil {
		return "", err
	}
	if len(args) > 0 {
		return "", fmt.Errorf("duckdb plan must not bind parameters")
	}
	return query, nil
}

func secretSQL(s S3Secret) (string, error) {
	if s.KeyID == "" || s.Secret == "" {
		return "", fmt.Errorf("duckdb s3 secret needs key id and secret")
	}
	urlStyle := s.URLStyle
	if urlStyle == "" {
		urlStyle = "path"
	}
	endpoint := strings.TrimPrefix(strings.TrimPrefix(s.Endpoint, "https://"), "http://")
	parts := []string{
		"TYPE S3",
		"KEY_ID " + qb.Quote(s.KeyID),
		"SECRET " + qb.Quote(s.Secret),
		"URL_STYLE " + qb.Quote(urlStyle),
		fmt.Sprintf("USE_SSL %t", s.UseSSL),
	}
	if s.Region != "" {
		parts = append(parts, "REGION "+qb.Quote(s.Region))
	}
	if endpoint != "" {
		parts = append(parts, "ENDPOINT "+qb.Quote(endpoint))
	}
	return "CREATE OR REPLACE SECRET pipeline_s3 (" + strings.Join(parts, ", ") + ")", nil
}
