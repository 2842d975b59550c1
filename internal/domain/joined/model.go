package joined

// Row is one materialized output line: a stats row matched to its combine measurements.
type Row struct {
	Season            int64    `parquet:"season" json:"season"`
	GameDate          *string  `parquet:"game_date,optional" json:"game_date"`
	GameID            *int64   `parquet:"game_id,optional" json:"game_id"`
	PlayerID          *int64   `parquet:"player_id,optional" json:"player_id"`
	PlayerFirstName   *string  `parquet:"player_first_name,optional" json:"player_first_name"`
	PlayerLastName    *string  `parquet:"player_last_name,optional" json:"player_last_name"`
	PlayerNameDisplay *string  `parquet:"player_name_display,optional" json:"player_name_display"`
	PlayerNameKey     string   `parquet:"player_name_key" json:"player_name_key"`
	TeamID            *int64   `parquet:"team_id,optional" json:"team_id"`
	PTS               *float64 `parquet:"pts,optional" json:"pts"`
	REB               *float64 `parquet:"reb,optional" json:"reb"`
	AST               *float64 `parquet:"ast,optional" json:"ast"`
	MIN               *float64 `parquet:"min,optional" json:"min"`
	CombinePlayer     string   `parquet:"combine_player" json:"combine_player"`
	CombineYear       *int64   `parquet:"combine_year,optional" json:"combine_year"`
	Pos               *string  `parquet:"pos,optional" json:"pos"`
	Hgt               *float64 `parquet:"hgt,optional" json:"hgt"`
	Wngspn            *float64 `parquet:"wngspn,optional" json:"wngspn"`
	Wgt               *float64 `parquet:"wgt,optional" json:"wgt"`
	Bmi               *float64 `parquet:"bmi,optional" json:"bmi"`
	Bf                *float64 `parquet:"bf,optional" json:"bf"`
}

// Columns lists the output schema in file order.
var Columns = []string{
	"season", "game_date", "game_id", "player_id", "player_first_name", "player_last_name",
	"player_name_display", "player_name_key", "team_id", "pts", "reb", "ast", "min",
	"combine_player", "combine_year", "pos", "hgt", "wngspn", "wgt", "bmi", "bf",
}
