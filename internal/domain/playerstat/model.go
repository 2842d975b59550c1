package playerstat

// RawRecord is one provider player-game observation after envelope flattening.
// Names are nil when the provider omitted them or sent null.
type RawRecord struct {
	PlayerID  Scalar
	FirstName *string
	LastName  *string
	GameID    Scalar
	GameDate  Scalar
	TeamID    Scalar
	PTS       Scalar
	REB       Scalar
	AST       Scalar
	MIN       Scalar
}

// Row is the persisted unit, one JSON object per line in a page file.
type Row struct {
	GameDate          Scalar  `json:"game_date"`
	GameID            Scalar  `json:"game_id"`
	PlayerID          Scalar  `json:"player_id"`
	PlayerFirstName   *string `json:"player_first_name"`
	PlayerLastName    *string `json:"player_last_name"`
	PlayerNameDisplay *string `json:"player_name_display"`
	PlayerNameKey     *string `json:"player_name_key"`
	TeamID            Scalar  `json:"team_id"`
	PTS               Scalar  `json:"pts"`
	REB               Scalar  `json:"reb"`
	AST               Scalar  `json:"ast"`
	MIN               Scalar  `json:"min"`
}

func (r Row) Joinable() bool {
	return r.PlayerNameKey != nil
}
