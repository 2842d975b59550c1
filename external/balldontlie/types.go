package balldontlie

import "github.com/riskibarqy/draft-combine-pipeline/internal/domain/playerstat"

type statsEnvelope struct {
	Data []statItem `json:"data"`
	Meta statsMeta  `json:"meta"`
}

type statsMeta struct {
	NextCursor playerstat.Scalar `json:"next_cursor"`
	PerPage    int               `json:"per_page"`
}

// statItem accepts both the nested provider shape and an already flat export.
// Flat fields take precedence over nested ones.
type statItem struct {
	ID        playerstat.Scalar `json:"id"`
	PlayerID  playerstat.Scalar `json:"player_id"`
	FirstName *string           `json:"first_name"`
	LastName  *string           `json:"last_name"`
	GameID    playerstat.Scalar `json:"game_id"`
	GameDate  playerstat.Scalar `json:"game_date"`
	TeamID    playerstat.Scalar `json:"team_id"`
	PTS       playerstat.Scalar `json:"pts"`
	REB       playerstat.Scalar `json:"reb"`
	AST       playerstat.Scalar `json:"ast"`
	MIN       playerstat.Scalar `json:"min"`

	Player *playerRef `json:"player"`
	Game   *gameRef   `json:"game"`
	Team   *teamRef   `json:"team"`
}

type playerRef struct {
	ID        playerstat.Scalar `json:"id"`
	FirstName *string           `json:"first_name"`
	LastName  *string           `json:"last_name"`
}

type gameRef struct {
	ID   playerstat.Scalar `json:"id"`
	Date playerstat.Scalar `json:"date"`
}

type teamRef struct {
	ID playerstat.Scalar `json:"id"`
}
