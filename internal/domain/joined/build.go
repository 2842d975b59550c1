package joined

import (
	"fmt"

	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/combine"
	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/playerstat"
)

// Build casts one matched pair into an output row. Any failed cast excludes the pair.
func Build(season int, stat playerstat.Row, cmb combine.Row) (Row, error) {
	if stat.PlayerNameKey == nil {
		return Row{}, fmt.Errorf("%w: stats row has no name key", ErrCast)
	}
	out := Row{
		Season:            int64(season),
		PlayerFirstName:   stat.PlayerFirstName,
		PlayerLastName:    stat.PlayerLastName,
		PlayerNameDisplay: stat.PlayerNameDisplay,
		PlayerNameKey:     *stat.PlayerNameKey,
		CombinePlayer:     cmb.Player,
		CombineYear:       cmb.Year,
		Pos:               cmb.Pos,
		Hgt:               cmb.Hgt,
		Wngspn:            cmb.Wngspn,
		Wgt:               cmb.Wgt,
		Bmi:               cmb.Bmi,
		Bf:                cmb.Bf,
	}

	var err error
	if out.GameDate, err = CastDate(stat.GameDate); err != nil {
		return Row{}, fmt.Errorf("game_date: %w", err)
	}
	ints := []struct {
		name string
		src  playerstat.Scalar
		dst  **int64
	}{
		{"game_id", stat.GameID, &out.GameID},
		{"player_id", stat.PlayerID, &out.PlayerID},
		{"team_id", stat.TeamID, &out.TeamID},
	}
	for _, f := range ints {
		if *f.dst, err = CastInt(f.src); err != nil {
			return Row{}, fmt.Errorf("%s: %w", f.name, err)
		}
	}
	floats := []struct {
		name string
		src  playerstat.Scalar
		dst  **float64
	}{
		{"pts", stat.PTS, &out.PTS},
		{"reb", stat.REB, &out.REB},
		{"ast", stat.AST, &out.AST},
	}
	for _, f := range floats {
		if *f.dst, err = CastFloat(f.src); err != nil {
			return Row{}, fmt.Errorf("%s: %w", f.name, err)
		}
	}
	if out.MIN, err = CastMinutes(stat.MIN); err != nil {
		return Row{}, fmt.Errorf("min: %w", err)
	}
	return out, nil
}
