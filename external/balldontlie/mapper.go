package balldontlie

import (
	"strings"

	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/playerstat"
	"github.com/riskibarqy/draft-combine-pipeline/internal/usecase"
)

func mapStatsPage(env statsEnvelope) usecase.StatsPage {
	records := make([]playerstat.RawRecord, 0, len(env.Data))
	for _, item := range env.Data {
		records = append(records, mapStatItem(item))
	}
	return usecase.StatsPage{Records: records, NextCursor: mapCursor(env.Meta.NextCursor)}
}

func mapStatItem(item statItem) playerstat.RawRecord {
	out := playerstat.RawRecord{
		PlayerID:  item.PlayerID,
		FirstName: item.FirstName,
		LastName:  item.LastName,
		GameID:    item.GameID,
		GameDate:  item.GameDate,
		TeamID:    item.TeamID,
		PTS:       item.PTS,
		REB:       item.REB,
		AST:       item.AST,
		MIN:       item.MIN,
	}
	if p := item.Player; p != nil {
		out.PlayerID = firstScalar(out.PlayerID, p.ID)
		if out.FirstName == nil {
			out.FirstName = p.FirstName
		}
		if out.LastName == nil {
			out.LastName = p.LastName
		}
	}
	if g := item.Game; g != nil {
		out.GameID = firstScalar(out.GameID, g.ID)
		out.GameDate = firstScalar(out.GameDate, g.Date)
	}
	if t := item.Team; t != nil {
		out.TeamID = firstScalar(out.TeamID, t.ID)
	}
	return out
}

func mapCursor(raw playerstat.Scalar) *string {
	text, ok := raw.Text()
	if !ok {
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return &text
}

func firstScalar(values ...playerstat.Scalar) playerstat.Scalar {
	for _, v := range values {
		if !v.IsNull() {
			return v
		}
	}
	return nil
}
