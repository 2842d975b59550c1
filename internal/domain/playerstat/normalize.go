package playerstat

import "strings"

// Normalize maps a raw record onto the persisted row shape. It never fails.
// The display name is "{last}, {first}" and only exists when both names are present;
// the join key is its trimmed lowercase form.
func Normalize(raw RawRecord) Row {
	row := Row{
		GameDate:        raw.GameDate,
		GameID:          raw.GameID,
		PlayerID:        raw.PlayerID,
		PlayerFirstName: raw.FirstName,
		PlayerLastName:  raw.LastName,
		TeamID:          raw.TeamID,
		PTS:             raw.PTS,
		REB:             raw.REB,
		AST:             raw.AST,
		MIN:             raw.MIN,
	}

	if present(raw.FirstName) && present(raw.LastName) {
		display := *raw.LastName + ", " + *raw.FirstName
		key := NameKey(display)
		row.PlayerNameDisplay = &display
		row.PlayerNameKey = &key
	}
	return row
}

func NormalizeAll(raws []RawRecord) []Row {
	out := make([]Row, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Normalize(raw))
	}
	return out
}

// NameKey is the exact-match join key contract shared by both sources.
func NameKey(display string) string {
	return strings.ToLower(strings.TrimSpace(display))
}

// present treats empty and whitespace-only names like null ones.
func present(v *string) bool {
	return v != nil && strings.TrimSpace(*v) != ""
}
