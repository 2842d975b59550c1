package combine

import (
	"context"
	"strings"
)

// Row is one pre-draft measurement line of the combine export.
// Measurements that did not parse are nil.
type Row struct {
	Player string
	Year   *int64
	Pos    *string
	Hgt    *float64
	Wngspn *float64
	Wgt    *float64
	Bmi    *float64
	Bf     *float64
}

// Key returns the join key for this row, or nil when the player field is blank.
func (r Row) Key() *string {
	return JoinKey(r.Player)
}

// JoinKey converts a free-text combine name into the "last, first" lowercase key the
// stats rows carry. Names already containing a comma are taken as "Last, First".
// Otherwise the text is split at the first space: "LeBron James" becomes "james, lebron".
func JoinKey(player string) *string {
	name := strings.Join(strings.Fields(player), " ")
	if name == "" {
		return nil
	}
	if !strings.Contains(name, ",") {
		if first, last, ok := strings.Cut(name, " "); ok {
			name = last + ", " + first
		}
	}
	key := strings.ToLower(strings.TrimSpace(name))
	return &key
}

// Source supplies the static combine snapshot.
type Source interface {
	Load(ctx context.Context) ([]Row, error)
}
