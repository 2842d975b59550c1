package joined

import (
	"errors"
	"math"
	"testing"

	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/combine"
	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/playerstat"
)

func TestCastMinutes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   playerstat.Scalar
		want float64
	}{
		{in: playerstat.StringScalar("35:30"), want: 35.5},
		{in: playerstat.StringScalar("12"), want: 12},
		{in: playerstat.ScalarOf("28.25"), want: 28.25},
		{in: playerstat.StringScalar("00:45"), want: 0.75},
	}
	for _, tc := range cases {
		got, err := CastMinutes(tc.in)
		if err != nil {
			t.Fatalf("cast %s: %v", tc.in, err)
		}
		if got == nil || math.Abs(*got-tc.want) > 1e-9 {
			t.Fatalf("unexpected minutes for %s: got=%v want=%v", tc.in, got, tc.want)
		}
	}

	for _, bad := range []string{"DNP", "12:75", "a:10"} {
		if _, err := CastMinutes(playerstat.StringScalar(bad)); !errors.Is(err, ErrCast) {
			t.Fatalf("expected cast error for %q, got %v", bad, err)
		}
	}
}

func TestCasts_NullStaysNull(t *testing.T) {
	t.Parallel()

	if v, err := CastFloat(nil); v != nil || err != nil {
		t.Fatalf("unexpected float cast: got=%v err=%v", v, err)
	}
	if v, err := CastInt(playerstat.ScalarOf("null")); v != nil || err != nil {
		t.Fatalf("unexpected int cast: got=%v err=%v", v, err)
	}
	if v, err := CastMinutes(nil); v != nil || err != nil {
		t.Fatalf("unexpected minutes cast: got=%v err=%v", v, err)
	}
}

func TestCastInt(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]int64{"15": 15, `"237"`: 237, "42.0": 42} {
		got, err := CastInt(playerstat.ScalarOf(in))
		if err != nil || got == nil || *got != want {
			t.Fatalf("unexpected int for %s: got=%v err=%v want=%d", in, got, err, want)
		}
	}
	if _, err := CastInt(playerstat.ScalarOf("4.5")); !errors.Is(err, ErrCast) {
		t.Fatalf("expected cast error, got %v", err)
	}
}

func TestBuild_FailedCastExcludesRow(t *testing.T) {
	t.Parallel()

	first, last := "LeBron", "James"
	stat := playerstat.Normalize(playerstat.RawRecord{
		FirstName: &first,
		LastName:  &last,
		GameDate:  playerstat.StringScalar("2024-10-22T00:00:00.000Z"),
		GameID:    playerstat.ScalarOf("15"),
		PTS:       playerstat.StringScalar("twenty"),
	})
	if _, err := Build(2024, stat, combine.Row{Player: "LeBron James"}); !errors.Is(err, ErrCast) {
		t.Fatalf("expected cast error, got %v", err)
	}

	stat.PTS = playerstat.ScalarOf("20")
	row, err := Build(2024, stat, combine.Row{Player: "LeBron James"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if row.GameDate == nil || *row.GameDate != "2024-10-22" {
		t.Fatalf("unexpected game date: %v", row.GameDate)
	}
	if row.PTS == nil || *row.PTS != 20 || row.REB != nil {
		t.Fatalf("unexpected stats: pts=%v reb=%v", row.PTS, row.REB)
	}
}
