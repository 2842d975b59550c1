package playerstat

import (
	"encoding/json"
	"testing"
)

func strPtr(v string) *string { return &v }

func TestNormalize_BothNamesPresent(t *testing.T) {
	t.Parallel()

	row := Normalize(RawRecord{
		PlayerID:  ScalarOf("237"),
		FirstName: strPtr("LeBron"),
		LastName:  strPtr("James"),
		PTS:       ScalarOf("31"),
		MIN:       StringScalar("35:12"),
	})

	if row.PlayerNameDisplay == nil || *row.PlayerNameDisplay != "James, LeBron" {
		t.Fatalf("unexpected display: got=%v want=%q", row.PlayerNameDisplay, "James, LeBron")
	}
	if row.PlayerNameKey == nil || *row.PlayerNameKey != "james, lebron" {
		t.Fatalf("unexpected key: got=%v want=%q", row.PlayerNameKey, "james, lebron")
	}
	if string(row.MIN) != `"35:12"` {
		t.Fatalf("min must pass through untouched: got=%s", row.MIN)
	}
	if !row.Joinable() {
		t.Fatalf("expected joinable row")
	}
}

func TestNormalize_KeyTrimsAndLowers(t *testing.T) {
	t.Parallel()

	row := Normalize(RawRecord{FirstName: strPtr("Nikola "), LastName: strPtr("  JOKIC")})
	want := NameKey("  JOKIC, Nikola ")
	if row.PlayerNameKey == nil || *row.PlayerNameKey != want {
		t.Fatalf("unexpected key: got=%v want=%q", row.PlayerNameKey, want)
	}
	if want != "jokic, nikola" {
		t.Fatalf("unexpected name key: got=%q", want)
	}
}

func TestNormalize_MissingNameYieldsNullKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  RawRecord
	}{
		{name: "last name missing", raw: RawRecord{FirstName: strPtr("LeBron")}},
		{name: "first name missing", raw: RawRecord{LastName: strPtr("James")}},
		{name: "empty first name counts as absent", raw: RawRecord{FirstName: strPtr(""), LastName: strPtr("James")}},
		{name: "whitespace last name counts as absent", raw: RawRecord{FirstName: strPtr("LeBron"), LastName: strPtr("   ")}},
		{name: "no names", raw: RawRecord{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			row := Normalize(tc.raw)
			if row.PlayerNameKey != nil || row.PlayerNameDisplay != nil {
				t.Fatalf("expected null key and display, got key=%v display=%v", row.PlayerNameKey, row.PlayerNameDisplay)
			}
			if row.Joinable() {
				t.Fatalf("row must not be joinable")
			}
		})
	}
}

func TestRow_JSONEncoding(t *testing.T) {
	t.Parallel()

	row := Normalize(RawRecord{GameID: ScalarOf("15"), PTS: StringScalar("12"), LastName: strPtr("James")})
	raw, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("marshal row: %v", err)
	}
	want := `{"game_date":null,"game_id":15,"player_id":null,"player_first_name":null,"player_last_name":"James","player_name_display":null,"player_name_key":null,"team_id":null,"pts":"12","reb":null,"ast":null,"min":null}`
	if string(raw) != want {
		t.Fatalf("unexpected encoding:\n got=%s\nwant=%s", raw, want)
	}
}

func TestScalar_Text(t *testing.T) {
	t.Parallel()

	if v, ok := StringScalar("35:12").Text(); !ok || v != "35:12" {
		t.Fatalf("unexpected text: got=%q ok=%v", v, ok)
	}
	if v, ok := ScalarOf("27.5").Text(); !ok || v != "27.5" {
		t.Fatalf("unexpected text: got=%q ok=%v", v, ok)
	}
	if _, ok := ScalarOf("null").Text(); ok {
		t.Fatalf("null must not yield text")
	}
}
