package local

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/blob"
	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/combine"
)

// CSVSource reads the combine export from the object store. Headers are matched
// case-insensitively and measurements that do not parse load as null.
type CSVSource struct {
	store blob.Store
	key   string
}

func NewCSVSource(store blob.Store, key string) *CSVSource {
	return &CSVSource{store: store, key: strings.TrimPrefix(strings.TrimSpace(key), "/")}
}

func (s *CSVSource) Load(ctx context.Context) ([]combine.Row, error) {
	body, err := s.store.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("read combine export key=%s: %w", s.key, err)
	}
	return ParseCombineCSV(body)
}

func ParseCombineCSV(body []byte) ([]combine.Row, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(body, []byte("\ufeff"))))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse combine csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("combine csv has no header")
	}

	hdr := records[0]
	playerIdx := idxOf(hdr, "player")
	if playerIdx < 0 {
		return nil, fmt.Errorf("combine csv is missing the player column")
	}
	yearIdx := idxOf(hdr, "year")
	posIdx := idxOf(hdr, "pos")
	hgtIdx := idxOf(hdr, "hgt")
	wngspnIdx := idxOf(hdr, "wngspn")
	wgtIdx := idxOf(hdr, "wgt")
	bmiIdx := idxOf(hdr, "bmi")
	bfIdx := idxOf(hdr, "bf")

	out := make([]combine.Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		out = append(out, combine.Row{
			Player: get(rec, playerIdx),
			Year:   parseInt(rec, yearIdx),
			Pos:    strPtr(get(rec, posIdx)),
			Hgt:    parseFloat(rec, hgtIdx),
			Wngspn: parseFloat(rec, wngspnIdx),
			Wgt:    parseFloat(rec, wgtIdx),
			Bmi:    parseFloat(rec, bmiIdx),
			Bf:     parseFloat(rec, bfIdx),
		})
	}
	return out, nil
}

func idxOf(hdr []string, name string) int {
	for i, h := range hdr {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func get(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseFloat(rec []string, i int) *float64 {
	s := get(rec, i)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseInt(rec []string, i int) *int64 {
	f := parseFloat(rec, i)
	if f == nil || *f != float64(int64(*f)) {
		return nil
	}
	v := int64(*f)
	return &v
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
