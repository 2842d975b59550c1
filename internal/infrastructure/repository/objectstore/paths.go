package objectstore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/window"
)

const (
	DefaultRawPrefix   = "raw"
	DefaultStatePrefix = "state"

	pageSuffix     = ".jsonl"
	stateSuffix    = ".json"
	seasonSegment  = "season="
	weekSegment    = "week="
	pageSegment    = "page="
	rangeSegment   = "range="
	jsonlMediaType = "application/x-ndjson"
	jsonMediaType  = "application/json"
)

func normalizePrefix(prefix, fallback string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return fallback
	}
	return prefix
}

// PageKey renders {raw}/season={season}/week={start}/page={page}.jsonl.
func PageKey(rawPrefix string, w window.Window, page int) string {
	return fmt.Sprintf("%s/%s%d/%s%s/%s%d%s", rawPrefix, seasonSegment, w.Season, weekSegment, w.Start(), pageSegment, page, pageSuffix)
}

// StateKey renders {state}/season={season}/range={start}_to_{end}.json.
func StateKey(statePrefix string, w window.Window) string {
	return fmt.Sprintf("%s/%s%d/%s%s%s", statePrefix, seasonSegment, w.Season, rangeSegment, w.Range(), stateSuffix)
}

func seasonPrefix(rawPrefix string, season int) string {
	return fmt.Sprintf("%s/%s%d/", rawPrefix, seasonSegment, season)
}

type pageParts struct {
	season int
	week   string
	page   int
}

// parsePageKey is the inverse of PageKey; ok is false for anything that is not a page file.
func parsePageKey(rawPrefix, key string) (pageParts, bool) {
	rest, found := strings.CutPrefix(key, rawPrefix+"/")
	if !found {
		return pageParts{}, false
	}
	segments := strings.Split(rest, "/")
	if len(segments) != 3 {
		return pageParts{}, false
	}

	seasonRaw, ok := strings.CutPrefix(segments[0], seasonSegment)
	if !ok {
		return pageParts{}, false
	}
	season, err := strconv.Atoi(seasonRaw)
	if err != nil || season <= 0 {
		return pageParts{}, false
	}

	week, ok := strings.CutPrefix(segments[1], weekSegment)
	if !ok {
		return pageParts{}, false
	}
	if _, err := window.ParseDate(week); err != nil {
		return pageParts{}, false
	}

	pageRaw, ok := strings.CutPrefix(segments[2], pageSegment)
	if !ok {
		return pageParts{}, false
	}
	pageRaw, ok = strings.CutSuffix(pageRaw, pageSuffix)
	if !ok {
		return pageParts{}, false
	}
	page, err := strconv.Atoi(pageRaw)
	if err != nil || page < 0 {
		return pageParts{}, false
	}
	return pageParts{season: season, week: week, page: page}, true
}
