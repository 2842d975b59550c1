package objectstore

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"sort"

	sonic "github.com/bytedance/sonic"
	"github.com/valyala/bytebufferpool"

	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/blob"
	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/playerstat"
	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/window"
	"github.com/riskibarqy/draft-combine-pipeline/internal/usecase"
)

const maxLineBytes = 1 << 20

// PageRepository persists normalized pages as JSON Lines under deterministic keys.
type PageRepository struct {
	store  blob.Store
	prefix string
}

func NewPageRepository(store blob.Store, rawPrefix string) *PageRepository {
	return &PageRepository{
		store:  store,
		prefix: normalizePrefix(rawPrefix, DefaultRawPrefix),
	}
}

func (r *PageRepository) Prefix() string {
	return r.prefix
}

func (r *PageRepository) WritePage(ctx context.Context, w window.Window, page int, rows []playerstat.Row) (string, error) {
	if page < 0 {
		return "", fmt.Errorf("%w: page must be >= 0", usecase.ErrInvalidInput)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	for i := range rows {
		line, err := sonic.Marshal(rows[i])
		if err != nil {
			return "", fmt.Errorf("encode page row %d: %w", i, err)
		}
		_, _ = buf.Write(line)
		_ = buf.WriteByte('\n')
	}

	key := PageKey(r.prefix, w, page)
	if err := r.store.Put(ctx, key, buf.Bytes(), jsonlMediaType); err != nil {
		return "", fmt.Errorf("write page key=%s: %w", key, err)
	}
	return key, nil
}

func (r *PageRepository) ReadPage(ctx context.Context, key string) ([]playerstat.Row, error) {
	body, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read page key=%s: %w", key, err)
	}

	rows := make([]playerstat.Row, 0)
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var row playerstat.Row
		if err := sonic.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("decode page key=%s line=%d: %w", key, line, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan page key=%s: %w", key, err)
	}
	return rows, nil
}

// ListPages returns every page file of a season ordered by week then page number.
func (r *PageRepository) ListPages(ctx context.Context, season int) ([]usecase.PageRef, error) {
	keys, err := r.store.List(ctx, seasonPrefix(r.prefix, season))
	if err != nil {
		return nil, fmt.Errorf("list pages season=%d: %w", season, err)
	}

	refs := make([]usecase.PageRef, 0, len(keys))
	for _, key := range keys {
		parts, ok := parsePageKey(r.prefix, key)
		if !ok || parts.season != season {
			continue
		}
		refs = append(refs, usecase.PageRef{Season: parts.season, Week: parts.week, Page: parts.page, Key: key})
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Week != refs[j].Week {
			return refs[i].Week < refs[j].Week
		}
		return refs[i].Page < refs[j].Page
	})
	return refs, nil
}

func (r *PageRepository) Seasons(ctx context.Context) ([]int, error) {
	keys, err := r.store.List(ctx, r.prefix+"/")
	if err != nil {
		return nil, fmt.Errorf("list raw pages: %w", err)
	}

	seen := make(map[int]struct{})
	for _, key := range keys {
		if parts, ok := parsePageKey(r.prefix, key); ok {
			seen[parts.season] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for season := range seen {
		out = append(out, season)
	}
	sort.Ints(out)
	return out, nil
}
