package domain

import (
	"strconv"
	"strings"
)

// Executor sets are persisted as a comma-separated token string, e.g.
// "3,7,12". The decode side is deliberately forgiving: stored rows predate
// stricter validation, so a malformed token degrades to "not an executor"
// rather than an error.

// EncodeExecutorIDs serializes ids for storage, dropping duplicates
// (first occurrence wins) and non-positive values.
func EncodeExecutorIDs(ids []int64) string {
	var b strings.Builder
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
	return b.String()
}

// NormalizeExecutorIDs reduces ids to the canonical form stored by
// EncodeExecutorIDs: duplicates and non-positive values dropped, first
// occurrence order kept. An input with nothing valid yields an empty set.
func NormalizeExecutorIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// DecodeExecutorIDs parses a stored executor-ID string. Blank and
// non-numeric tokens are discarded, surrounding whitespace is tolerated,
// and duplicates keep their first position. It never fails; empty input
// decodes to an empty set.
func DecodeExecutorIDs(s string) []int64 {
	if s == "" {
		return nil
	}
	var out []int64
	seen := make(map[int64]struct{})
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		id, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
