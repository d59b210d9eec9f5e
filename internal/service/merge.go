package service

import (
	"time"

	"ubio-intake/internal/domain"
)

// MergeFunc combines remote and locally cached records into one list
type MergeFunc func(remote, local []domain.Record) []domain.Record

// Merge remote records followed by local ones. No dedup: a record held by
// both stores appears twice.
func Merge(remote, local []domain.Record) []domain.Record {
	out := make([]domain.Record, 0, len(remote)+len(local))
	out = append(out, remote...)
	out = append(out, local...)
	return out
}

// MergeLatest like Merge but keeps one record per id, the most recently
// modified copy (updatedAt, else createdAt), at the position of the first
// occurrence. Ties go to the earlier copy. Records without id are all kept.
func MergeLatest(loc *time.Location) MergeFunc {
	return func(remote, local []domain.Record) []domain.Record {
		all := Merge(remote, local)
		out := make([]domain.Record, 0, len(all))
		seen := make(map[string]int, len(all))
		for _, r := range all {
			if r.ID == "" {
				out = append(out, r)
				continue
			}
			i, dup := seen[r.ID]
			if !dup {
				seen[r.ID] = len(out)
				out = append(out, r)
				continue
			}
			if newer(&r, &out[i], loc) {
				out[i] = r
			}
		}
		return out
	}
}

func newer(a, b *domain.Record, loc *time.Location) bool {
	ta, okA := a.LastModified(loc)
	tb, okB := b.LastModified(loc)
	switch {
	case okA && !okB:
		return true
	case !okA:
		return false
	}
	return ta.After(tb)
}
