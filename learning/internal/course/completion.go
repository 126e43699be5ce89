package course

import (
	"sort"
	"time"
)

// CompletionRecord is one entry of the append-only completion ledger.
type CompletionRecord struct {
	LessonID    string    `json:"lesson_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// CompletionSet maps a lesson id to the record of its completion. It is the
// only mutable truth about what a learner has done in a course.
type CompletionSet map[string]CompletionRecord

// NewCompletionSet builds a set out of ledger records. When a lesson appears
// more than once the earliest record in the given sequence is kept.
func NewCompletionSet(records ...CompletionRecord) CompletionSet {
	set := make(CompletionSet, len(records))
	for _, r := range records {
		if _, ok := set[r.LessonID]; ok {
			continue
		}

		set[r.LessonID] = r
	}

	return set
}

func (c CompletionSet) IsCompleted(lessonID string) bool {
	_, ok := c[lessonID]
	return ok
}

// Records returns the ledger in the order it was written.
func (c CompletionSet) Records() []CompletionRecord {
	out := make([]CompletionRecord, 0, len(c))
	for _, r := range c {
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].LessonID < out[j].LessonID
		}

		return out[i].CompletedAt.Before(out[j].CompletedAt)
	})

	return out
}

func (c CompletionSet) clone() CompletionSet {
	out := make(CompletionSet, len(c))
	for k, v := range c {
		out[k] = v
	}

	return out
}
