package lessons

import (
	"encoding/json"
	"net/url"
	"slices"
)

// CookieName is the cookie holding the learner's unlocked lesson ids.
const CookieName = "lessonProgress"

// MaxLesson is the highest lesson id completion can unlock.
const MaxLesson = 10

// Progress is the ordered list of unlocked lesson ids.
type Progress struct {
	unlocked []int
}

// DefaultProgress unlocks only the first lesson.
func DefaultProgress() Progress {
	return Progress{unlocked: []int{1}}
}

// NewProgress builds progress from a list of ids.
func NewProgress(ids ...int) Progress {
	return Progress{unlocked: slices.Clone(ids)}
}

// ParseProgress decodes a cookie value. The value is a JSON array, usually
// URL-encoded by the browser. An empty or malformed value yields the
// default and ok=false, telling the caller to write the cookie.
func ParseProgress(raw string) (p Progress, ok bool) {
	if raw == "" {
		return DefaultProgress(), false
	}
	if unescaped, err := url.QueryUnescape(raw); err == nil {
		raw = unescaped
	}

	var ids []int
	if err := json.Unmarshal([]byte(raw), &ids); err != nil || ids == nil {
		return DefaultProgress(), false
	}
	return Progress{unlocked: ids}, true
}

// Encode returns the URL-encoded JSON cookie value.
func (p Progress) Encode() string {
	ids := p.unlocked
	if ids == nil {
		ids = []int{}
	}
	data, _ := json.Marshal(ids)
	return url.QueryEscape(string(data))
}

// Unlocked returns the unlocked ids in unlock order.
func (p Progress) Unlocked() []int {
	return slices.Clone(p.unlocked)
}

// IsUnlocked reports whether id is unlocked.
func (p Progress) IsUnlocked(id int) bool {
	return slices.Contains(p.unlocked, id)
}

// Complete marks lesson id as done by unlocking id+1. Ids at or above
// MaxLesson unlock nothing. Reports whether the progress changed.
func (p *Progress) Complete(id int) bool {
	if id >= MaxLesson {
		return false
	}
	next := id + 1
	if p.IsUnlocked(next) {
		return false
	}
	p.unlocked = append(p.unlocked, next)
	return true
}

// MarshalJSON encodes progress as the plain id array.
func (p Progress) MarshalJSON() ([]byte, error) {
	if p.unlocked == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p.unlocked)
}
