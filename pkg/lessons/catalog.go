// Package lessons holds the lesson catalog and the learner's progress.
package lessons

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownLesson is returned for ids missing from the catalog.
	ErrUnknownLesson = errors.New("lessons: unknown lesson")
	// ErrLocked is returned when a lesson exists but is not unlocked yet.
	ErrLocked = errors.New("lessons: lesson is locked")
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Lesson is one entry on the lesson list.
type Lesson struct {
	ID          int    `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Route       string `yaml:"route" json:"route"`
	Prompt      string `yaml:"prompt" json:"prompt,omitempty"`
}

// Catalog is an ordered, read-only lesson list.
type Catalog struct {
	lessons []Lesson
	byID    map[int]int
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("lessons: embedded catalog: %v", err))
	}
	return c
}

// Parse reads a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var doc struct {
		Lessons []Lesson `yaml:"lessons"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{byID: make(map[int]int, len(doc.Lessons))}
	for _, l := range doc.Lessons {
		if l.ID < 1 {
			return nil, fmt.Errorf("parse catalog: lesson %q has invalid id %d", l.Title, l.ID)
		}
		if _, dup := c.byID[l.ID]; dup {
			return nil, fmt.Errorf("parse catalog: duplicate lesson id %d", l.ID)
		}
		c.byID[l.ID] = len(c.lessons)
		c.lessons = append(c.lessons, l)
	}
	return c, nil
}

// All returns the lessons in catalog order.
func (c *Catalog) All() []Lesson {
	out := make([]Lesson, len(c.lessons))
	copy(out, c.lessons)
	return out
}

// Lookup returns the lesson with id.
func (c *Catalog) Lookup(id int) (Lesson, error) {
	i, ok := c.byID[id]
	if !ok {
		return Lesson{}, fmt.Errorf("lesson %d: %w", id, ErrUnknownLesson)
	}
	return c.lessons[i], nil
}

// Open returns the lesson if p has it unlocked.
func (c *Catalog) Open(id int, p Progress) (Lesson, error) {
	l, err := c.Lookup(id)
	if err != nil {
		return Lesson{}, err
	}
	if !p.IsUnlocked(id) {
		return Lesson{}, fmt.Errorf("lesson %d: %w", id, ErrLocked)
	}
	return l, nil
}

// Entry is a lesson annotated with the learner's access.
type Entry struct {
	Lesson
	Unlocked bool `json:"unlocked"`
}

// List annotates every lesson with whether p unlocks it.
func (c *Catalog) List(p Progress) []Entry {
	out := make([]Entry, 0, len(c.lessons))
	for _, l := range c.lessons {
		out = append(out, Entry{Lesson: l, Unlocked: p.IsUnlocked(l.ID)})
	}
	return out
}
