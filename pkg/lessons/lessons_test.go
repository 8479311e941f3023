package lessons

import (
	"errors"
	"slices"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	all := c.All()
	if len(all) != 4 {
		t.Fatalf("lessons = %d, want 4", len(all))
	}
	for i, l := range all {
		if l.ID != i+1 {
			t.Errorf("lesson %d has id %d", i, l.ID)
		}
		if l.Title == "" || l.Route == "" {
			t.Errorf("lesson %d missing title or route: %+v", l.ID, l)
		}
	}
	if all[1].Title != "Move Robot" || all[3].Route != "/lessons/4MoveRobot2D" {
		t.Errorf("unexpected catalog contents: %+v", all)
	}
}

func TestLookup(t *testing.T) {
	c := Default()

	l, err := c.Lookup(3)
	if err != nil || l.Title != "Move Robot - Parameters!" {
		t.Errorf("Lookup(3) = %+v, %v", l, err)
	}
	if _, err := c.Lookup(42); !errors.Is(err, ErrUnknownLesson) {
		t.Errorf("Lookup(42) error = %v, want ErrUnknownLesson", err)
	}
}

func TestOpen(t *testing.T) {
	c := Default()
	p := DefaultProgress()

	if _, err := c.Open(1, p); err != nil {
		t.Errorf("Open(1) error: %v", err)
	}
	if _, err := c.Open(2, p); !errors.Is(err, ErrLocked) {
		t.Errorf("Open(2) error = %v, want ErrLocked", err)
	}
	if _, err := c.Open(9, p); !errors.Is(err, ErrUnknownLesson) {
		t.Errorf("Open(9) error = %v, want ErrUnknownLesson", err)
	}
}

func TestList(t *testing.T) {
	entries := Default().List(NewProgress(1, 2))

	want := []bool{true, true, false, false}
	for i, e := range entries {
		if e.Unlocked != want[i] {
			t.Errorf("lesson %d unlocked = %v, want %v", e.ID, e.Unlocked, want[i])
		}
	}
}

func TestParseCatalogErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "lessons: [unclosed"},
		{"zero id", "lessons:\n  - id: 0\n    title: x\n"},
		{"duplicate", "lessons:\n  - id: 1\n  - id: 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("Parse() should fail")
			}
		})
	}
}

func TestParseProgress(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   []int
		wantOK bool
	}{
		{"absent", "", []int{1}, false},
		{"plain json", "[1,2,3]", []int{1, 2, 3}, true},
		{"url encoded", "%5B1%2C2%5D", []int{1, 2}, true},
		{"malformed", "not-json", []int{1}, false},
		{"wrong shape", `{"a":1}`, []int{1}, false},
		{"null", "null", []int{1}, false},
		{"empty array", "[]", []int{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := ParseProgress(tt.raw)
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !slices.Equal(p.Unlocked(), tt.want) {
				t.Errorf("unlocked = %v, want %v", p.Unlocked(), tt.want)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	p := NewProgress(1, 2, 5)

	enc := p.Encode()
	if enc != "%5B1%2C2%2C5%5D" {
		t.Errorf("Encode() = %q", enc)
	}
	back, ok := ParseProgress(enc)
	if !ok || !slices.Equal(back.Unlocked(), []int{1, 2, 5}) {
		t.Errorf("ParseProgress(Encode()) = %v, %v", back.Unlocked(), ok)
	}
}

func TestComplete(t *testing.T) {
	p := DefaultProgress()

	if !p.Complete(1) {
		t.Error("Complete(1) should unlock 2")
	}
	if p.Complete(1) {
		t.Error("completing twice should not change progress")
	}
	if !p.IsUnlocked(2) {
		t.Error("lesson 2 should be unlocked")
	}

	// Completion does not need the lesson itself to be unlocked.
	p.Complete(5)
	if !slices.Equal(p.Unlocked(), []int{1, 2, 6}) {
		t.Errorf("unlocked = %v, want [1 2 6]", p.Unlocked())
	}

	if p.Complete(MaxLesson) || p.Complete(MaxLesson+3) {
		t.Error("ids at or above the cap unlock nothing")
	}
	p.Complete(MaxLesson - 1)
	if !p.IsUnlocked(MaxLesson) {
		t.Errorf("Complete(%d) should unlock %d", MaxLesson-1, MaxLesson)
	}
}
