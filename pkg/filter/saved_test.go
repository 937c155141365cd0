package filter

import (
	"errors"
	"testing"
)

func TestSaveAndActivate(t *testing.T) {
	f := Compile(`timeout|refused`, true)
	s, err := Save("  net errors ", f)
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "net errors" || s.Pattern != `timeout|refused` || !s.IsRegex {
		t.Errorf("Save = %+v", s)
	}

	g := s.Activate()
	if g == f {
		t.Error("Activate must build a fresh filter")
	}
	if !g.Matches("connection refused") {
		t.Error("activated filter should match")
	}

	if _, err := Save("   ", f); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Save with blank name = %v, want ErrEmptyName", err)
	}
}

func TestUpsert(t *testing.T) {
	list := []SavedFilter{{Name: "errors", Pattern: "error"}}
	list = Upsert(list, SavedFilter{Name: "warn", Pattern: "warn"})
	list = Upsert(list, SavedFilter{Name: "Errors", Pattern: "ERR|FATAL", IsRegex: true})

	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].Pattern != "ERR|FATAL" || !list[0].IsRegex {
		t.Errorf("upsert did not replace by name: %+v", list[0])
	}
}

func TestLookup(t *testing.T) {
	list := []SavedFilter{
		{Name: "http-5xx", Pattern: `" 5\d\d `, IsRegex: true},
		{Name: "errors", Pattern: "error"},
		{Name: "slow-queries", Pattern: "slow query"},
	}
	tests := []struct {
		query string
		want  string
		found bool
	}{
		{"errors", "errors", true},
		{"ERRORS", "errors", true},
		{"slowq", "slow-queries", true},
		{"5xx", "http-5xx", true},
		{"zzz", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Lookup(list, tt.query)
		if ok != tt.found || got.Name != tt.want {
			t.Errorf("Lookup(%q) = %q, %v; want %q, %v", tt.query, got.Name, ok, tt.want, tt.found)
		}
	}
}

func TestRemove(t *testing.T) {
	list := []SavedFilter{{Name: "errors", Pattern: "error"}, {Name: "warn", Pattern: "warn"}}
	got := Remove(list, "ERRORS")
	if len(got) != 1 || got[0].Name != "warn" {
		t.Errorf("Remove = %+v, want only warn", got)
	}
	if len(list) != 2 {
		t.Error("Remove must not modify its input")
	}
}
