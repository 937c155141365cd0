package filter

import (
	"errors"
	"strings"

	"github.com/sahilm/fuzzy"
)

// ErrEmptyName is returned when saving a filter without a name.
var ErrEmptyName = errors.New("saved filter name is required")

// SavedFilter is an inert, named pattern with no compiled state.
type SavedFilter struct {
	Name    string `yaml:"name"    toml:"name"    json:"name"`
	Pattern string `yaml:"pattern" toml:"pattern" json:"pattern"`
	IsRegex bool   `yaml:"regex"   toml:"regex"   json:"regex"`
}

// Save captures the filter under the given name.
func Save(name string, f *Filter) (SavedFilter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return SavedFilter{}, ErrEmptyName
	}
	return SavedFilter{Name: name, Pattern: f.Pattern(), IsRegex: f.IsRegex()}, nil
}

// Activate compiles a fresh Filter from the record.
func (s SavedFilter) Activate() *Filter {
	return Compile(s.Pattern, s.IsRegex)
}

// Upsert replaces the entry with the same name or appends a new one.
func Upsert(list []SavedFilter, s SavedFilter) []SavedFilter {
	for i := range list {
		if strings.EqualFold(list[i].Name, s.Name) {
			out := append([]SavedFilter(nil), list...)
			out[i] = s
			return out
		}
	}
	return append(append([]SavedFilter(nil), list...), s)
}

// Lookup finds a saved filter by name. An exact (case-insensitive) name
// wins; otherwise the best fuzzy match is returned.
func Lookup(list []SavedFilter, query string) (SavedFilter, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SavedFilter{}, false
	}
	names := make([]string, len(list))
	for i, s := range list {
		if strings.EqualFold(s.Name, query) {
			return s, true
		}
		names[i] = s.Name
	}
	matches := fuzzy.Find(query, names)
	if len(matches) == 0 {
		return SavedFilter{}, false
	}
	return list[matches[0].Index], true
}

// Remove drops the entry with the given name.
func Remove(list []SavedFilter, name string) []SavedFilter {
	out := make([]SavedFilter, 0, len(list))
	for _, s := range list {
		if !strings.EqualFold(s.Name, name) {
			out = append(out, s)
		}
	}
	return out
}
