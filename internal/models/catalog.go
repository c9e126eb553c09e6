package models

import (
	"sort"

	"github.com/roach88/skein"
)

// Outcome is the verdict of checking a model.
type Outcome string

const (
	Pass Outcome = "pass"
	Fail Outcome = "fail"
)

// Model is a catalog entry.
type Model struct {
	// Name uniquely identifies the model on the command line.
	Name string

	// Description says what the model demonstrates.
	Description string

	// Expect is the outcome a correct checker reports.
	Expect Outcome

	// Code is the violation expected when Expect is Fail.
	Code skein.ViolationCode

	Run func(t *skein.T)
}

var catalog = map[string]Model{}

func register(m Model) {
	if _, dup := catalog[m.Name]; dup {
		panic("models: duplicate model " + m.Name)
	}
	catalog[m.Name] = m
}

// All returns every model ordered by name.
func All() []Model {
	out := make([]Model, 0, len(catalog))
	for _, m := range catalog {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the model called name.
func Lookup(name string) (Model, bool) {
	m, ok := catalog[name]
	return m, ok
}

// Names returns every model name in order.
func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, m := range all {
		names[i] = m.Name
	}
	return names
}
