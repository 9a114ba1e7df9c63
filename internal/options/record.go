package options

import (
	"fmt"
	"slices"

	"github.com/hay-kot/vmboot/internal/spec"
)

// Mode holds the two prompt mode flags.
type Mode struct {
	Interactive bool // prompt even when a value was supplied
	Batch       bool // never prompt
}

// Values maps option keys to the values collected for them.
type Values map[string][]string

// Merge returns a copy of v overlaid with every key present in other.
func (v Values) Merge(other Values) Values {
	out := make(Values, len(v)+len(other))
	for k, vals := range v {
		out[k] = slices.Clone(vals)
	}
	for k, vals := range other {
		out[k] = slices.Clone(vals)
	}
	return out
}

// Record is the finalized configuration. It is only built by the resolver
// and the accessors hand out copies.
type Record struct {
	vmHost  string
	vmIP    string
	plugins []string
	themes  []string
	mode    Mode
}

func newRecord(values Values, mode Mode) Record {
	return Record{
		vmHost:  last(values[KeyVMHost]),
		vmIP:    last(values[KeyVMIP]),
		plugins: slices.Clone(values[KeyPlugin]),
		themes:  slices.Clone(values[KeyTheme]),
		mode:    mode,
	}
}

func (r Record) VMHost() string    { return r.vmHost }
func (r Record) VMIP() string      { return r.vmIP }
func (r Record) Plugins() []string { return slices.Clone(r.plugins) }
func (r Record) Themes() []string  { return slices.Clone(r.themes) }
func (r Record) Interactive() bool { return r.mode.Interactive }
func (r Record) Batch() bool       { return r.mode.Batch }

// Vars returns the template variables for the record. Plugin and theme specs
// are parsed into source/name maps.
func (r Record) Vars() (map[string]any, error) {
	plugins, err := pairVars(r.plugins)
	if err != nil {
		return nil, fmt.Errorf("plugins: %w", err)
	}

	themes, err := pairVars(r.themes)
	if err != nil {
		return nil, fmt.Errorf("themes: %w", err)
	}

	return map[string]any{
		KeyVMHost:     r.vmHost,
		KeyVMIP:       r.vmIP,
		KeyPlugin:     plugins,
		KeyTheme:      themes,
		"interactive": r.mode.Interactive,
		"batch":       r.mode.Batch,
	}, nil
}

func pairVars(raws []string) ([]map[string]any, error) {
	pairs, err := spec.ParseAll(raws)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, len(pairs))
	for i, p := range pairs {
		out[i] = p.Vars()
	}
	return out, nil
}

func last(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[len(vals)-1]
}
