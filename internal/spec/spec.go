// Package spec parses the compact plugin and theme source strings accepted on
// the command line into a source location and a display name.
package spec

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Delimiter separates an explicit name from the source in a spec string.
const Delimiter = "|"

// ErrMalformed is returned when no name can be derived from a spec string.
var ErrMalformed = errors.New("malformed spec")

// nameRe captures the final path segment, dropping an optional plugin_/theme_
// prefix and an optional .git suffix.
var nameRe = regexp.MustCompile(`/(?:plugin_|theme_)?([^/]+?)(?:\.git)?$`)

// Pair is a parsed spec string.
type Pair struct {
	Source string `yaml:"source" toml:"source"`
	Name   string `yaml:"name"   toml:"name"`
}

// Vars returns the pair keyed the way templates reference it.
func (p Pair) Vars() map[string]any {
	return map[string]any{
		"source": p.Source,
		"name":   p.Name,
	}
}

func (p Pair) String() string {
	return p.Source + Delimiter + p.Name
}

// Parse turns a spec string into a Pair.
//
//	git://host/path/PluginName|Plugin  -> {git://host/path/PluginName, Plugin}
//	git://host/path/plugin_Name        -> {git://host/path/plugin_Name, Name}
//	git://host/path/Name.git           -> {git://host/path/Name.git, Name}
//
// An explicit name always wins over extraction from the path.
func Parse(raw string) (Pair, error) {
	parts := strings.Split(raw, Delimiter)
	if len(parts) == 2 {
		return Pair{Source: parts[0], Name: parts[1]}, nil
	}

	matches := nameRe.FindStringSubmatch(raw)
	if len(matches) < 2 {
		return Pair{}, fmt.Errorf("%w %q: expected 'source%sName' or a path ending in a name", ErrMalformed, raw, Delimiter)
	}

	return Pair{Source: raw, Name: matches[1]}, nil
}

// ParseAll parses specs in order, stopping at the first failure.
func ParseAll(raws []string) ([]Pair, error) {
	pairs := make([]Pair, 0, len(raws))

	for _, raw := range raws {
		p, err := Parse(raw)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}

	return pairs, nil
}

// Validate reports whether raw parses. It matches the signature used by
// option validators.
func Validate(raw string) error {
	_, err := Parse(raw)
	return err
}
