package options

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

// HelpInput is the answer that prints an option's help text.
const HelpInput = "?"

// Question is what a Prompter is asked for a single input line.
type Question struct {
	Option  Option
	Default string // shown as the value kept on empty input
	Count   int    // values already collected for an Append option
}

// Prompter reads operator input for the resolver. Ask returns the raw answer;
// the resolver interprets the empty string and HelpInput.
type Prompter interface {
	Ask(ctx context.Context, q Question) (string, error)
	Help(ctx context.Context, opt Option) error
	Invalid(ctx context.Context, opt Option, input string, err error) error
}

type fieldState int

const (
	stateAwaiting fieldState = iota
	stateHelp
	stateDone
)

// Resolver fills in option values.
type Resolver struct {
	table    []Option
	prompter Prompter
}

// NewResolver creates a resolver over table. prompter may be nil when only
// batch resolution is needed.
func NewResolver(table []Option, prompter Prompter) *Resolver {
	return &Resolver{
		table:    table,
		prompter: prompter,
	}
}

// Resolve returns the final record for the supplied values. Options that were
// not supplied are prompted for unless mode.Batch is set; mode.Interactive
// prompts for every option using the supplied value as the default. Batch
// takes precedence over Interactive.
func (r *Resolver) Resolve(ctx context.Context, supplied Values, mode Mode) (Record, error) {
	values := Values{}

	for _, opt := range r.table {
		current, ok := supplied[opt.Key]
		ok = ok && len(current) > 0

		if mode.Batch || (ok && !mode.Interactive) {
			for _, v := range current {
				if err := opt.validate(v); err != nil {
					return Record{}, fmt.Errorf("--%s: %w", opt.Long, err)
				}
			}

			values[opt.Key] = slices.Clone(current)

			log.Debug().
				Str("option", opt.Key).
				Strs("values", current).
				Bool("batch", mode.Batch).
				Msg("using supplied value")
			continue
		}

		if r.prompter == nil {
			return Record{}, fmt.Errorf("no prompter available for %s", opt.Key)
		}

		got, err := r.fill(ctx, opt, current)
		if err != nil {
			return Record{}, err
		}

		values[opt.Key] = got
	}

	return newRecord(values, mode), nil
}

// fill runs the prompt state machine for a single option.
func (r *Resolver) fill(ctx context.Context, opt Option, current []string) ([]string, error) {
	var (
		state  = stateAwaiting
		values []string
		def    string
	)

	switch opt.Kind {
	case Append:
		values = slices.Clone(current)
	default:
		def = last(current)
	}

	for state != stateDone {
		switch state {
		case stateHelp:
			if err := r.prompter.Help(ctx, opt); err != nil {
				return nil, err
			}
			state = stateAwaiting

		case stateAwaiting:
			input, err := r.prompter.Ask(ctx, Question{
				Option:  opt,
				Default: def,
				Count:   len(values),
			})
			if err != nil {
				return nil, err
			}

			next, collected, verr := step(opt, input, def, values)
			if verr != nil {
				if err := r.prompter.Invalid(ctx, opt, input, verr); err != nil {
					return nil, err
				}
			}

			state, values = next, collected
		}
	}

	log.Debug().Str("option", opt.Key).Strs("values", values).Msg("prompted value")
	return values, nil
}

// step is the transition for one answer in the awaiting state. A validation
// error keeps the field awaiting input.
func step(opt Option, input, def string, values []string) (fieldState, []string, error) {
	input = strings.TrimSpace(input)

	switch input {
	case "":
		if opt.Kind == Single && def != "" {
			return stateDone, []string{def}, nil
		}
		return stateDone, values, nil
	case HelpInput:
		return stateHelp, values, nil
	}

	if err := opt.validate(input); err != nil {
		return stateAwaiting, values, err
	}

	if opt.Kind == Append {
		return stateAwaiting, append(values, input), nil
	}

	return stateDone, []string{input}, nil
}
