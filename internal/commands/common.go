// Package commands contains the CLI commands for the application
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/hay-kot/vmboot/internal/core"
	"github.com/hay-kot/vmboot/internal/options"
	"github.com/hay-kot/vmboot/pkgs/cll"
	"github.com/hay-kot/vmboot/pkgs/styles"
)

var envvars = cll.EnvWithPrefix(core.EnvPrefix)

func setupEnv(flags *core.Flags) (core.ConfigFile, error) {
	return core.SetupEnv(flags.ConfigFilePath, flags.ConfigRequired)
}

// optionFlags builds one flag per option: single options take a string,
// append options may repeat.
func optionFlags(table []options.Option) []cli.Flag {
	flags := make([]cli.Flag, 0, len(table))

	for _, opt := range table {
		var aliases []string
		if opt.Short != "" {
			aliases = []string{opt.Short}
		}

		switch opt.Kind {
		case options.Append:
			flags = append(flags, &cli.StringSliceFlag{
				Name:    opt.Long,
				Aliases: aliases,
				Usage:   opt.Prompt + " (repeatable)",
			})
		default:
			flags = append(flags, &cli.StringFlag{
				Name:    opt.Long,
				Aliases: aliases,
				Usage:   opt.Prompt,
			})
		}
	}

	return flags
}

// suppliedValues collects the options explicitly set on the command line.
func suppliedValues(c *cli.Command, table []options.Option) options.Values {
	values := options.Values{}

	for _, opt := range table {
		if !c.IsSet(opt.Long) {
			continue
		}

		switch opt.Kind {
		case options.Append:
			values[opt.Key] = c.StringSlice(opt.Long)
		default:
			values[opt.Key] = []string{c.String(opt.Long)}
		}
	}

	return values
}

func answersValues(a core.Answers) options.Values {
	values := options.Values{}

	if a.VMHost != "" {
		values[options.KeyVMHost] = []string{a.VMHost}
	}
	if a.VMIP != "" {
		values[options.KeyVMIP] = []string{a.VMIP}
	}
	if len(a.Plugins) > 0 {
		values[options.KeyPlugin] = a.Plugins
	}
	if len(a.Themes) > 0 {
		values[options.KeyTheme] = a.Themes
	}

	return values
}

func answersFromRecord(rec options.Record) core.Answers {
	return core.Answers{
		VMHost:  rec.VMHost(),
		VMIP:    rec.VMIP(),
		Plugins: rec.Plugins(),
		Themes:  rec.Themes(),
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// createStyledHeader renders "-- [LABEL] name -----" filled to width.
func createStyledHeader(label, name string, width int) string {
	left := fmt.Sprintf("%s %s %s ",
		styles.Subtle("--"),
		styles.Accent("["+label+"]"),
		name,
	)

	// "-- " + "[" + label + "]" + " " + name + " "
	visible := 3 + len(label) + 2 + 1 + len(name) + 1
	remaining := max(width-visible, 0)

	return left + styles.Subtle(strings.Repeat("-", remaining))
}
