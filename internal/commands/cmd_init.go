package commands

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/charmbracelet/huh/spinner"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/vmboot/internal/core"
	"github.com/hay-kot/vmboot/internal/generator"
	"github.com/hay-kot/vmboot/internal/options"
	"github.com/hay-kot/vmboot/pkgs/printer"
)

type InitCmd struct {
	coreFlags *core.Flags
	table     []options.Option
	flags     struct {
		Interactive  bool
		Batch        bool
		DryRun       bool
		Dest         string
		TemplatesDir string
		SaveAnswers  string
	}

	// in and out replace terminal detection for the prompter when set
	in  io.Reader
	out io.Writer
}

func NewInitCmd(coreFlags *core.Flags) *InitCmd {
	return &InitCmd{
		coreFlags: coreFlags,
		table:     options.DefaultTable(),
	}
}

func (ic *InitCmd) Register(app *cli.Command) *cli.Command {
	flags := optionFlags(ic.table)
	flags = append(flags,
		&cli.BoolFlag{
			Name:        "interactive",
			Aliases:     []string{"i"},
			Usage:       "prompt for every value, using supplied values as defaults",
			Sources:     envvars("INTERACTIVE"),
			Destination: &ic.flags.Interactive,
		},
		&cli.BoolFlag{
			Name:        "batch",
			Aliases:     []string{"b"},
			Usage:       "never prompt; values missing from the command line come from the config defaults block or stay blank",
			Sources:     envvars("BATCH"),
			Destination: &ic.flags.Batch,
		},
		&cli.StringFlag{
			Name:        "dest",
			Aliases:     []string{"d"},
			Usage:       "directory to render into (default: config dest or .)",
			Sources:     envvars("DEST"),
			Destination: &ic.flags.Dest,
		},
		&cli.StringFlag{
			Name:        "templates",
			Usage:       "read templates from this directory instead of the built-in set",
			Destination: &ic.flags.TemplatesDir,
		},
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "print rendered templates instead of writing them",
			Destination: &ic.flags.DryRun,
		},
		&cli.StringFlag{
			Name:        "save-answers",
			Usage:       "write the resolved values to an answers file for later batch runs",
			Destination: &ic.flags.SaveAnswers,
		},
	)

	cmd := &cli.Command{
		Name:  "init",
		Usage: "Collect VM settings and render the bootstrap files",
		// each command resets the separator setting, specs may contain commas
		DisableSliceFlagSeparator: true,
		Description: `Prompts for any value not given on the command line and renders the
 task runner file, the Vagrantfile and the provisioning manifests.

 Plugin and theme specs take the form 'source|Name' or a path whose last
 segment names the extension; plugin_/theme_ prefixes and a .git suffix are
 dropped from the name.

 Examples:
	 vmboot init                                         # prompt for everything
	 vmboot init -H dev.local -a 192.168.56.10 --batch   # no prompts
	 vmboot init -p https://github.com/org/plugin_chat.git -p 'git://host/x|Extra'
	 vmboot init -i                                      # review every value`,
		Flags:  flags,
		Action: ic.run,
	}

	app.Commands = append(app.Commands, cmd)
	return app
}

func (ic *InitCmd) run(ctx context.Context, c *cli.Command) error {
	cfg, err := setupEnv(ic.coreFlags)
	if err != nil {
		return err
	}

	mode := options.Mode{
		Interactive: ic.flags.Interactive,
		Batch:       ic.flags.Batch,
	}

	supplied := answersValues(cfg.Defaults).Merge(suppliedValues(c, ic.table))

	log.Debug().
		Bool("interactive", mode.Interactive).
		Bool("batch", mode.Batch).
		Interface("supplied", supplied).
		Msg("init cmd")

	resolver := options.NewResolver(ic.table, ic.prompter(mode))

	rec, err := resolver.Resolve(ctx, supplied, mode)
	if err != nil {
		return err
	}

	recVars, err := rec.Vars()
	if err != nil {
		return err
	}

	extra, err := cfg.LoadVars()
	if err != nil {
		return err
	}

	// resolved values win over config vars of the same name
	vars := core.MergeMaps(extra, recVars)

	dest, err := cfg.DestDir(ic.flags.Dest)
	if err != nil {
		return err
	}

	source, err := ic.templateSource(cfg)
	if err != nil {
		return err
	}

	p := printer.Ctx(ctx)
	p.Title(createStyledHeader("VMBOOT", dest, terminalWidth()))
	p.KeyValues("", []printer.KeyValue{
		{Key: options.KeyVMHost, Value: rec.VMHost()},
		{Key: options.KeyVMIP, Value: rec.VMIP()},
		{Key: options.KeyPlugin, Value: strings.Join(rec.Plugins(), ", ")},
		{Key: options.KeyTheme, Value: strings.Join(rec.Themes(), ", ")},
	})
	p.LineBreak()

	engine := generator.NewEngine(source, generator.Config{
		Dest:       dest,
		StrictMode: cfg.StrictMode,
		DryRun:     ic.flags.DryRun,
	}, p.Writer())

	if err := ic.render(ctx, engine, cfg.TemplateJobs(), vars); err != nil {
		return err
	}

	if ic.flags.SaveAnswers != "" {
		path, err := core.NewPathResolver("").Resolve(ic.flags.SaveAnswers)
		if err != nil {
			return err
		}

		if err := core.WriteAnswers(path, answersFromRecord(rec)); err != nil {
			return fmt.Errorf("failed to save answers: %w", err)
		}

		log.Info().Str("path", path).Msg("saved answers")
	}

	return nil
}

func (ic *InitCmd) render(ctx context.Context, engine *generator.Engine, jobs []core.Template, vars map[string]any) error {
	var renderErr error
	action := func() {
		_, renderErr = engine.Render(ctx, jobs, vars)
	}

	if ic.in != nil || !isTerminal(os.Stdout) {
		action()
		return renderErr
	}

	spin := spinner.New().
		Type(spinner.Line).
		Title(" Rendering templates").
		Action(action)

	if err := spin.Run(); err != nil {
		return err
	}

	return renderErr
}

func (ic *InitCmd) templateSource(cfg core.ConfigFile) (fs.FS, error) {
	var (
		dir string
		err error
	)

	switch {
	case ic.flags.TemplatesDir != "":
		dir, err = core.NewPathResolver("").Resolve(ic.flags.TemplatesDir)
	case cfg.TemplatesDir != "":
		dir, err = cfg.Resolve(cfg.TemplatesDir)
	default:
		return generator.Builtin(), nil
	}

	if err != nil {
		return nil, err
	}

	log.Debug().Str("dir", dir).Msg("using templates directory")
	return generator.Source(dir)
}

// prompter picks a huh form on a terminal and plain line prompts otherwise.
// Batch mode never prompts.
func (ic *InitCmd) prompter(mode options.Mode) options.Prompter {
	switch {
	case mode.Batch:
		return nil
	case ic.in != nil:
		return options.NewLinePrompter(ic.in, ic.out)
	case isTerminal(os.Stdin) && isTerminal(os.Stdout):
		return options.NewFormPrompter(os.Stdout, os.Getenv("ACCESSIBLE") != "")
	default:
		// stderr keeps prompts visible when stdout is redirected
		return options.NewLinePrompter(os.Stdin, os.Stderr)
	}
}
