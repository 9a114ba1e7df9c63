package commands

import (
	"context"
	"errors"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/vmboot/internal/core"
	"github.com/hay-kot/vmboot/internal/spec"
	"github.com/hay-kot/vmboot/pkgs/printer"
)

type SpecCmd struct {
	coreFlags *core.Flags
}

func NewSpecCmd(coreFlags *core.Flags) *SpecCmd {
	return &SpecCmd{coreFlags: coreFlags}
}

func (sc *SpecCmd) Register(app *cli.Command) *cli.Command {
	cmd := &cli.Command{
		Name:      "spec",
		Usage:     "Show how plugin and theme specs are parsed",
		ArgsUsage: "SPEC...",
		Description: `Parses each spec and prints the derived name and source.

 Examples:
	 vmboot spec 'git://host/path/PluginName|Plugin'   # Plugin <- git://host/path/PluginName
	 vmboot spec git://host/path/plugin_Name           # Name   <- git://host/path/plugin_Name
	 vmboot spec https://github.com/org/theme_Dark.git # Dark   <- https://github.com/org/theme_Dark.git`,
		Action: sc.run,
	}

	app.Commands = append(app.Commands, cmd)
	return app
}

func (sc *SpecCmd) run(ctx context.Context, c *cli.Command) error {
	raws := c.Args().Slice()
	if len(raws) == 0 {
		return errors.New("at least one spec is required")
	}

	pairs, err := spec.ParseAll(raws)
	if err != nil {
		return err
	}

	kvs := make([]printer.KeyValue, len(pairs))
	for i, p := range pairs {
		kvs[i] = printer.KeyValue{Key: p.Name, Value: p.Source}
	}

	printer.Ctx(ctx).KeyValues("Specs", kvs)
	return nil
}
