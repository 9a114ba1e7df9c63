package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/vmboot/internal/core"
	"github.com/hay-kot/vmboot/pkgs/printer"
	"github.com/hay-kot/vmboot/pkgs/styles"
)

type TemplatesCmd struct {
	coreFlags *core.Flags
}

func NewTemplatesCmd(coreFlags *core.Flags) *TemplatesCmd {
	return &TemplatesCmd{coreFlags: coreFlags}
}

func (tc *TemplatesCmd) Register(app *cli.Command) *cli.Command {
	cmd := &cli.Command{
		Name:    "templates",
		Aliases: []string{"ls"},
		Usage:   "List the template pairs init renders",
		Action:  tc.run,
	}

	app.Commands = append(app.Commands, cmd)
	return app
}

func (tc *TemplatesCmd) run(ctx context.Context, _ *cli.Command) error {
	cfg, err := setupEnv(tc.coreFlags)
	if err != nil {
		return err
	}

	jobs := cfg.TemplateJobs()
	items := make([]string, len(jobs))

	for i, job := range jobs {
		item := fmt.Sprintf("%s %s %s", job.Template, styles.Subtle(styles.Arrow), styles.Path(job.Output))
		if job.When != "" {
			item += styles.Subtle(" when " + job.When)
		}
		items[i] = item
	}

	title := "Templates (built-in)"
	if len(cfg.Templates) > 0 {
		title = "Templates (config)"
	}

	printer.Ctx(ctx).List(title, items)
	return nil
}
