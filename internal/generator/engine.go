package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/rs/zerolog/log"

	"github.com/hay-kot/vmboot/internal/core"
	"github.com/hay-kot/vmboot/pkgs/styles"
)

const defaultPerm = os.FileMode(0o644)

// Config controls how the engine renders.
type Config struct {
	Dest       string // directory outputs are written under
	StrictMode bool   // fail on missing keys instead of rendering "<no value>"
	DryRun     bool   // print rendered output instead of writing files
}

// Result describes one processed template pair.
type Result struct {
	Template core.Template
	Path     string // absolute output path
	Skipped  bool   // the When condition was false
	Size     int
}

// Engine renders template pairs from a template source into Config.Dest.
type Engine struct {
	source fs.FS
	cfg    Config
	out    io.Writer
}

func NewEngine(source fs.FS, cfg Config, out io.Writer) *Engine {
	if out == nil {
		out = io.Discard
	}

	return &Engine{
		source: source,
		cfg:    cfg,
		out:    out,
	}
}

// Render processes every job in order and stops at the first failure.
func (e *Engine) Render(ctx context.Context, jobs []core.Template, vars map[string]any) ([]Result, error) {
	results := make([]Result, 0, len(jobs))

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res, err := e.RenderTemplate(ctx, job, vars)
		if err != nil {
			var te *TemplateError
			if errors.As(err, &te) {
				return results, err
			}
			return results, fmt.Errorf("failed to process template %s: %w", job.Template, err)
		}

		results = append(results, res)
	}

	e.printSummary(results)
	return results, nil
}

// RenderTemplate renders a single pair and writes it under the destination.
func (e *Engine) RenderTemplate(_ context.Context, job core.Template, vars map[string]any) (Result, error) {
	res := Result{
		Template: job,
		Path:     e.outputPath(job),
	}

	enabled, err := evalWhen(job.When, vars)
	if err != nil {
		return res, err
	}

	if !enabled {
		res.Skipped = true
		log.Debug().Str("template", job.Template).Str("when", job.When).Msg("condition false, skipping")
		return res, nil
	}

	data, err := e.Execute(job, vars)
	if err != nil {
		return res, err
	}
	res.Size = len(data)

	if e.cfg.DryRun {
		_, err := fmt.Fprintf(e.out, "%s %s\n%s\n", styles.Accent("---"), styles.Path(job.Output), data)
		return res, err
	}

	perm := defaultPerm
	if job.Mode != "" {
		p, err := strconv.ParseUint(job.Mode, 8, 32)
		if err != nil {
			return res, fmt.Errorf("invalid permissions %s: %w", job.Mode, err)
		}
		perm = os.FileMode(p)
	}

	if err := os.MkdirAll(filepath.Dir(res.Path), 0o755); err != nil {
		return res, fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(res.Path, data, perm); err != nil {
		return res, fmt.Errorf("failed to write output file: %w", err)
	}

	log.Debug().
		Str("template", job.Template).
		Str("output", res.Path).
		Int("bytes", res.Size).
		Msg("rendered template")

	e.printJobSuccess(job)
	return res, nil
}

// Execute renders the template text for job without touching the
// destination.
func (e *Engine) Execute(job core.Template, vars map[string]any) ([]byte, error) {
	name := path.Clean(filepath.ToSlash(job.Template))

	content, err := fs.ReadFile(e.source, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file %s: %w", job.Template, err)
	}

	tmpl := template.New(path.Base(name)).Funcs(funcs)

	if e.cfg.StrictMode {
		tmpl = tmpl.Option("missingkey=error")
	}

	tmpl, err = tmpl.Parse(string(content))
	if err != nil {
		return nil, NewTemplateError(e.source, name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return nil, NewTemplateError(e.source, name, err)
	}

	return buf.Bytes(), nil
}

func (e *Engine) outputPath(job core.Template) string {
	if filepath.IsAbs(job.Output) {
		return filepath.Clean(job.Output)
	}
	return filepath.Join(e.cfg.Dest, job.Output)
}

var funcs = template.FuncMap{
	"join":  strings.Join,
	"quote": strconv.Quote,
	"lower": strings.ToLower,
	"upper": strings.ToUpper,
	"default": func(def, v any) any {
		if s, ok := v.(string); ok && s == "" {
			return def
		}
		if v == nil {
			return def
		}
		return v
	},
}

func (e *Engine) printJobSuccess(job core.Template) {
	_, _ = fmt.Fprintf(e.out, "%s %s %s %s\n",
		styles.Success(styles.Check),
		job.Template,
		styles.Subtle(styles.Arrow),
		job.Output,
	)
}

func (e *Engine) printSummary(results []Result) {
	var rendered, skipped int
	for _, r := range results {
		if r.Skipped {
			skipped++
			continue
		}
		rendered++
	}

	if rendered == 0 && skipped == 0 {
		return
	}

	verb := "templates"
	if rendered == 1 {
		verb = "template"
	}

	action := "generated"
	if e.cfg.DryRun {
		action = "rendered (dry run)"
	}

	summary := fmt.Sprintf("\n%d %s %s", rendered, verb, action)
	if skipped > 0 {
		summary += fmt.Sprintf(", %d skipped", skipped)
	}

	_, _ = fmt.Fprintln(e.out, summary)
}
