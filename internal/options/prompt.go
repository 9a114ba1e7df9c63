package options

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/hay-kot/vmboot/pkgs/styles"
)

// LinePrompter asks questions one line at a time over plain reader/writer
// pairs. It is used when stdin is not a terminal.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Ask implements Prompter. End of input is answered as an empty line.
func (lp *LinePrompter) Ask(ctx context.Context, q Question) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if _, err := fmt.Fprint(lp.out, promptLine(q)); err != nil {
		return "", err
	}

	line, err := lp.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}

	if errors.Is(err, io.EOF) && line == "" {
		_, _ = fmt.Fprintln(lp.out)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// Help implements Prompter.
func (lp *LinePrompter) Help(_ context.Context, opt Option) error {
	_, err := fmt.Fprintln(lp.out, styles.Subtle(opt.Help))
	return err
}

// Invalid implements Prompter.
func (lp *LinePrompter) Invalid(_ context.Context, _ Option, _ string, err error) error {
	_, werr := fmt.Fprintln(lp.out, styles.Error(styles.Cross+" "+err.Error()))
	return werr
}

func promptLine(q Question) string {
	var sb strings.Builder

	sb.WriteString(styles.Bold(q.Option.Prompt))

	if q.Option.Kind == Append {
		fmt.Fprintf(&sb, " #%d", q.Count+1)
	}

	if q.Default != "" {
		fmt.Fprintf(&sb, " [%s]", q.Default)
	}

	sb.WriteString(" (? for help): ")
	return sb.String()
}

// FormPrompter asks each question with a huh input field.
type FormPrompter struct {
	out        io.Writer
	accessible bool
}

func NewFormPrompter(out io.Writer, accessible bool) *FormPrompter {
	return &FormPrompter{
		out:        out,
		accessible: accessible,
	}
}

// Ask implements Prompter.
func (fp *FormPrompter) Ask(ctx context.Context, q Question) (string, error) {
	var value string

	title := q.Option.Prompt
	if q.Option.Kind == Append {
		title = fmt.Sprintf("%s #%d", title, q.Count+1)
	}

	description := "? for help, empty to keep the default"
	if q.Option.Kind == Append {
		description = "? for help, empty to finish"
	}

	input := huh.NewInput().
		Title(title).
		Description(description).
		Placeholder(q.Default).
		Value(&value)

	form := huh.NewForm(huh.NewGroup(input)).
		WithShowHelp(false).
		WithAccessible(fp.accessible)

	if err := form.RunWithContext(ctx); err != nil {
		return "", err
	}

	return value, nil
}

// Help implements Prompter.
func (fp *FormPrompter) Help(_ context.Context, opt Option) error {
	_, err := fmt.Fprintln(fp.out, styles.InfoBox(opt.Prompt, opt.Help))
	return err
}

// Invalid implements Prompter.
func (fp *FormPrompter) Invalid(_ context.Context, opt Option, _ string, err error) error {
	_, werr := fmt.Fprintln(fp.out, styles.Error(fmt.Sprintf("%s %s: %v", styles.Cross, opt.Prompt, err)))
	return werr
}
