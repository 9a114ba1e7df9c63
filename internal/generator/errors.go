package generator

import (
	"bufio"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// template: name:line:col: error message
	lineColRe = regexp.MustCompile(`template: [^:]+:(\d+):(\d+): (.+)`)
	// template: name:line: error message
	lineRe = regexp.MustCompile(`template: [^:]+:(\d+): (.+)`)
)

// TemplateError is a parse or execution failure with the surrounding lines
// of the template source.
type TemplateError struct {
	File    string
	Line    int
	Column  int
	Message string
	Context []string
}

func NewTemplateError(source fs.FS, file string, err error) *TemplateError {
	te := &TemplateError{
		File:    file,
		Message: err.Error(),
	}

	te.parseError(err.Error())
	te.loadContext(source)
	te.cleanMessage()

	return te
}

func (te *TemplateError) parseError(errStr string) {
	if matches := lineColRe.FindStringSubmatch(errStr); len(matches) > 3 {
		if line, err := strconv.Atoi(matches[1]); err == nil {
			te.Line = line
		}
		if col, err := strconv.Atoi(matches[2]); err == nil {
			te.Column = col
		}
		te.Message = matches[3]
		return
	}

	if matches := lineRe.FindStringSubmatch(errStr); len(matches) > 2 {
		if line, err := strconv.Atoi(matches[1]); err == nil {
			te.Line = line
		}
		te.Message = matches[2]
	}
}

func (te *TemplateError) loadContext(source fs.FS) {
	if te.Line == 0 || source == nil {
		return
	}

	file, err := source.Open(te.File)
	if err != nil {
		return
	}
	defer func() {
		_ = file.Close()
	}()

	scanner := bufio.NewScanner(file)
	lineNum := 1
	var lines []string

	for scanner.Scan() {
		if lineNum >= te.Line-2 && lineNum <= te.Line+2 {
			lines = append(lines, scanner.Text())
		}
		if lineNum > te.Line+2 {
			break
		}
		lineNum++
	}

	te.Context = lines
}

func (te *TemplateError) cleanMessage() {
	baseName := path.Base(te.File)
	te.Message = strings.ReplaceAll(te.Message, fmt.Sprintf(`executing "%s" `, baseName), "")
	te.Message = strings.ReplaceAll(te.Message, fmt.Sprintf(`"%s" `, baseName), "")

	replacements := []struct{ old, new string }{
		{"can't evaluate field", "unknown field"},
		{"map has no entry for key", "missing key"},
		{"at <", "accessing variable <"},
	}

	for _, r := range replacements {
		te.Message = strings.ReplaceAll(te.Message, r.old, r.new)
	}
}

func (te *TemplateError) Error() string {
	return te.format()
}

func (te *TemplateError) format() string {
	if te.Line == 0 {
		return fmt.Sprintf("Template error in %s: %s", te.File, te.Message)
	}

	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	fileStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Underline(true)
	lineNumStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorLineStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	contextStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	pointerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)

	var sb strings.Builder

	sb.WriteString(errorStyle.Render("Template Error") + "\n\n")

	location := fmt.Sprintf("%s:%d", te.File, te.Line)
	if te.Column > 0 {
		location += fmt.Sprintf(":%d", te.Column)
	}
	sb.WriteString(fileStyle.Render(location) + "\n\n")

	if len(te.Context) > 0 {
		startLine := max(te.Line-2, 1)

		for i, line := range te.Context {
			currentLine := startLine + i
			lineNumStr := fmt.Sprintf("%4d │ ", currentLine)

			if currentLine != te.Line {
				sb.WriteString(lineNumStyle.Render(lineNumStr))
				sb.WriteString(contextStyle.Render(line) + "\n")
				continue
			}

			sb.WriteString(errorLineStyle.Render(lineNumStr))
			sb.WriteString(errorLineStyle.Render(line) + "\n")

			if te.Column > 0 && te.Column <= len(line) {
				spaces := strings.Repeat(" ", 6+te.Column-1)
				sb.WriteString(spaces + pointerStyle.Render("^") + "\n")
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString(errorStyle.Render("Error: ") + te.Message + "\n")

	return sb.String()
}

// Multiline reports whether Error renders the annotated multi line form.
func (te *TemplateError) Multiline() bool {
	return te.Line > 0
}
