package generator

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/hay-kot/vmboot/internal/core"
)

func testVars() map[string]any {
	return map[string]any{
		"vm_host": "dev.local",
		"vm_ip":   "192.168.56.10",
		"plugins": []map[string]any{
			{"source": "git://host/plugin_chat.git", "name": "chat"},
			{"source": "git://host/Polls", "name": "Polls"},
		},
		"themes":      []map[string]any{},
		"interactive": false,
		"batch":       true,
	}
}

func TestEngine_Render(t *testing.T) {
	source := fstest.MapFS{
		"hosts.tmpl":          {Data: []byte("{{ .vm_ip }} {{ .vm_host }}\n")},
		"nested/plugins.tmpl": {Data: []byte("{{ range .plugins }}{{ .name }}={{ .source }}\n{{ end }}")},
	}

	dest := t.TempDir()
	out := &bytes.Buffer{}
	engine := NewEngine(source, Config{Dest: dest, StrictMode: true}, out)

	jobs := []core.Template{
		{Template: "hosts.tmpl", Output: "etc/hosts"},
		{Template: "nested/plugins.tmpl", Output: "deep/er/plugins.txt", Mode: "0600"},
	}

	results, err := engine.Render(context.Background(), jobs, testVars())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("Render() returned %d results, want 2", len(results))
	}

	hosts, err := os.ReadFile(filepath.Join(dest, "etc/hosts"))
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if string(hosts) != "192.168.56.10 dev.local\n" {
		t.Errorf("hosts = %q", hosts)
	}

	plugins, err := os.ReadFile(filepath.Join(dest, "deep/er/plugins.txt"))
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	want := "chat=git://host/plugin_chat.git\nPolls=git://host/Polls\n"
	if string(plugins) != want {
		t.Errorf("plugins = %q, want %q", plugins, want)
	}

	info, err := os.Stat(filepath.Join(dest, "deep/er/plugins.txt"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	progress := out.String()
	for _, want := range []string{"hosts.tmpl", "etc/hosts", "2 templates generated"} {
		if !strings.Contains(progress, want) {
			t.Errorf("progress output missing %q:\n%s", want, progress)
		}
	}
}

func TestEngine_RenderIsIdempotent(t *testing.T) {
	dest := t.TempDir()
	engine := NewEngine(Builtin(), Config{Dest: dest, StrictMode: true}, nil)
	jobs := core.DefaultTemplates()

	read := func() map[string][]byte {
		got := map[string][]byte{}
		for _, job := range jobs {
			data, err := os.ReadFile(filepath.Join(dest, job.Output))
			if err != nil {
				t.Fatalf("failed to read %s: %v", job.Output, err)
			}
			got[job.Output] = data
		}
		return got
	}

	if _, err := engine.Render(context.Background(), jobs, testVars()); err != nil {
		t.Fatalf("first Render() error = %v", err)
	}
	first := read()

	if _, err := engine.Render(context.Background(), jobs, testVars()); err != nil {
		t.Fatalf("second Render() error = %v", err)
	}
	second := read()

	for name, data := range first {
		if !bytes.Equal(data, second[name]) {
			t.Errorf("%s differs between renders", name)
		}
	}
}

func TestEngine_BuiltinTemplates(t *testing.T) {
	engine := NewEngine(Builtin(), Config{StrictMode: true}, nil)

	for _, job := range core.DefaultTemplates() {
		t.Run(job.Template, func(t *testing.T) {
			data, err := engine.Execute(job, testVars())
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if !bytes.Contains(data, []byte("Generated by vmboot")) {
				t.Errorf("%s missing header:\n%s", job.Template, data)
			}
		})
	}

	t.Run("blank record", func(t *testing.T) {
		vars := map[string]any{
			"vm_host":     "",
			"vm_ip":       "",
			"plugins":     []map[string]any{},
			"themes":      []map[string]any{},
			"interactive": false,
			"batch":       true,
		}
		for _, job := range core.DefaultTemplates() {
			if _, err := engine.Execute(job, vars); err != nil {
				t.Errorf("Execute(%s) error = %v", job.Template, err)
			}
		}
	})

	t.Run("extensions manifest lists plugins", func(t *testing.T) {
		data, err := engine.Execute(core.Template{Template: "manifests/extensions.pp.tmpl"}, testVars())
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		for _, want := range []string{"plugins/chat", "source   => 'git://host/plugin_chat.git'", "plugins/Polls"} {
			if !bytes.Contains(data, []byte(want)) {
				t.Errorf("manifest missing %q:\n%s", want, data)
			}
		}
	})

	t.Run("vagrantfile uses extra vars", func(t *testing.T) {
		vars := testVars()
		vars["box"] = "ubuntu/noble64"

		data, err := engine.Execute(core.Template{Template: "Vagrantfile.tmpl"}, vars)
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if !bytes.Contains(data, []byte(`config.vm.box = "ubuntu/noble64"`)) {
			t.Errorf("Vagrantfile missing box override:\n%s", data)
		}
		if !bytes.Contains(data, []byte(`ip: "192.168.56.10"`)) {
			t.Errorf("Vagrantfile missing ip:\n%s", data)
		}
	})
}

func TestEngine_When(t *testing.T) {
	source := fstest.MapFS{
		"a.tmpl": {Data: []byte("a")},
	}
	dest := t.TempDir()
	engine := NewEngine(source, Config{Dest: dest}, nil)

	jobs := []core.Template{
		{Template: "a.tmpl", Output: "themes.txt", When: "len(themes) > 0"},
		{Template: "a.tmpl", Output: "plugins.txt", When: "len(plugins) > 0"},
	}

	results, err := engine.Render(context.Background(), jobs, testVars())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if !results[0].Skipped || results[1].Skipped {
		t.Errorf("skipped = %v/%v, want true/false", results[0].Skipped, results[1].Skipped)
	}
	if _, err := os.Stat(filepath.Join(dest, "themes.txt")); !os.IsNotExist(err) {
		t.Error("skipped template should not be written")
	}

	_, err = engine.Render(context.Background(), []core.Template{
		{Template: "a.tmpl", Output: "x", When: "vm_host +"},
	}, testVars())
	if err == nil {
		t.Error("expected error for invalid when expression")
	}
}

func TestEngine_Errors(t *testing.T) {
	source := fstest.MapFS{
		"bad.tmpl":     {Data: []byte("line one\n{{ .vm_host }\nline three\n")},
		"missing.tmpl": {Data: []byte("one\ntwo {{ .nope }}\n")},
		"ok.tmpl":      {Data: []byte("ok")},
	}

	t.Run("missing template", func(t *testing.T) {
		engine := NewEngine(source, Config{Dest: t.TempDir()}, nil)
		_, err := engine.Render(context.Background(), []core.Template{{Template: "absent.tmpl", Output: "x"}}, testVars())
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Render() error = %v, want fs.ErrNotExist", err)
		}
	})

	t.Run("parse error", func(t *testing.T) {
		engine := NewEngine(source, Config{Dest: t.TempDir()}, nil)
		_, err := engine.Render(context.Background(), []core.Template{{Template: "bad.tmpl", Output: "x"}}, testVars())

		var te *TemplateError
		if !errors.As(err, &te) {
			t.Fatalf("Render() error = %v, want *TemplateError", err)
		}
		if te.Line != 2 {
			t.Errorf("Line = %d, want 2", te.Line)
		}
		if len(te.Context) == 0 {
			t.Error("expected source context lines")
		}
	})

	t.Run("strict missing key", func(t *testing.T) {
		engine := NewEngine(source, Config{Dest: t.TempDir(), StrictMode: true}, nil)
		_, err := engine.Render(context.Background(), []core.Template{{Template: "missing.tmpl", Output: "x"}}, testVars())

		var te *TemplateError
		if !errors.As(err, &te) {
			t.Fatalf("Render() error = %v, want *TemplateError", err)
		}
		if !strings.Contains(te.Message, "missing key") {
			t.Errorf("Message = %q", te.Message)
		}
	})

	t.Run("uncreatable directory", func(t *testing.T) {
		dest := t.TempDir()
		blocker := filepath.Join(dest, "blocker")
		if err := os.WriteFile(blocker, []byte("file"), 0o644); err != nil {
			t.Fatal(err)
		}

		engine := NewEngine(source, Config{Dest: dest}, nil)
		_, err := engine.Render(context.Background(), []core.Template{
			{Template: "ok.tmpl", Output: "first.txt"},
			{Template: "ok.tmpl", Output: "blocker/inner/x.txt"},
			{Template: "ok.tmpl", Output: "never.txt"},
		}, testVars())
		if err == nil {
			t.Fatal("expected error when the parent path is a file")
		}

		if _, err := os.Stat(filepath.Join(dest, "first.txt")); err != nil {
			t.Error("templates before the failure should stay written")
		}
		if _, err := os.Stat(filepath.Join(dest, "never.txt")); !os.IsNotExist(err) {
			t.Error("rendering should stop at the first failure")
		}
	})
}

func TestEngine_DryRun(t *testing.T) {
	source := fstest.MapFS{
		"hosts.tmpl": {Data: []byte("{{ .vm_ip }} {{ .vm_host }}")},
	}
	dest := t.TempDir()
	out := &bytes.Buffer{}

	engine := NewEngine(source, Config{Dest: dest, DryRun: true}, out)
	if _, err := engine.Render(context.Background(), []core.Template{{Template: "hosts.tmpl", Output: "hosts"}}, testVars()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if !strings.Contains(out.String(), "192.168.56.10 dev.local") {
		t.Errorf("dry run output = %q", out.String())
	}
	if _, err := os.Stat(filepath.Join(dest, "hosts")); !os.IsNotExist(err) {
		t.Error("dry run should not write files")
	}
}

func TestSource(t *testing.T) {
	if _, err := Source(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("expected error for missing templates directory")
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "x.tmpl"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := Source(dir)
	if err != nil {
		t.Fatalf("Source() error = %v", err)
	}
	if _, err := fs.ReadFile(src, "x.tmpl"); err != nil {
		t.Errorf("ReadFile() error = %v", err)
	}

	if _, err := fs.Stat(Builtin(), "Taskfile.yml.tmpl"); err != nil {
		t.Errorf("builtin templates missing Taskfile: %v", err)
	}
}
