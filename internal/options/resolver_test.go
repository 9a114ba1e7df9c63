package options

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/hay-kot/vmboot/internal/spec"
)

// scriptedPrompter answers questions from a fixed script and records what it
// was asked.
type scriptedPrompter struct {
	answers []string
	asked   []Question
	helped  []string
	invalid []string
}

func (sp *scriptedPrompter) Ask(_ context.Context, q Question) (string, error) {
	sp.asked = append(sp.asked, q)
	if len(sp.answers) == 0 {
		return "", nil
	}
	a := sp.answers[0]
	sp.answers = sp.answers[1:]
	return a, nil
}

func (sp *scriptedPrompter) Help(_ context.Context, opt Option) error {
	sp.helped = append(sp.helped, opt.Key)
	return nil
}

func (sp *scriptedPrompter) Invalid(_ context.Context, opt Option, input string, _ error) error {
	sp.invalid = append(sp.invalid, input)
	return nil
}

func TestResolve_Batch(t *testing.T) {
	sp := &scriptedPrompter{}
	r := NewResolver(DefaultTable(), sp)

	rec, err := r.Resolve(context.Background(), Values{
		KeyVMHost: {"dev.local"},
		KeyPlugin: {"git://host/plugin_A"},
	}, Mode{Batch: true, Interactive: true})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if len(sp.asked) != 0 {
		t.Errorf("batch mode asked %d questions, want 0", len(sp.asked))
	}
	if rec.VMHost() != "dev.local" {
		t.Errorf("VMHost() = %q, want dev.local", rec.VMHost())
	}
	if rec.VMIP() != "" {
		t.Errorf("VMIP() = %q, want blank", rec.VMIP())
	}
	if len(rec.Themes()) != 0 {
		t.Errorf("Themes() = %v, want empty", rec.Themes())
	}
	if !rec.Batch() {
		t.Error("Batch() = false, want true")
	}
}

func TestResolve_BatchWithoutPrompter(t *testing.T) {
	r := NewResolver(DefaultTable(), nil)

	rec, err := r.Resolve(context.Background(), Values{}, Mode{Batch: true})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if rec.VMHost() != "" || rec.VMIP() != "" {
		t.Errorf("expected blank record, got host=%q ip=%q", rec.VMHost(), rec.VMIP())
	}
}

func TestResolve_BatchValidatesSpecs(t *testing.T) {
	r := NewResolver(DefaultTable(), nil)

	_, err := r.Resolve(context.Background(), Values{
		KeyTheme: {"no-slash"},
	}, Mode{Batch: true})
	if !errors.Is(err, spec.ErrMalformed) {
		t.Errorf("Resolve() error = %v, want ErrMalformed", err)
	}
}

func TestResolve_PromptsForMissing(t *testing.T) {
	sp := &scriptedPrompter{
		answers: []string{
			// vm_ip
			"192.168.56.10",
			// plugins
			"git://host/plugin_A",
			"git://host/B|Bee",
			"",
			// themes
			"",
		},
	}
	r := NewResolver(DefaultTable(), sp)

	rec, err := r.Resolve(context.Background(), Values{
		KeyVMHost: {"dev.local"},
	}, Mode{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	for _, q := range sp.asked {
		if q.Option.Key == KeyVMHost {
			t.Error("supplied vm_host should not be prompted")
		}
	}

	if rec.VMHost() != "dev.local" {
		t.Errorf("VMHost() = %q", rec.VMHost())
	}
	if rec.VMIP() != "192.168.56.10" {
		t.Errorf("VMIP() = %q", rec.VMIP())
	}

	want := []string{"git://host/plugin_A", "git://host/B|Bee"}
	if !slices.Equal(rec.Plugins(), want) {
		t.Errorf("Plugins() = %v, want %v", rec.Plugins(), want)
	}
	if len(rec.Themes()) != 0 {
		t.Errorf("Themes() = %v, want empty", rec.Themes())
	}
}

func TestResolve_HelpAndInvalid(t *testing.T) {
	sp := &scriptedPrompter{
		answers: []string{
			"?",         // vm_host help
			"dev.local", // vm_host
			"",          // vm_ip blank
			"?",         // plugins help
			"bare",      // rejected
			"git://host/plugin_A",
			"",
			"", // themes
		},
	}
	r := NewResolver(DefaultTable(), sp)

	rec, err := r.Resolve(context.Background(), Values{}, Mode{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if !slices.Equal(sp.helped, []string{KeyVMHost, KeyPlugin}) {
		t.Errorf("helped = %v", sp.helped)
	}
	if !slices.Equal(sp.invalid, []string{"bare"}) {
		t.Errorf("invalid = %v", sp.invalid)
	}
	if rec.VMHost() != "dev.local" {
		t.Errorf("VMHost() = %q", rec.VMHost())
	}
	if rec.VMIP() != "" {
		t.Errorf("VMIP() = %q, want blank", rec.VMIP())
	}
	if !slices.Equal(rec.Plugins(), []string{"git://host/plugin_A"}) {
		t.Errorf("Plugins() = %v", rec.Plugins())
	}
}

func TestResolve_InteractiveUsesSuppliedAsDefault(t *testing.T) {
	sp := &scriptedPrompter{
		answers: []string{
			"",          // keep vm_host default
			"10.0.0.2",  // replace vm_ip
			"",          // keep plugins
			"git://host/theme_Dark",
			"",
		},
	}
	r := NewResolver(DefaultTable(), sp)

	rec, err := r.Resolve(context.Background(), Values{
		KeyVMHost: {"dev.local"},
		KeyVMIP:   {"10.0.0.1"},
		KeyPlugin: {"git://host/plugin_A"},
	}, Mode{Interactive: true})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if sp.asked[0].Default != "dev.local" {
		t.Errorf("vm_host default = %q, want dev.local", sp.asked[0].Default)
	}
	if sp.asked[2].Count != 1 {
		t.Errorf("plugin prompt count = %d, want 1", sp.asked[2].Count)
	}
	if rec.VMHost() != "dev.local" {
		t.Errorf("VMHost() = %q", rec.VMHost())
	}
	if rec.VMIP() != "10.0.0.2" {
		t.Errorf("VMIP() = %q", rec.VMIP())
	}
	if !slices.Equal(rec.Plugins(), []string{"git://host/plugin_A"}) {
		t.Errorf("Plugins() = %v", rec.Plugins())
	}
	if !slices.Equal(rec.Themes(), []string{"git://host/theme_Dark"}) {
		t.Errorf("Themes() = %v", rec.Themes())
	}
	if !rec.Interactive() {
		t.Error("Interactive() = false")
	}
}

func TestResolve_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewResolver(DefaultTable(), NewLinePrompter(strings.NewReader("x\n"), &bytes.Buffer{}))
	if _, err := r.Resolve(ctx, Values{}, Mode{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Resolve() error = %v, want context.Canceled", err)
	}
}

func TestResolve_LinePrompter(t *testing.T) {
	in := strings.NewReader(strings.Join([]string{
		"dev.local",
		"?",
		"192.168.56.10",
		"git://host/plugin_A.git",
		"",
	}, "\n") + "\n")
	out := &bytes.Buffer{}

	r := NewResolver(DefaultTable(), NewLinePrompter(in, out))

	// input runs out before themes, which reads as an empty answer
	rec, err := r.Resolve(context.Background(), Values{}, Mode{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if rec.VMIP() != "192.168.56.10" {
		t.Errorf("VMIP() = %q", rec.VMIP())
	}

	vars, err := rec.Vars()
	if err != nil {
		t.Fatalf("Vars() error = %v", err)
	}

	plugins := vars[KeyPlugin].([]map[string]any)
	if len(plugins) != 1 || plugins[0]["name"] != "A" {
		t.Errorf("plugins = %v", plugins)
	}

	text := out.String()
	for _, want := range []string{"VM hostname", "VM IP address", "Private network address", "Plugin source", "Theme source", "#1"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestRecordCopies(t *testing.T) {
	rec := newRecord(Values{KeyPlugin: {"git://host/a|A"}}, Mode{})

	plugins := rec.Plugins()
	plugins[0] = "changed"

	if rec.Plugins()[0] != "git://host/a|A" {
		t.Error("record was mutated through Plugins()")
	}
}

func TestValuesMerge(t *testing.T) {
	base := Values{KeyVMHost: {"a"}, KeyVMIP: {"1"}}
	got := base.Merge(Values{KeyVMHost: {"b"}})

	if got[KeyVMHost][0] != "b" || got[KeyVMIP][0] != "1" {
		t.Errorf("Merge() = %v", got)
	}
	if base[KeyVMHost][0] != "a" {
		t.Error("Merge() mutated the receiver")
	}
}
