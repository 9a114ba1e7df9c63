// Package options resolves the bootstrap configuration from command line
// values, answers-file defaults and interactive prompts.
package options

import (
	"github.com/hay-kot/vmboot/internal/spec"
)

// Kind controls how many values an option collects.
type Kind int

const (
	// Single options hold one value.
	Single Kind = iota
	// Append options accumulate values across repeated prompts and flags.
	Append
)

const (
	KeyVMHost = "vm_host"
	KeyVMIP   = "vm_ip"
	KeyPlugin = "plugins"
	KeyTheme  = "themes"
)

// Option describes one recognized configuration value.
type Option struct {
	Key    string // record field name, also the template placeholder
	Short  string
	Long   string
	Prompt string
	Help   string
	Kind   Kind

	// Validate is applied to every value, prompted or supplied. nil accepts
	// anything.
	Validate func(string) error
}

func (o Option) validate(v string) error {
	if o.Validate == nil {
		return nil
	}
	return o.Validate(v)
}

// DefaultTable returns the options vmboot recognizes, in prompt order.
func DefaultTable() []Option {
	return []Option{
		{
			Key:    KeyVMHost,
			Short:  "H",
			Long:   "vm-host",
			Prompt: "VM hostname",
			Help:   "Hostname assigned to the virtual machine, e.g. dev.local. It is also used for the task runner URLs.",
			Kind:   Single,
		},
		{
			Key:    KeyVMIP,
			Short:  "a",
			Long:   "vm-ip",
			Prompt: "VM IP address",
			Help:   "Private network address for the virtual machine, e.g. 192.168.56.10.",
			Kind:   Single,
		},
		{
			Key:      KeyPlugin,
			Short:    "p",
			Long:     "plugin",
			Prompt:   "Plugin source",
			Help:     "A git source for a plugin. Use 'source|Name' to set the name, otherwise it is taken from the last path segment with any plugin_ prefix and .git suffix removed. Leave empty to finish.",
			Kind:     Append,
			Validate: spec.Validate,
		},
		{
			Key:      KeyTheme,
			Short:    "t",
			Long:     "theme",
			Prompt:   "Theme source",
			Help:     "A git source for a theme. Use 'source|Name' to set the name, otherwise it is taken from the last path segment with any theme_ prefix and .git suffix removed. Leave empty to finish.",
			Kind:     Append,
			Validate: spec.Validate,
		},
	}
}
