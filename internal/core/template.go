package core

// Template pairs a template source with the file it renders to.
type Template struct {
	Template string `yaml:"template" toml:"template"` // path inside the template source
	Output   string `yaml:"output"   toml:"output"`   // path relative to the destination directory
	When     string `yaml:"when"     toml:"when"`     // optional expr condition, empty always renders
	Mode     string `yaml:"mode"     toml:"mode"`     // octal permissions, default 0644
}

// DefaultTemplates is the fixed, ordered list rendered when the config file
// does not replace it.
func DefaultTemplates() []Template {
	return []Template{
		{Template: "Taskfile.yml.tmpl", Output: "Taskfile.yml"},
		{Template: "Vagrantfile.tmpl", Output: "Vagrantfile"},
		{Template: "manifests/default.pp.tmpl", Output: "provision/manifests/default.pp"},
		{Template: "manifests/extensions.pp.tmpl", Output: "provision/manifests/extensions.pp"},
	}
}
