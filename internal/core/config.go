package core

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"

	"github.com/hay-kot/vmboot/pkgs/fcrypt"
)

const (
	EnvPrefix         = "VMBOOT_"
	DefaultConfigPath = "vmboot.yml"
)

type Flags struct {
	LogLevel       string
	ConfigFilePath string
	ConfigRequired bool // the config path was given explicitly
}

type ConfigFile struct {
	Dest         string         `yaml:"dest"          toml:"dest"`
	TemplatesDir string         `yaml:"templates_dir" toml:"templates_dir"`
	StrictMode   bool           `yaml:"strict_mode"   toml:"strict_mode"`
	Defaults     Answers        `yaml:"defaults"      toml:"defaults"`
	Vars         map[string]any `yaml:"vars"          toml:"vars"`
	VarFiles     []VarFile      `yaml:"var_files"     toml:"var_files"`
	Age          Age            `yaml:"age"           toml:"age"`
	Templates    []Template     `yaml:"templates"     toml:"templates"`

	resolver PathResolver
}

// Answers are pre-supplied option values, keyed like the option table.
type Answers struct {
	VMHost  string   `yaml:"vm_host,omitempty" toml:"vm_host,omitempty"`
	VMIP    string   `yaml:"vm_ip,omitempty"   toml:"vm_ip,omitempty"`
	Plugins []string `yaml:"plugins,omitempty" toml:"plugins,omitempty"`
	Themes  []string `yaml:"themes,omitempty"  toml:"themes,omitempty"`
}

type VarFile struct {
	Path    string `yaml:"path"  toml:"path"`
	IsVault bool   `yaml:"vault" toml:"vault"`
}

type Age struct {
	Recipients   []string `yaml:"recipients"    toml:"recipients"`
	IdentityFile string   `yaml:"identity_file" toml:"identity_file"`
}

// SetupEnv loads the config file at cfgpath. When the file does not exist and
// required is false an empty config rooted in the current directory is
// returned instead.
func SetupEnv(cfgpath string, required bool) (ConfigFile, error) {
	cfg := ConfigFile{
		StrictMode: true,
		Vars:       map[string]any{},
	}

	if cfgpath == "" {
		cfgpath = DefaultConfigPath
	}

	absolutePath, err := filepath.Abs(cfgpath)
	if err != nil {
		return cfg, err
	}

	cfg.resolver = PathResolver{configDir: filepath.Dir(absolutePath)}

	data, err := os.ReadFile(absolutePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			log.Debug().Str("path", absolutePath).Msg("no config file, using defaults")
			cfg.resolver = PathResolver{}
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	log.Debug().Str("path", absolutePath).Msg("loading config file")

	if err := decode(absolutePath, data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", cfgpath, err)
	}

	return cfg, nil
}

// decode picks the format from the file extension. Anything that is not
// .toml is read as YAML.
func decode(path string, data []byte, v any) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		_, err := toml.Decode(string(data), v)
		return err
	}

	return yaml.Unmarshal(data, v)
}

// Resolve resolves a path relative to the config file directory.
func (c ConfigFile) Resolve(p string) (string, error) {
	return c.resolver.Resolve(p)
}

// DestDir returns the resolved output directory. override wins when set.
func (c ConfigFile) DestDir(override string) (string, error) {
	if override != "" {
		return PathResolver{}.Resolve(override)
	}

	dest := c.Dest
	if dest == "" {
		dest = "."
	}

	return c.Resolve(dest)
}

// TemplateJobs returns the configured template pairs, or the built-in list
// when none are configured.
func (c ConfigFile) TemplateJobs() []Template {
	if len(c.Templates) > 0 {
		return c.Templates
	}
	return DefaultTemplates()
}

// EncryptedFiles returns the vault var files that should be encrypted.
func (c ConfigFile) EncryptedFiles() ([]string, error) {
	files := []string{}

	for _, vf := range c.VarFiles {
		if !vf.IsVault {
			continue
		}

		p, err := c.Resolve(vf.Path)
		if err != nil {
			return nil, err
		}

		files = append(files, p)
	}

	return files, nil
}

// LoadVars merges the config vars with every var file, later files taking
// precedence. Missing var files are skipped with a warning.
func (c ConfigFile) LoadVars() (map[string]any, error) {
	vars := MergeMaps(c.Vars)

	var identity age.Identity
	if c.Age.IdentityFile != "" {
		id, err := c.ReadIdentity()
		if err != nil {
			log.Warn().Err(err).Msg("failed to load identity file")
		}
		identity = id
	}

	for _, vf := range c.VarFiles {
		fileVars, err := c.loadVarsFile(vf, identity)
		if err != nil {
			return nil, fmt.Errorf("failed to load vars file %s: %w", vf.Path, err)
		}

		maps.Copy(vars, fileVars)
	}

	return vars, nil
}

func (c ConfigFile) loadVarsFile(vf VarFile, identity age.Identity) (map[string]any, error) {
	path, err := c.Resolve(vf.Path)
	if err != nil {
		return nil, err
	}

	if vf.IsVault && filepath.Ext(path) != ".age" {
		path += ".age"
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("path", path).Msg("vars file does not exist, skipping")
		return nil, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var data bytes.Buffer
	if vf.IsVault {
		if identity == nil {
			return nil, fmt.Errorf("no identity loaded for encrypted file %s", path)
		}

		if err := fcrypt.DecryptReader(file, &data, identity); err != nil {
			return nil, err
		}
	} else if _, err := data.ReadFrom(file); err != nil {
		return nil, err
	}

	vars := map[string]any{}
	if err := decode(strings.TrimSuffix(path, ".age"), data.Bytes(), &vars); err != nil {
		return nil, err
	}

	log.Debug().Str("path", path).Int("count", len(vars)).Msg("loaded vars file")
	return vars, nil
}

// ReadIdentity loads the age identity from the configured identity file.
func (a Age) ReadIdentity(resolve func(string) (string, error)) (age.Identity, error) {
	path, err := resolve(a.IdentityFile)
	if err != nil {
		return nil, err
	}

	identityData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read identity file %s: %w", a.IdentityFile, err)
	}

	// Parse the identity file, skipping comments and empty lines
	var keyLine string
	for line := range strings.SplitSeq(string(identityData), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			keyLine = line
			break
		}
	}

	if keyLine == "" {
		return nil, fmt.Errorf("no valid key found in identity file %s", a.IdentityFile)
	}

	identity, err := fcrypt.LoadPrivateKey(keyLine)
	if err != nil {
		return nil, fmt.Errorf("failed to load private key: %w", err)
	}

	return identity, nil
}

// ReadIdentity loads the configured age identity, resolving its path
// against the config directory.
func (c ConfigFile) ReadIdentity() (age.Identity, error) {
	return c.Age.ReadIdentity(c.Resolve)
}

// WriteAnswers writes answers as a config file holding only a defaults block.
func WriteAnswers(path string, answers Answers) error {
	doc := struct {
		Defaults Answers `yaml:"defaults"`
	}{Defaults: answers}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create answers directory: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// MergeMaps merges multiple maps with later maps taking precedence over earlier ones.
// Returns a new map without modifying the input maps.
func MergeMaps[K comparable, V any](mps ...map[K]V) map[K]V {
	result := make(map[K]V)

	for _, m := range mps {
		maps.Copy(result, m)
	}

	return result
}
