// Package catalog holds the YAML-defined functional areas and skill options.
package catalog

import (
	_ "embed"
	"errors"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the catalog override file looked up in the data directory.
const FileName = "catalog.yml"

//go:embed catalog.yml
var defaultYAML []byte

// Area is one functional area a candidate can be mapped to.
type Area struct {
	Name string `yaml:"name"`
	Code string `yaml:"code"`
}

// Config is the top-level YAML structure.
type Config struct {
	FunctionalAreas []Area   `yaml:"functional_areas"`
	Skills          []string `yaml:"skills"`
}

// Catalog answers membership queries over a loaded Config.
type Catalog struct {
	areas  map[string]*Area  // keyed by lower-cased name
	skills map[string]string // lower-cased -> canonical
	cfg    Config
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic("catalog: invalid embedded catalog.yml: " + err.Error())
	}
	return c
}

// Load reads the YAML file at path.
// If the file does not exist, Load returns the built-in catalog.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return Parse(data)
}

// Parse builds a Catalog from YAML bytes.
func Parse(data []byte) (*Catalog, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.FunctionalAreas) == 0 {
		return nil, errors.New("catalog has no functional areas")
	}

	c := &Catalog{
		cfg:    cfg,
		areas:  make(map[string]*Area, len(cfg.FunctionalAreas)),
		skills: make(map[string]string, len(cfg.Skills)),
	}
	for i := range cfg.FunctionalAreas {
		a := &cfg.FunctionalAreas[i]
		c.areas[fold(a.Name)] = a
	}
	for _, s := range cfg.Skills {
		c.skills[fold(s)] = s
	}
	return c, nil
}

// AreaNames returns the functional area names in definition order.
func (c *Catalog) AreaNames() []string {
	out := make([]string, 0, len(c.cfg.FunctionalAreas))
	for _, a := range c.cfg.FunctionalAreas {
		out = append(out, a.Name)
	}
	return out
}

// Skills returns the skill options in definition order.
func (c *Catalog) Skills() []string {
	out := make([]string, len(c.cfg.Skills))
	copy(out, c.cfg.Skills)
	return out
}

// KnownArea reports whether name is a functional area, ignoring case.
func (c *Catalog) KnownArea(name string) bool {
	_, ok := c.areas[fold(name)]
	return ok
}

// Area returns the functional area called name, ignoring case.
func (c *Catalog) Area(name string) (*Area, bool) {
	a, ok := c.areas[fold(name)]
	return a, ok
}

// KnownSkill reports whether skill is an offered option, ignoring case.
func (c *Catalog) KnownSkill(skill string) bool {
	_, ok := c.skills[fold(skill)]
	return ok
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
