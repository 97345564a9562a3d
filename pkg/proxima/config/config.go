package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/proxima/pkg/proxima/group"
	"github.com/cognicore/proxima/pkg/proxima/internalerr"
)

// Analysis is the analysis configuration file.
type Analysis struct {
	Name     string   `yaml:"name"`
	Window   *int     `yaml:"window"`
	Tags     []string `yaml:"tags"`
	TagClass string   `yaml:"tag_class"`
	Groups   []Group  `yaml:"groups"`
	// GroupsFile and Stoplist are resolved relative to the analysis file.
	GroupsFile string `yaml:"groups_file"`
	Stoplist   string `yaml:"stoplist"`
	Exclusion  string `yaml:"exclusion"`
	LowerBound bool   `yaml:"lower_bound"`
	Workers    int    `yaml:"workers"`

	dir string
}

// Group describes one group. Builtin names a predefined group whose members
// are extended by the listed ones.
type Group struct {
	Name    string   `yaml:"name"`
	Builtin string   `yaml:"builtin"`
	Members []string `yaml:"members"`
	Subject []string `yaml:"subject"`
	Object  []string `yaml:"object"`
}

// Groups is the standalone groups file.
type Groups struct {
	Groups []Group `yaml:"groups"`
}

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadAnalysis loads an analysis configuration from a YAML file
func LoadAnalysis(path string) (*Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var a Analysis
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	a.dir = filepath.Dir(path)
	return &a, nil
}

// resolve returns p relative to the analysis file's directory.
func (a *Analysis) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || a.dir == "" {
		return p
	}
	return filepath.Join(a.dir, p)
}

// LoadGroups loads group definitions from a YAML file
func LoadGroups(path string) (*Groups, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var g Groups
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &g, nil
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &sl, nil
}

// Build turns the description into a validated group.
func (g Group) Build() (group.Group, error) {
	var out group.Group
	if g.Builtin != "" {
		b, ok := group.Builtin(g.Builtin)
		if !ok {
			return group.Group{}, fmt.Errorf("builtin group %q: %w", g.Builtin, internalerr.ErrInvalidConfig)
		}
		out = group.NewFromSets(b.Name,
			append(b.Identifiers(), g.Members...),
			append(b.SubjectForms(), g.Subject...),
			append(b.ObjectForms(), g.Object...))
		if g.Name != "" {
			out.Name = g.Name
		}
	} else {
		out = group.NewFromSets(g.Name, g.Members, g.Subject, g.Object)
	}
	if err := out.Validate(); err != nil {
		return group.Group{}, err
	}
	return out, nil
}

// BuildGroups builds every group and checks the list as a whole.
func BuildGroups(defs []Group) ([]group.Group, error) {
	out := make([]group.Group, 0, len(defs))
	for _, s := range defs {
		g, err := s.Build()
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := group.ValidateAll(out); err != nil {
		return nil, err
	}
	return out, nil
}
