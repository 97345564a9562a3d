package config

import (
	"fmt"

	"github.com/cognicore/proxima/pkg/proxima/group"
	"github.com/cognicore/proxima/pkg/proxima/internalerr"
	"github.com/cognicore/proxima/pkg/proxima/pos"
	"github.com/cognicore/proxima/pkg/proxima/proximity"
	"github.com/cognicore/proxima/pkg/proxima/stoplist"
	"github.com/cognicore/proxima/pkg/proxima/window"
)

// Loader loads all configuration files and constructs components. The
// standalone paths override what the analysis file names.
type Loader struct {
	AnalysisPath string
	GroupsPath   string
	StoplistPath string
}

// Components holds all loaded configuration components
type Components struct {
	Name       string
	Window     int
	Tags       pos.TagSet
	Groups     []group.Group
	Stoplist   *stoplist.Manager
	Exclusion  group.ExclusionMode
	LowerBound bool
	Workers    int
}

// Load reads all configuration files and returns initialized components
func (l *Loader) Load() (*Components, error) {
	a := &Analysis{}
	if l.AnalysisPath != "" {
		loaded, err := LoadAnalysis(l.AnalysisPath)
		if err != nil {
			return nil, fmt.Errorf("load analysis: %w", err)
		}
		a = loaded
	}

	comp := &Components{
		Name:       a.Name,
		Window:     window.DefaultWindow,
		LowerBound: a.LowerBound,
		Workers:    a.Workers,
	}
	if a.Window != nil {
		comp.Window = *a.Window
	}
	if comp.Window < 0 {
		return nil, fmt.Errorf("window %d: %w", comp.Window, internalerr.ErrInvalidConfig)
	}

	// Tags
	switch {
	case len(a.Tags) > 0 && a.TagClass != "":
		return nil, fmt.Errorf("both tags and tag_class set: %w", internalerr.ErrInvalidConfig)
	case len(a.Tags) > 0:
		ts, err := pos.NewTagSet(a.Tags...)
		if err != nil {
			return nil, err
		}
		comp.Tags = ts
	case a.TagClass != "":
		ts, err := pos.TagSetForClass(a.TagClass)
		if err != nil {
			return nil, err
		}
		comp.Tags = ts
	default:
		comp.Tags = pos.Adjectives()
	}

	// Groups
	defs := a.Groups
	groupsPath := l.GroupsPath
	if groupsPath == "" {
		groupsPath = a.resolve(a.GroupsFile)
	}
	if groupsPath != "" {
		gf, err := LoadGroups(groupsPath)
		if err != nil {
			return nil, fmt.Errorf("load groups: %w", err)
		}
		defs = gf.Groups
	}
	if len(defs) > 0 {
		groups, err := BuildGroups(defs)
		if err != nil {
			return nil, err
		}
		comp.Groups = groups
	} else {
		comp.Groups = group.Binary()
	}

	// Stoplist
	stopPath := l.StoplistPath
	if stopPath == "" {
		stopPath = a.resolve(a.Stoplist)
	}
	if stopPath != "" {
		sl, err := LoadStoplist(stopPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		comp.Stoplist = stoplist.NewManager(sl.Terms)
	} else {
		comp.Stoplist = stoplist.English()
	}

	mode, err := group.ParseExclusionMode(a.Exclusion)
	if err != nil {
		return nil, err
	}
	comp.Exclusion = mode

	return comp, nil
}

// ProximityOptions maps the components onto analyzer options. Tagger and
// logger are left for the caller.
func (c *Components) ProximityOptions() proximity.Options {
	return proximity.Options{
		Name:       c.Name,
		Groups:     c.Groups,
		Tags:       c.Tags,
		Window:     proximity.WindowSize(c.Window),
		Exclusion:  c.Exclusion,
		Stoplist:   c.Stoplist,
		Workers:    c.Workers,
		LowerBound: c.LowerBound,
	}
}
