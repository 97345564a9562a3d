// Package group defines labeled groups of identifier tokens (pronouns and
// names) whose occurrences the analyzers look for.
package group

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cognicore/proxima/pkg/proxima/internalerr"
)

// PronounSeries is a named set of pronouns with its subject and object forms.
type PronounSeries struct {
	ID       string
	Pronouns []string
	Subject  string
	Object   string
}

// NewSeries lowercases the pronouns and subject/object forms.
func NewSeries(id string, pronouns []string, subj, obj string) PronounSeries {
	lowered := make([]string, 0, len(pronouns))
	for _, p := range pronouns {
		lowered = append(lowered, strings.ToLower(p))
	}
	sort.Strings(lowered)
	return PronounSeries{
		ID:       id,
		Pronouns: lowered,
		Subject:  strings.ToLower(subj),
		Object:   strings.ToLower(obj),
	}
}

// Group is a label and the member tokens that count as an occurrence of it.
// Subject and Object are optional subsets of Members.
type Group struct {
	Name    string
	Members map[string]struct{}
	Subject map[string]struct{}
	Object  map[string]struct{}
}

// New builds a group from one or more pronoun series plus optional names.
// Names are matched case-insensitively like pronouns.
func New(name string, series []PronounSeries, names ...string) Group {
	g := Group{
		Name:    name,
		Members: make(map[string]struct{}),
		Subject: make(map[string]struct{}),
		Object:  make(map[string]struct{}),
	}
	for _, s := range series {
		for _, p := range s.Pronouns {
			g.Members[p] = struct{}{}
		}
		if s.Subject != "" {
			g.Subject[s.Subject] = struct{}{}
		}
		if s.Object != "" {
			g.Object[s.Object] = struct{}{}
		}
	}
	for _, n := range names {
		g.Members[strings.ToLower(n)] = struct{}{}
	}
	return g
}

// NewFromSets builds a group directly from member, subject and object lists.
func NewFromSets(name string, members, subject, object []string) Group {
	return Group{
		Name:    name,
		Members: toSet(members),
		Subject: toSet(subject),
		Object:  toSet(object),
	}
}

func toSet(words []string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

// Contains reports whether token is a member, ignoring case.
func (g Group) Contains(token string) bool {
	if _, ok := g.Members[token]; ok {
		return true
	}
	_, ok := g.Members[strings.ToLower(token)]
	return ok
}

// IsSubject reports whether token is one of the subject forms.
func (g Group) IsSubject(token string) bool {
	_, ok := g.Subject[strings.ToLower(token)]
	return ok
}

// IsObject reports whether token is one of the object forms.
func (g Group) IsObject(token string) bool {
	_, ok := g.Object[strings.ToLower(token)]
	return ok
}

// Identifiers returns the members in ascending order.
func (g Group) Identifiers() []string {
	return sortedKeys(g.Members)
}

// SubjectForms returns the subject forms in ascending order.
func (g Group) SubjectForms() []string {
	return sortedKeys(g.Subject)
}

// ObjectForms returns the object forms in ascending order.
func (g Group) ObjectForms() []string {
	return sortedKeys(g.Object)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (g Group) String() string {
	return g.Name
}

// Validate checks the group has a name and at least one member, and that
// subject and object forms are members.
func (g Group) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("group name is required: %w", internalerr.ErrInvalidConfig)
	}
	if len(g.Members) == 0 {
		return fmt.Errorf("group %q has no members: %w", g.Name, internalerr.ErrInvalidConfig)
	}
	for s := range g.Subject {
		if _, ok := g.Members[s]; !ok {
			return fmt.Errorf("group %q subject %q is not a member: %w", g.Name, s, internalerr.ErrInvalidConfig)
		}
	}
	for o := range g.Object {
		if _, ok := g.Members[o]; !ok {
			return fmt.Errorf("group %q object %q is not a member: %w", g.Name, o, internalerr.ErrInvalidConfig)
		}
	}
	return nil
}

// ValidateAll validates every group and rejects duplicate names.
func ValidateAll(groups []Group) error {
	if len(groups) == 0 {
		return fmt.Errorf("at least one group is required: %w", internalerr.ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		if err := g.Validate(); err != nil {
			return err
		}
		if _, dup := seen[g.Name]; dup {
			return fmt.Errorf("duplicate group %q: %w", g.Name, internalerr.ErrInvalidConfig)
		}
		seen[g.Name] = struct{}{}
	}
	return nil
}

// Names returns the group names in input order.
func Names(groups []Group) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Name
	}
	return out
}
