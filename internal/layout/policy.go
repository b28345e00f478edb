// Package layout holds the category collision policy and the placement
// validator that classifies a candidate footprint against the structures
// already placed on a property.
package layout

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/homestead/layout-server/internal/model"
)

//go:embed rules.json
var defaultRules []byte

const wildcard = "any"

// CategorySet is a set of categories. In can_overlap it may also be the
// wildcard "any".
type CategorySet struct {
	Any     bool
	members map[model.Category]struct{}
}

// NewCategorySet returns a set holding the given categories.
func NewCategorySet(cats ...model.Category) CategorySet {
	s := CategorySet{members: make(map[model.Category]struct{}, len(cats))}
	for _, c := range cats {
		s.members[c] = struct{}{}
	}
	return s
}

// Has reports whether c is in the set. The wildcard contains everything.
func (s CategorySet) Has(c model.Category) bool {
	if s.Any {
		return true
	}
	_, ok := s.members[c]
	return ok
}

// List returns the members in sorted order.
func (s CategorySet) List() []model.Category {
	out := make([]model.Category, 0, len(s.members))
	for c := range s.members {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// UnmarshalJSON accepts either the string "any" or an array of categories.
func (s *CategorySet) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = CategorySet{}
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if str != wildcard {
			return fmt.Errorf("invalid category set %q: only %q is accepted as a string", str, wildcard)
		}
		*s = CategorySet{Any: true}
		return nil
	}
	var cats []model.Category
	if err := json.Unmarshal(data, &cats); err != nil {
		return fmt.Errorf("invalid category set: %w", err)
	}
	*s = NewCategorySet(cats...)
	return nil
}

// MarshalJSON writes the wildcard as "any" and everything else as an array.
func (s CategorySet) MarshalJSON() ([]byte, error) {
	if s.Any {
		return json.Marshal(wildcard)
	}
	return json.Marshal(s.List())
}

// Rule is the collision policy for one category.
type Rule struct {
	IsContainer     bool        `json:"is_container"`
	AllowedChildren CategorySet `json:"allowed_children"`
	CanOverlap      CategorySet `json:"can_overlap"`
	MustNotOverlap  CategorySet `json:"must_not_overlap"`
}

// Policy is an immutable category → rule table.
type Policy struct {
	rules map[model.Category]Rule
}

// DefaultPolicy returns the built-in rule table.
func DefaultPolicy() *Policy {
	p, err := ParsePolicy(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("embedded collision rules are invalid: %v", err))
	}
	return p
}

// LoadPolicy reads a rule table from path. An empty path yields the built-in
// table.
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read collision rules: %w", err)
	}
	p, err := ParsePolicy(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse collision rules %s: %w", path, err)
	}
	return p, nil
}

// ParsePolicy decodes a JSON rule table keyed by category.
func ParsePolicy(data []byte) (*Policy, error) {
	var rules map[model.Category]Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("rule table is empty")
	}
	for cat, r := range rules {
		if r.AllowedChildren.Any {
			return nil, fmt.Errorf("category %s: allowed_children cannot be %q", cat, wildcard)
		}
		if r.MustNotOverlap.Any {
			return nil, fmt.Errorf("category %s: must_not_overlap cannot be %q", cat, wildcard)
		}
		if !r.IsContainer && len(r.AllowedChildren.members) > 0 {
			return nil, fmt.Errorf("category %s: allowed_children requires is_container", cat)
		}
	}
	return &Policy{rules: rules}, nil
}

// Rule returns the rule for cat. Unknown categories may not overlap
// themselves and are permitted against everything else.
func (p *Policy) Rule(cat model.Category) Rule {
	if r, ok := p.rules[cat]; ok {
		return r
	}
	return Rule{MustNotOverlap: NewCategorySet(cat)}
}

// Known reports whether cat has an explicit rule.
func (p *Policy) Known(cat model.Category) bool {
	_, ok := p.rules[cat]
	return ok
}

// IsContainer reports whether cat can hold other structures.
func (p *Policy) IsContainer(cat model.Category) bool {
	return p.Rule(cat).IsContainer
}

// CanContain reports whether a container of category parent accepts child.
func (p *Policy) CanContain(parent, child model.Category) bool {
	r := p.Rule(parent)
	return r.IsContainer && r.AllowedChildren.Has(child)
}

// CanOverlap reports whether structures of categories a and b may overlap
// without a containment relation. Infrastructure overlaps everything. Rules
// for a are consulted before rules for b; if neither mentions the other,
// different categories may overlap and identical ones may not.
func (p *Policy) CanOverlap(a, b model.Category) bool {
	if a == model.CategoryInfrastructure || b == model.CategoryInfrastructure {
		return true
	}
	if allowed, decided := p.Rule(a).decide(b); decided {
		return allowed
	}
	if allowed, decided := p.Rule(b).decide(a); decided {
		return allowed
	}
	return a != b
}

func (r Rule) decide(other model.Category) (allowed, decided bool) {
	if r.CanOverlap.Has(other) {
		return true, true
	}
	if r.MustNotOverlap.Has(other) {
		return false, true
	}
	return false, false
}

// Categories returns the categories with explicit rules, sorted.
func (p *Policy) Categories() []model.Category {
	out := make([]model.Category, 0, len(p.rules))
	for c := range p.rules {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Rules returns a copy of the rule table.
func (p *Policy) Rules() map[model.Category]Rule {
	out := make(map[model.Category]Rule, len(p.rules))
	for c, r := range p.rules {
		out[c] = r
	}
	return out
}
