package bot

import (
	"fmt"
	"maps"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Registry resolves difficulty names to profiles. It starts from the
// shipped tiers and can be extended or overridden from YAML:
//
//	profiles:
//	  - id: tournament
//	    base: professional
//	    maxDepth: 6
//	    values:
//	      open-four: 12000
//	    weights:
//	      shape: 0.5
//
// A Registry is not safe for concurrent Load; load it once at startup.
type Registry struct {
	profiles map[string]Profile
}

// NewRegistry returns a registry holding the shipped tiers.
func NewRegistry() *Registry {
	profilesOnce.Do(loadProfiles)
	return &Registry{profiles: maps.Clone(profiles)}
}

// LoadRegistryFile reads overrides from path on top of the shipped tiers.
func LoadRegistryFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	r := NewRegistry()
	if err := r.Load(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

func (r *Registry) Lookup(name string) (Profile, error) {
	return lookupProfile(r.profiles, name)
}

func (r *Registry) Names() []string {
	return sortedNames(r.profiles)
}

type profileOverride struct {
	ID   string `yaml:"id"`
	Base string `yaml:"base"`

	MinDepth            *int     `yaml:"minDepth"`
	MaxDepth            *int     `yaml:"maxDepth"`
	CandidateBreadth    *int     `yaml:"candidateBreadth"`
	MultiThreatMinCount *int     `yaml:"multiThreatMinCount"`
	ThreatThreshold     *float64 `yaml:"threatThreshold"`
	ForcingThreshold    *int     `yaml:"forcingThreshold"`
	UrgentThreeValue    *int     `yaml:"urgentThreeValue"`
	JumpThrees          *bool    `yaml:"jumpThrees"`
	CompoundScan        *bool    `yaml:"compoundScan"`

	Values  map[string]int     `yaml:"values"`
	Weights map[string]float64 `yaml:"weights"`
}

type registryFile struct {
	Profiles []profileOverride `yaml:"profiles"`
}

// Load applies a YAML document. Either every profile in it validates and
// is applied, or the registry is left unchanged.
func (r *Registry) Load(data []byte) error {
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	next := maps.Clone(r.profiles)
	for _, o := range f.Profiles {
		p, err := o.apply(next)
		if err != nil {
			return err
		}
		next[p.ID] = p
	}
	r.profiles = next
	return nil
}

func (o profileOverride) apply(set map[string]Profile) (Profile, error) {
	id := strings.ToLower(strings.TrimSpace(o.ID))
	if id == "" {
		return Profile{}, fmt.Errorf("%w: profile without id", ErrInvalidProfile)
	}
	if _, ok := aliases[id]; ok {
		return Profile{}, fmt.Errorf("%w: %q is reserved as an alias", ErrInvalidProfile, id)
	}

	base := o.Base
	if base == "" {
		base = id
	}
	p, err := lookupProfile(set, base)
	if err != nil {
		return Profile{}, fmt.Errorf("profile %q: %w", id, err)
	}
	p.ID = id

	setInt(&p.MinDepth, o.MinDepth)
	setInt(&p.MaxDepth, o.MaxDepth)
	setInt(&p.CandidateBreadth, o.CandidateBreadth)
	setInt(&p.MultiThreatMinCount, o.MultiThreatMinCount)
	setInt(&p.ForcingThreshold, o.ForcingThreshold)
	setInt(&p.UrgentThreeValue, o.UrgentThreeValue)
	if o.ThreatThreshold != nil {
		p.ThreatThreshold = *o.ThreatThreshold
	}
	if o.JumpThrees != nil {
		p.JumpThrees = *o.JumpThrees
	}
	if o.CompoundScan != nil {
		p.CompoundScan = *o.CompoundScan
	}

	for name, v := range o.Values {
		c, ok := parseCategory(name)
		if !ok || c == None {
			return Profile{}, fmt.Errorf("%w: profile %q: unknown category %q", ErrInvalidProfile, id, name)
		}
		p.Values[c] = v
	}
	for name, w := range o.Weights {
		field := p.Weights.field(name)
		if field == nil {
			return Profile{}, fmt.Errorf("%w: profile %q: unknown weight %q", ErrInvalidProfile, id, name)
		}
		*field = w
	}

	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("profile %q: %w", id, err)
	}
	return p, nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func (w *Weights) field(name string) *float64 {
	switch strings.ToLower(name) {
	case "threat":
		return &w.Threat
	case "control":
		return &w.Control
	case "connect":
		return &w.Connect
	case "defense":
		return &w.Defense
	case "pattern":
		return &w.Pattern
	case "shape":
		return &w.Shape
	}
	return nil
}

// parseCategory accepts open-three, open_three and openThree alike.
func parseCategory(name string) (Category, bool) {
	key := foldCategory(name)
	for c := None; c < numCategories; c++ {
		if foldCategory(categoryNames[c]) == key {
			return c, true
		}
	}
	return None, false
}

func foldCategory(name string) string {
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(name)))
}
