package bot

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

const (
	Beginner     = "beginner"
	Advanced     = "advanced"
	Professional = "professional"
)

// Weights blends the evaluation terms. A zero weight switches its term off.
type Weights struct {
	Threat  float64 `json:"threat"`
	Control float64 `json:"control"`
	Connect float64 `json:"connect"`
	Defense float64 `json:"defense"`
	Pattern float64 `json:"pattern"`
	Shape   float64 `json:"shape"`
}

// ThreatValues is indexed by Category.
type ThreatValues [numCategories]int

// Profile is an immutable difficulty tier.
type Profile struct {
	ID string `json:"id"`

	MinDepth         int `json:"minDepth"`
	MaxDepth         int `json:"maxDepth"`
	CandidateBreadth int `json:"candidateBreadth"`

	// MultiThreatMinCount is the threat count a point needs before it counts
	// as a multi-threat in the compound stages and the pattern term.
	MultiThreatMinCount int `json:"multiThreatMinCount"`
	// ThreatThreshold is the minimum strategic-setup score.
	ThreatThreshold float64 `json:"threatThreshold"`
	// ForcingThreshold is the minimum value for forcing attack and defence.
	ForcingThreshold int `json:"forcingThreshold"`
	// UrgentThreeValue is the open-three value from which the opponent's
	// three is answered immediately.
	UrgentThreeValue int `json:"urgentThreeValue"`

	JumpThrees   bool `json:"jumpThrees"`
	CompoundScan bool `json:"compoundScan"`

	Values  ThreatValues `json:"values"`
	Weights Weights      `json:"weights"`
}

func (p *Profile) threat(c Category) Threat {
	return Threat{Category: c, Value: p.Values[c], Forcing: c.Forcing()}
}

// Validate checks the invariants the engine relies on.
func (p Profile) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalidProfile, p.ID, fmt.Sprintf(format, args...))
	}
	if p.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidProfile)
	}
	if p.MinDepth < 1 || p.MaxDepth < p.MinDepth {
		return fail("depth bounds %d..%d", p.MinDepth, p.MaxDepth)
	}
	if p.CandidateBreadth < 1 {
		return fail("candidate breadth %d", p.CandidateBreadth)
	}
	if p.MultiThreatMinCount < 1 {
		return fail("multi-threat minimum %d", p.MultiThreatMinCount)
	}
	v := p.Values
	for c := BlockedTwo; c < numCategories; c++ {
		if v[c] < 0 {
			return fail("negative value for %s", c)
		}
		if c != Five && v[c] >= v[Five] {
			return fail("%s value %d must stay below five (%d)", c, v[c], v[Five])
		}
	}
	order := []Category{OpenFour, BlockedFour, OpenThree, BlockedThree, OpenTwo}
	for i := 1; i < len(order); i++ {
		if v[order[i-1]] <= v[order[i]] {
			return fail("%s must outvalue %s", order[i-1], order[i])
		}
	}
	w := p.Weights
	if w.Threat <= 0 || w.Control < 0 || w.Connect < 0 || w.Defense < 0 || w.Pattern < 0 || w.Shape < 0 {
		return fail("weights %+v", w)
	}
	return nil
}

func beginnerProfile() Profile {
	return Profile{
		ID:                  Beginner,
		MinDepth:            1,
		MaxDepth:            3,
		CandidateBreadth:    8,
		MultiThreatMinCount: 2,
		ThreatThreshold:     800,
		ForcingThreshold:    300,
		UrgentThreeValue:    500,
		Values: ThreatValues{
			Five:          20000,
			OpenFour:      4000,
			DoubleFour:    3200,
			ThreePlusFour: 2400,
			DoubleThree:   1600,
			BlockedFour:   400,
			OpenThree:     200,
			JumpThree:     150,
			BlockedThree:  40,
			OpenTwo:       20,
			BlockedTwo:    5,
		},
		Weights: Weights{Threat: 0.6, Control: 0.15, Connect: 0.1, Defense: 0.1, Pattern: 0.1},
	}
}

func advancedProfile() Profile {
	return Profile{
		ID:                  Advanced,
		MinDepth:            2,
		MaxDepth:            4,
		CandidateBreadth:    12,
		MultiThreatMinCount: 1,
		ThreatThreshold:     300,
		ForcingThreshold:    300,
		UrgentThreeValue:    500,
		JumpThrees:          true,
		CompoundScan:        true,
		Values: ThreatValues{
			Five:          50000,
			OpenFour:      10000,
			DoubleFour:    8000,
			ThreePlusFour: 6000,
			DoubleThree:   5000,
			BlockedFour:   1000,
			OpenThree:     500,
			JumpThree:     200,
			BlockedThree:  100,
			OpenTwo:       50,
			BlockedTwo:    10,
		},
		Weights: Weights{Threat: 1.0, Control: 0.3, Connect: 0.2, Defense: 0.25, Pattern: 0.25},
	}
}

func professionalProfile() Profile {
	return Profile{
		ID:                  Professional,
		MinDepth:            3,
		MaxDepth:            5,
		CandidateBreadth:    16,
		MultiThreatMinCount: 1,
		// A setup must lead to a compound or an open four. Blocked fours
		// are left to the search.
		ThreatThreshold:     30000,
		ForcingThreshold:    300,
		UrgentThreeValue:    500,
		JumpThrees:          true,
		CompoundScan:        true,
		Values: ThreatValues{
			Five:          1000000,
			OpenFour:      100000,
			DoubleFour:    80000,
			ThreePlusFour: 60000,
			DoubleThree:   50000,
			BlockedFour:   10000,
			OpenThree:     2000,
			JumpThree:     1500,
			BlockedThree:  400,
			OpenTwo:       200,
			BlockedTwo:    50,
		},
		Weights: Weights{Threat: 2.0, Control: 0.5, Connect: 0.4, Defense: 0.5, Pattern: 0.6, Shape: 0.3},
	}
}

var (
	profilesOnce sync.Once
	profiles     map[string]Profile
)

// aliases maps older tier names onto the shipped ones.
var aliases = map[string]string{
	"simple": Beginner,
	"easy":   Beginner,
	"medium": Advanced,
	"hard":   Professional,
}

func loadProfiles() {
	profiles = make(map[string]Profile, 3)
	for _, p := range []Profile{beginnerProfile(), advancedProfile(), professionalProfile()} {
		if err := p.Validate(); err != nil {
			panic(err)
		}
		profiles[p.ID] = p
	}
}

// ProfileByName resolves a shipped tier by id or alias. Profiles are built
// on first use and shared for the life of the process.
func ProfileByName(name string) (Profile, error) {
	profilesOnce.Do(loadProfiles)
	return lookupProfile(profiles, name)
}

// ProfileNames lists the shipped tiers.
func ProfileNames() []string {
	profilesOnce.Do(loadProfiles)
	return sortedNames(profiles)
}

func normalizeName(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	return key
}

func lookupProfile(set map[string]Profile, name string) (Profile, error) {
	p, ok := set[normalizeName(name)]
	if !ok {
		return Profile{}, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidProfile, name)
	}
	return p, nil
}

func sortedNames(set map[string]Profile) []string {
	names := make([]string, 0, len(set))
	for id := range set {
		names = append(names, id)
	}
	sort.Strings(names)
	return names
}
