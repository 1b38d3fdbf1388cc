package scoring

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/league-engine/internal/domain"
)

// RuleKind tags a compiled scoring rule with its dispatch behavior. Rule
// names are parsed exactly once when the rule set is loaded, never per
// evaluation.
type RuleKind int

const (
	KindUnknown RuleKind = iota
	KindPlacement
	KindObjective
	KindParticipation
)

// CompiledRule is a scoring rule resolved into a tagged kind
type CompiledRule struct {
	Kind      RuleKind
	Place     int    // placement rules: the place the rule matches
	Objective string // objective rules: normalized objective tag
	Points    int
	Name      string
}

// Matches both "Placement 1" and "Placement 1st" spellings.
var placementPattern = regexp.MustCompile(`(?i)^placement\s+(\d+)(?:st|nd|rd|th)?$`)

var objectivePattern = regexp.MustCompile(`(?i)^([a-z]+)\s+objective$`)

// CompileRule parses a single rule name into its tagged form. Names matching
// no known pattern compile to KindUnknown and contribute nothing.
func CompileRule(rule domain.ScoringRule) CompiledRule {
	name := strings.TrimSpace(rule.Name)

	if m := placementPattern.FindStringSubmatch(name); m != nil {
		place, err := strconv.Atoi(m[1])
		if err == nil && place > 0 {
			return CompiledRule{Kind: KindPlacement, Place: place, Points: rule.Points, Name: rule.Name}
		}
	}

	if m := objectivePattern.FindStringSubmatch(name); m != nil {
		return CompiledRule{Kind: KindObjective, Objective: strings.ToLower(m[1]), Points: rule.Points, Name: rule.Name}
	}

	if strings.Contains(strings.ToLower(name), "participation") {
		return CompiledRule{Kind: KindParticipation, Points: rule.Points, Name: rule.Name}
	}

	return CompiledRule{Kind: KindUnknown, Points: rule.Points, Name: rule.Name}
}

// RuleSet holds compiled rules grouped by game kind
type RuleSet map[domain.GameKind][]CompiledRule

// NewRuleSet compiles the active rules of a league, grouped by game kind.
// Inactive rules are dropped.
func NewRuleSet(rules []domain.ScoringRule) RuleSet {
	set := make(RuleSet)
	for _, rule := range rules {
		if !rule.Active {
			continue
		}
		set[rule.Kind] = append(set[rule.Kind], CompileRule(rule))
	}
	return set
}

// ForKind returns the compiled rules for a game kind, nil if none exist
func (s RuleSet) ForKind(kind domain.GameKind) []CompiledRule {
	return s[kind]
}
