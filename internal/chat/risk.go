package chat

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// RiskTier classifies a message's self-harm/crisis severity.
type RiskTier string

const (
	RiskGreen  RiskTier = "green"
	RiskYellow RiskTier = "yellow"
	RiskRed    RiskTier = "red"
)

// severity orders tiers for escalation; higher is worse.
func (t RiskTier) severity() int {
	switch t {
	case RiskRed:
		return 2
	case RiskYellow:
		return 1
	default:
		return 0
	}
}

// MaxTier returns the more severe of two tiers.
func MaxTier(a, b RiskTier) RiskTier {
	if b.severity() > a.severity() {
		return b
	}
	return a
}

// ValidTier reports whether s is a known tier value.
func ValidTier(s string) bool {
	switch RiskTier(s) {
	case RiskGreen, RiskYellow, RiskRed:
		return true
	}
	return false
}

// RiskPattern is one case-insensitive phrase with a stable tag. Patterns are
// data, not code: the classifier only knows how to match them.
type RiskPattern struct {
	Tag   string `yaml:"tag"`
	Match string `yaml:"match"`
}

// PatternSet is the ordered classifier configuration. Red patterns are checked
// first; first match wins within each list.
type PatternSet struct {
	Red    []RiskPattern `yaml:"red"`
	Yellow []RiskPattern `yaml:"yellow"`
}

// LoadPatternSet reads a pattern set from a YAML file.
func LoadPatternSet(path string) (PatternSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PatternSet{}, fmt.Errorf("chat: read pattern file: %w", err)
	}
	var set PatternSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return PatternSet{}, fmt.Errorf("chat: parse pattern file: %w", err)
	}
	if len(set.Red) == 0 {
		return PatternSet{}, fmt.Errorf("chat: pattern file %s has no red patterns", path)
	}
	return set, nil
}

type compiledPattern struct {
	tag      string
	folded   string // lowercase
	stripped string // lowercase, diacritics removed
}

// Classifier scores messages into risk tiers by matching phrase patterns
// against both the lowercase text and its diacritic-stripped form. Vietnamese
// is frequently typed without tone marks, so both forms must be tried.
type Classifier struct {
	red    []compiledPattern
	yellow []compiledPattern
}

// NewClassifier compiles a pattern set. Pattern order is preserved.
func NewClassifier(set PatternSet) *Classifier {
	compile := func(patterns []RiskPattern) []compiledPattern {
		out := make([]compiledPattern, 0, len(patterns))
		for _, p := range patterns {
			folded := strings.ToLower(strings.TrimSpace(p.Match))
			if folded == "" {
				continue
			}
			out = append(out, compiledPattern{
				tag:      p.Tag,
				folded:   folded,
				stripped: stripDiacritics(folded),
			})
		}
		return out
	}
	return &Classifier{
		red:    compile(set.Red),
		yellow: compile(set.Yellow),
	}
}

// sustainedDistressWindow is how many trailing history turns feed the
// aggregated-history heuristic.
const sustainedDistressWindow = 3

// sustainedDistressThreshold is the number of distinct yellow tags across the
// window that escalates green to yellow.
const sustainedDistressThreshold = 2

// Classify scores text (plus optional recent history) into a risk tier.
// Deterministic, no side effects. Empty text is green: the sanitizer rejects
// empty input upstream, so this is a defensive default only.
func (c *Classifier) Classify(text string, history []ChatMessage) RiskTier {
	if strings.TrimSpace(text) == "" {
		return RiskGreen
	}

	folded := strings.ToLower(text)
	stripped := stripDiacritics(folded)

	for _, p := range c.red {
		if matches(p, folded, stripped) {
			return RiskRed
		}
	}
	for _, p := range c.yellow {
		if matches(p, folded, stripped) {
			return RiskYellow
		}
	}

	// Sustained-distress heuristic: several distinct yellow signals over the
	// last few turns escalate even when the current message alone is clean.
	if len(history) >= sustainedDistressWindow {
		var sb strings.Builder
		for _, msg := range history[len(history)-sustainedDistressWindow:] {
			sb.WriteString(msg.Content)
			sb.WriteString("\n")
		}
		joined := strings.ToLower(sb.String())
		joinedStripped := stripDiacritics(joined)

		hits := map[string]struct{}{}
		for _, p := range c.yellow {
			if matches(p, joined, joinedStripped) {
				hits[p.tag] = struct{}{}
			}
		}
		if len(hits) >= sustainedDistressThreshold {
			return RiskYellow
		}
	}

	return RiskGreen
}

func matches(p compiledPattern, folded, stripped string) bool {
	return strings.Contains(folded, p.folded) || strings.Contains(stripped, p.stripped)
}

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// stripDiacritics removes combining marks after NFD decomposition. The đ/Đ
// pair is not a combining-mark composition, so it is mapped by hand.
func stripDiacritics(s string) string {
	out, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		out = s
	}
	out = strings.ReplaceAll(out, "đ", "d")
	out = strings.ReplaceAll(out, "Đ", "D")
	return out
}
