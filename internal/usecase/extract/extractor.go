package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/painpoint-labs/painpoint/internal/domain/entities"
)

// Extractor turns one raw meeting into a normalized signal. Extraction
// is total: malformed text degrades to an unclassified signal with an
// empty keyword set, it never fails.
type Extractor struct {
	rules []CategoryRule
}

// NewExtractor creates an extractor with the given rules, falling back
// to the default rule set when none are configured
func NewExtractor(rules []CategoryRule) *Extractor {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Extractor{rules: rules}
}

// customerPattern matches a leading capitalized phrase of up to four
// words, e.g. "MegaStore" or "Acme Corp" in "Acme Corp – Analytics Freeze"
var customerPattern = regexp.MustCompile(`^([A-Z][A-Za-z0-9&]*(?:[ ][A-Z][A-Za-z0-9&]*){0,3})`)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "have": {}, "has": {},
	"this": {}, "that": {}, "they": {}, "our": {}, "are": {}, "was": {},
	"were": {}, "when": {}, "every": {}, "because": {}, "after": {},
	"their": {}, "them": {}, "from": {}, "into": {}, "not": {}, "but": {},
}

// Extract derives a signal from a meeting. The returned signal carries
// no opportunity assignment yet; the clusterer sets that.
func (e *Extractor) Extract(meeting *entities.Meeting) *entities.Signal {
	text := strings.ToLower(meeting.Title + " " + meeting.Notes)
	tokens := tokenize(text)

	var categories entities.StringSet
	primary := entities.CategoryUnclassified
	for _, rule := range e.rules {
		if ruleMatches(rule, text, tokens) {
			categories = append(categories, rule.Name)
			if primary == entities.CategoryUnclassified {
				primary = rule.Name
			}
		}
	}
	if len(categories) == 0 {
		categories = entities.StringSet{entities.CategoryUnclassified}
	}

	signal := &entities.Signal{
		ID:         uuid.New(),
		MeetingID:  meeting.ID,
		Customer:   e.extractCustomer(meeting),
		Category:   primary,
		Categories: categories,
		Keywords:   keywordSet(tokens),
		Impact:     extractImpact(meeting.Metadata),
		ObservedAt: meeting.CreatedAt,
		CreatedAt:  time.Now(),
	}
	return signal
}

// extractCustomer prefers the metadata field and falls back to a
// capitalized-phrase heuristic on the title. Returns nil when neither
// yields anything.
func (e *Extractor) extractCustomer(meeting *entities.Meeting) *string {
	if raw, ok := meeting.Metadata["customer"]; ok {
		if name, ok := raw.(string); ok {
			name = strings.TrimSpace(name)
			if name != "" {
				return &name
			}
		}
	}
	if match := customerPattern.FindString(strings.TrimSpace(meeting.Title)); match != "" {
		return &match
	}
	return nil
}

// extractImpact reads the known impact keys permissively: mistyped
// values are ignored, never fatal.
func extractImpact(metadata map[string]interface{}) entities.ImpactMarkers {
	var impact entities.ImpactMarkers
	if v, ok := coerceInt(metadata["users"]); ok {
		impact.UsersAffected = v
	} else if v, ok := coerceInt(metadata["users_affected"]); ok {
		impact.UsersAffected = v
	}
	if v, ok := coerceFloat(metadata["arr"]); ok {
		impact.RevenueAtRisk = v
	} else if v, ok := coerceFloat(metadata["revenue_at_risk"]); ok {
		impact.RevenueAtRisk = v
	}
	impact.Churn = coerceFlag(metadata["churn"]) || coerceFlag(metadata["churn_risk"])
	impact.Escalation = coerceFlag(metadata["escalation"])
	return impact
}

func ruleMatches(rule CategoryRule, text string, tokens map[string]struct{}) bool {
	for _, trigger := range rule.Triggers {
		if strings.Contains(trigger, " ") {
			if strings.Contains(text, trigger) {
				return true
			}
			continue
		}
		if _, ok := tokens[trigger]; ok {
			return true
		}
	}
	return false
}

func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, t := range tokenPattern.FindAllString(text, -1) {
		if len(t) < 3 {
			continue
		}
		if _, skip := stopwords[t]; skip {
			continue
		}
		tokens[t] = struct{}{}
	}
	return tokens
}

func keywordSet(tokens map[string]struct{}) entities.StringSet {
	keywords := make(entities.StringSet, 0, len(tokens))
	for t := range tokens {
		keywords = append(keywords, t)
	}
	sort.Strings(keywords)
	return keywords
}

// coerceInt accepts the numeric shapes JSON metadata arrives in
func coerceInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

func coerceFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

// coerceFlag treats booleans, "true", and any non-empty descriptive
// string (e.g. escalation: "CTO") as a set flag
func coerceFlag(v interface{}) bool {
	switch f := v.(type) {
	case bool:
		return f
	case string:
		s := strings.ToLower(strings.TrimSpace(f))
		return s != "" && s != "false" && s != "no" && s != "0"
	}
	return false
}
