package extract

import "strings"

// CategoryRule maps a category name to the trigger keywords that select
// it. Rule order is priority order: when several rules match a meeting,
// the earliest rule supplies the primary category used for clustering.
type CategoryRule struct {
	Name     string
	Triggers []string
}

// DefaultRules returns the built-in category rules in priority order
func DefaultRules() []CategoryRule {
	return []CategoryRule{
		{Name: "performance", Triggers: []string{
			"slow", "slowness", "slowly", "timeout", "timeouts", "freeze", "freezes", "froze",
			"lag", "laggy", "unresponsive", "performance", "takes too long", "loading forever",
		}},
		{Name: "export", Triggers: []string{
			"export", "exports", "exported", "exporting",
		}},
		{Name: "import", Triggers: []string{
			"import", "imports", "importing", "bulk upload", "encoding",
		}},
		{Name: "calendar", Triggers: []string{
			"calendar", "gregorian", "jalali", "scheduling", "date format", "deadlines",
		}},
		{Name: "search", Triggers: []string{
			"search", "searching", "search results", "find products",
		}},
		{Name: "onboarding", Triggers: []string{
			"onboarding", "permission", "permissions", "role", "roles", "new hire", "access",
		}},
	}
}

// ParseRules parses the CATEGORY_RULES config format:
// "category:trigger,trigger;category:trigger,...". Malformed segments
// are skipped; an empty result means the caller should fall back to
// DefaultRules.
func ParseRules(raw string) []CategoryRule {
	var rules []CategoryRule
	for _, segment := range strings.Split(raw, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		parts := strings.SplitN(segment, ":", 2)
		if len(parts) != 2 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(parts[0]))
		if name == "" {
			continue
		}
		var triggers []string
		for _, t := range strings.Split(parts[1], ",") {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" {
				triggers = append(triggers, t)
			}
		}
		if len(triggers) == 0 {
			continue
		}
		rules = append(rules, CategoryRule{Name: name, Triggers: triggers})
	}
	return rules
}
