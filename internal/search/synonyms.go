package search

import "strings"

// SynonymRule awards a bonus when the query mentions one of the trigger
// words and the chunk contains any of the associated terms. The table is
// configuration data, not scoring logic: it can be replaced wholesale
// from the config file without touching the scorer.
type SynonymRule struct {
	Triggers []string `mapstructure:"triggers"`
	Matches  []string `mapstructure:"matches"`
	Bonus    float64  `mapstructure:"bonus"`
}

// applies reports whether the rule fires for the given query words and
// lower-cased chunk text.
func (r SynonymRule) applies(queryWords []string, chunk string) bool {
	triggered := false
	for _, trigger := range r.Triggers {
		for _, word := range queryWords {
			if word == trigger {
				triggered = true
				break
			}
		}
		if triggered {
			break
		}
	}
	if !triggered {
		return false
	}

	for _, match := range r.Matches {
		if strings.Contains(chunk, match) {
			return true
		}
	}
	return false
}

// DefaultSynonyms returns the built-in synonym table. Intentionally
// small: each entry maps a concept users ask about to the terms the
// documentation actually uses.
func DefaultSynonyms() []SynonymRule {
	return []SynonymRule{
		{
			Triggers: []string{"create", "creating"},
			Matches:  []string{"create", "setup", "configure"},
			Bonus:    30,
		},
		{
			Triggers: []string{"organization", "org"},
			Matches:  []string{"organization", "site"},
			Bonus:    60,
		},
		{
			Triggers: []string{"delete", "deleting", "remove"},
			Matches:  []string{"delete", "remove", "deactivate"},
			Bonus:    30,
		},
		{
			Triggers: []string{"update", "updating", "edit"},
			Matches:  []string{"update", "modify", "edit"},
			Bonus:    30,
		},
	}
}
