package format

import "strings"

// Predicate reports whether a rule applies to a field name.
type Predicate func(field string) bool

// Rule routes matching field names to a Kind.
type Rule struct {
	// Name identifies the rule in debug output (optional).
	Name  string
	Match Predicate
	Kind  Kind
}

// Table is an ordered, immutable list of rules for one dataset.
type Table struct {
	name  string
	rules []Rule
}

// NewTable creates a table. Rules are evaluated in the order given.
func NewTable(name string, rules ...Rule) Table {
	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return Table{name: name, rules: copied}
}

// Name returns the table name.
func (t Table) Name() string {
	return t.name
}

// Rules returns a copy of the table's rules.
func (t Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Classify returns the Kind of the first rule matching field, or Plain.
func (t Table) Classify(field string) Kind {
	for _, r := range t.rules {
		if r.Match != nil && r.Match(field) {
			return r.Kind
		}
	}
	return Plain
}

// Format classifies field and renders raw with the resulting Kind.
func (t Table) Format(field string, raw any) string {
	if isEmpty(raw) {
		return ""
	}
	return Format(t.Classify(field), raw)
}

// Equals matches any of the exact field names.
func Equals(names ...string) Predicate {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(field string) bool {
		_, ok := set[field]
		return ok
	}
}

// Contains matches field names containing any of the substrings.
func Contains(subs ...string) Predicate {
	return func(field string) bool {
		for _, s := range subs {
			if strings.Contains(field, s) {
				return true
			}
		}
		return false
	}
}

// HasPrefix matches field names starting with any of the prefixes.
func HasPrefix(prefixes ...string) Predicate {
	return func(field string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(field, p) {
				return true
			}
		}
		return false
	}
}

// HasSuffix matches field names ending with any of the suffixes.
func HasSuffix(suffixes ...string) Predicate {
	return func(field string) bool {
		for _, s := range suffixes {
			if strings.HasSuffix(field, s) {
				return true
			}
		}
		return false
	}
}

// Any matches when at least one of preds matches.
func Any(preds ...Predicate) Predicate {
	return func(field string) bool {
		for _, p := range preds {
			if p(field) {
				return true
			}
		}
		return false
	}
}
