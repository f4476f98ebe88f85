package shared

import (
	"strings"
)

// BranchFromRef returns the segment after the last "/" of a git ref, so
// "refs/heads/main" yields "main".
func BranchFromRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

func NormalizeEventType(in string) string {
	return strings.TrimSpace(strings.ToLower(in))
}

func NonEmpty(a, b string) string {
	a = strings.TrimSpace(a)
	if a != "" {
		return a
	}
	return strings.TrimSpace(b)
}

// MissingFields returns the names of the checks whose value is absent.
func MissingFields(checks ...FieldCheck) []string {
	var missing []string
	for _, c := range checks {
		if !c.present {
			missing = append(missing, c.name)
		}
	}
	return missing
}

type FieldCheck struct {
	name    string
	present bool
}

func Field(name string, present bool) FieldCheck {
	return FieldCheck{name: name, present: present}
}
