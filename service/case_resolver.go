package service

import (
	"errors"
	"fmt"
	"strings"

	"skeptical-attorney-backend/models"
)

// ErrCaseNotMatched is returned when no case matches an identifier
var ErrCaseNotMatched = errors.New("no matching case")

// AmbiguousCaseError is returned when an identifier matches several cases
type AmbiguousCaseError struct {
	Identifier string
	Candidates []string
}

func (e *AmbiguousCaseError) Error() string {
	return fmt.Sprintf("%q matches %d cases: %s", e.Identifier, len(e.Candidates), strings.Join(e.Candidates, "; "))
}

func caseFields(c *models.Case) []string {
	return []string{c.CaseName, c.CaseNumber, models.Str(c.Client)}
}

// ResolveCase finds the single case identifier refers to. Exact
// case-insensitive matches on name, number, then client are tried first;
// failing those, substring containment in either direction over the same
// fields. It never guesses between several candidates.
func ResolveCase(cases []*models.Case, identifier string) (*models.Case, error) {
	needle := strings.ToLower(strings.TrimSpace(identifier))
	if needle == "" {
		return nil, ErrCaseNotMatched
	}

	fieldCount := len(caseFields(&models.Case{}))
	for field := 0; field < fieldCount; field++ {
		matches := filterCases(cases, func(c *models.Case) bool {
			v := strings.ToLower(strings.TrimSpace(caseFields(c)[field]))
			return v != "" && v == needle
		})
		if len(matches) > 0 {
			return single(identifier, matches)
		}
	}

	matches := filterCases(cases, func(c *models.Case) bool {
		for _, f := range caseFields(c) {
			v := strings.ToLower(strings.TrimSpace(f))
			if v == "" {
				continue
			}
			if strings.Contains(v, needle) || strings.Contains(needle, v) {
				return true
			}
		}
		return false
	})
	if len(matches) == 0 {
		return nil, ErrCaseNotMatched
	}
	return single(identifier, matches)
}

func filterCases(cases []*models.Case, keep func(*models.Case) bool) []*models.Case {
	var out []*models.Case
	for _, c := range cases {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func single(identifier string, matches []*models.Case) (*models.Case, error) {
	if len(matches) == 1 {
		return matches[0], nil
	}
	names := make([]string, 0, len(matches))
	for _, c := range matches {
		label := c.CaseName
		if c.CaseNumber != "" {
			label += " (" + c.CaseNumber + ")"
		}
		names = append(names, label)
	}
	return nil, &AmbiguousCaseError{Identifier: identifier, Candidates: names}
}

// resolutionFailure renders a resolution error as a message asking the
// user to clarify
func resolutionFailure(identifier string, cases []*models.Case, err error) string {
	var amb *AmbiguousCaseError
	if errors.As(err, &amb) {
		return fmt.Sprintf("%q matches more than one case: %s. Ask the user which case they mean.",
			identifier, strings.Join(amb.Candidates, "; "))
	}
	if len(cases) == 0 {
		return "The user has no cases yet."
	}
	names := make([]string, 0, len(cases))
	for i, c := range cases {
		if i == 10 {
			names = append(names, fmt.Sprintf("and %d more", len(cases)-10))
			break
		}
		names = append(names, c.CaseName)
	}
	return fmt.Sprintf("No case matches %q. Ask the user to clarify. Their cases include: %s.",
		identifier, strings.Join(names, ", "))
}
