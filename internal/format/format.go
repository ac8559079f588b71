// Package format renders retrieval results as plain text.
package format

import (
	"fmt"
	"strings"

	"github.com/spigell/hh-roster/internal/roster"
)

const (
	// NoMatches is returned verbatim when there is nothing to render.
	NoMatches = "No matching employees found."

	noProjects = "no project history"
)

// Results renders records as a numbered multi-line summary headed by query.
func Results(query string, records []roster.EmployeeRecord) string {
	if len(records) == 0 {
		return NoMatches
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Results for %q:\n", query)
	for i, r := range records {
		projects := noProjects
		if len(r.PastProjects) > 0 {
			projects = strings.Join(r.PastProjects, ", ")
		}

		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Name)
		fmt.Fprintf(&b, "   Skills: %s\n", strings.Join(r.Skills, ", "))
		fmt.Fprintf(&b, "   Experience: %d %s\n", r.ExperienceYears, years(r.ExperienceYears))
		fmt.Fprintf(&b, "   Projects: %s\n", projects)
		fmt.Fprintf(&b, "   Availability: %s\n", r.Availability)
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func years(n int) string {
	if n == 1 {
		return "year"
	}
	return "years"
}
