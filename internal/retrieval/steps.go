package retrieval

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spigell/hh-roster/internal/roster"
)

const notRequestedMsg = "not requested"

// toggle carries the enabled state shared by every step.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

type skillFilter struct {
	toggle
	skill string
}

// NewSkill creates a filter keeping employees that list skill, ignoring case
// and surrounding whitespace.
func NewSkill(skill string) Filter {
	return &skillFilter{skill: strings.TrimSpace(skill)}
}

func (f *skillFilter) Name() string { return "skill" }

func (f *skillFilter) Validate() error { return nil }

func (f *skillFilter) Apply(_ context.Context, records []roster.EmployeeRecord) ([]roster.EmployeeRecord, Step, error) {
	out, step := keep(records, func(r roster.EmployeeRecord) bool {
		return r.HasSkill(f.skill)
	})
	return out, step, nil
}

func (f *skillFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: map[string]string{"skill": f.skill}}
}

type experienceFilter struct {
	toggle
	min int
}

// NewMinExperience creates a filter keeping employees with at least years of experience.
func NewMinExperience(years int) Filter {
	return &experienceFilter{min: years}
}

func (f *experienceFilter) Name() string { return "min_experience" }

func (f *experienceFilter) Validate() error {
	if f.min < 0 {
		return fmt.Errorf("%w: min_experience must be non-negative, got %d", ErrInvalidCriteria, f.min)
	}
	return nil
}

func (f *experienceFilter) Apply(_ context.Context, records []roster.EmployeeRecord) ([]roster.EmployeeRecord, Step, error) {
	out, step := keep(records, func(r roster.EmployeeRecord) bool {
		return r.ExperienceYears >= f.min
	})
	return out, step, nil
}

func (f *experienceFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: map[string]string{"min_experience": strconv.Itoa(f.min)}}
}

type projectFilter struct {
	toggle
	substring string
}

// NewProject creates a filter keeping employees whose past projects contain the
// trimmed substring, ignoring case.
func NewProject(substring string) Filter {
	return &projectFilter{substring: strings.TrimSpace(substring)}
}

func (f *projectFilter) Name() string { return "project" }

func (f *projectFilter) Validate() error { return nil }

func (f *projectFilter) Apply(_ context.Context, records []roster.EmployeeRecord) ([]roster.EmployeeRecord, Step, error) {
	out, step := keep(records, func(r roster.EmployeeRecord) bool {
		return r.WorkedOn(f.substring)
	})
	return out, step, nil
}

func (f *projectFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: map[string]string{"project": f.substring}}
}
