package retrieval

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/hh-roster/internal/roster"
)

// Criteria holds the optional structured-query predicates. A nil field imposes no constraint.
type Criteria struct {
	Skill         *string `json:"skill"`
	MinExperience *int    `json:"min_experience"`
	Project       *string `json:"project"`
}

// ParseCriteria builds Criteria from raw query parameters. Blank values are treated as absent.
func ParseCriteria(skill, minExperience, project string) (Criteria, error) {
	var c Criteria

	if s := strings.TrimSpace(skill); s != "" {
		c.Skill = &s
	}
	if p := strings.TrimSpace(project); p != "" {
		c.Project = &p
	}

	if raw := strings.TrimSpace(minExperience); raw != "" {
		years, err := strconv.Atoi(raw)
		if err != nil {
			return Criteria{}, fmt.Errorf("%w: min_experience must be an integer, got %q", ErrInvalidCriteria, raw)
		}
		c.MinExperience = &years
	}

	if err := c.Validate(); err != nil {
		return Criteria{}, err
	}
	return c, nil
}

// ParseValues builds Criteria from URL query values. Unlike ParseCriteria, a
// min_experience key that is present but blank is an error, since an empty
// value cannot be an integer.
func ParseValues(values url.Values) (Criteria, error) {
	if values.Has("min_experience") && strings.TrimSpace(values.Get("min_experience")) == "" {
		return Criteria{}, fmt.Errorf("%w: min_experience must be an integer, got an empty value", ErrInvalidCriteria)
	}
	return ParseCriteria(values.Get("skill"), values.Get("min_experience"), values.Get("project"))
}

// Validate rejects negative experience thresholds.
func (c Criteria) Validate() error {
	if c.MinExperience != nil && *c.MinExperience < 0 {
		return fmt.Errorf("%w: min_experience must be non-negative, got %d", ErrInvalidCriteria, *c.MinExperience)
	}
	return nil
}

// Filters returns the filtering steps for c; steps for absent criteria are disabled.
func (c Criteria) Filters() []Filter {
	skill := NewSkill(deref(c.Skill))
	if c.Skill == nil || strings.TrimSpace(*c.Skill) == "" {
		skill.Disable(notRequestedMsg)
	}

	experience := NewMinExperience(0)
	if c.MinExperience != nil {
		experience = NewMinExperience(*c.MinExperience)
	} else {
		experience.Disable(notRequestedMsg)
	}

	project := NewProject(deref(c.Project))
	if c.Project == nil || strings.TrimSpace(*c.Project) == "" {
		project.Disable(notRequestedMsg)
	}

	return []Filter{skill, experience, project}
}

// RetrieveByFilter returns the employees matching every supplied criterion, in roster order.
func (e *Engine) RetrieveByFilter(ctx context.Context, c Criteria) ([]roster.EmployeeRecord, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	steps := c.Filters()
	records, err := Run(ctx, e.logger, steps, e.roster.All())
	if err != nil {
		return nil, err
	}

	e.logger.Debug("structured search",
		zap.Any("filters", Describe(steps)),
		zap.Int("returned", len(records)),
	)

	return records, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
