package roster

import "strings"

// SkillSeparator joins skills into the text that is embedded for a candidate.
const SkillSeparator = "; "

// EmployeeRecord is a single roster entry. Field names are part of the API contract.
type EmployeeRecord struct {
	Name            string   `json:"name" mapstructure:"name"`
	Skills          []string `json:"skills" mapstructure:"skills"`
	ExperienceYears int      `json:"experience_years" mapstructure:"experience_years"`
	PastProjects    []string `json:"past_projects" mapstructure:"past_projects"`
	Availability    string   `json:"availability" mapstructure:"availability"`
}

// SkillDescription returns the skills joined with SkillSeparator.
func (e EmployeeRecord) SkillDescription() string {
	return strings.Join(e.Skills, SkillSeparator)
}

// HasSkill reports whether the record lists the skill, ignoring case.
func (e EmployeeRecord) HasSkill(skill string) bool {
	for _, s := range e.Skills {
		if strings.EqualFold(s, skill) {
			return true
		}
	}
	return false
}

// WorkedOn reports whether any past project contains the substring, ignoring case.
func (e EmployeeRecord) WorkedOn(substring string) bool {
	needle := strings.ToLower(substring)
	for _, p := range e.PastProjects {
		if strings.Contains(strings.ToLower(p), needle) {
			return true
		}
	}
	return false
}

func (e EmployeeRecord) clone() EmployeeRecord {
	out := e
	out.Skills = append([]string(nil), e.Skills...)
	out.PastProjects = append([]string{}, e.PastProjects...)
	return out
}
