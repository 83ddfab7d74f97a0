package internal

import (
	"github.com/PaesslerAG/jsonpath"
)

// FilterConfig is the set-membership criteria a subscriber declares to gate
// which payloads it receives. All dimensions are optional; an empty config
// matches everything.
type FilterConfig struct {
	ProjectKeys []string `yaml:"project_keys" json:"projectKeys,omitempty"`
	IssueTypes  []string `yaml:"issue_types" json:"issueTypes,omitempty"`
	Priorities  []string `yaml:"priorities" json:"priorities,omitempty"`
	Statuses    []string `yaml:"statuses" json:"statuses,omitempty"`
}

// filterDimension ties a configured value set to the places the value can
// live in the payload: a short top-level key on the issue object, then
// JSONPath fallbacks into the raw webhook shape.
type filterDimension struct {
	values    []string
	direct    string
	fallbacks []string
}

// Matches reports whether a normalized message body passes the filter.
// Dimensions are conjunctive: every configured dimension must match. Filters
// only apply when the body carries an issue; bodies without one (e.g. version
// events) pass unconditionally.
func (f FilterConfig) Matches(body map[string]interface{}) bool {
	issue, ok := body["issue"].(map[string]interface{})
	if !ok {
		return true
	}

	dimensions := []filterDimension{
		{f.ProjectKeys, "project", []string{"$.fields.project.key"}},
		{f.IssueTypes, "issueType", []string{"$.fields.issuetype.name", "$.fields.issueType.name"}},
		{f.Priorities, "priority", []string{"$.fields.priority.name"}},
		{f.Statuses, "status", []string{"$.fields.status.name"}},
	}

	for _, dim := range dimensions {
		if len(dim.values) == 0 {
			continue
		}
		value := extractScalar(issue, dim.direct, dim.fallbacks)
		if value == "" || !containsString(dim.values, value) {
			return false
		}
	}
	return true
}

// IsEmpty reports whether no dimension is configured.
func (f FilterConfig) IsEmpty() bool {
	return len(f.ProjectKeys) == 0 && len(f.IssueTypes) == 0 &&
		len(f.Priorities) == 0 && len(f.Statuses) == 0
}

// extractScalar prefers a top-level string field and falls back to the given
// JSONPath expressions against the issue object.
func extractScalar(issue map[string]interface{}, direct string, fallbacks []string) string {
	if v, ok := issue[direct].(string); ok && v != "" {
		return v
	}
	for _, path := range fallbacks {
		out, err := jsonpath.Get(path, interface{}(issue))
		if err != nil {
			continue
		}
		if s, ok := out.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
