package internal

import "testing"

func issueBody(projectKey, issueType, priority, status string) map[string]interface{} {
	fields := map[string]interface{}{}
	if projectKey != "" {
		fields["project"] = map[string]interface{}{"key": projectKey}
	}
	if issueType != "" {
		fields["issuetype"] = map[string]interface{}{"name": issueType}
	}
	if priority != "" {
		fields["priority"] = map[string]interface{}{"name": priority}
	}
	if status != "" {
		fields["status"] = map[string]interface{}{"name": status}
	}
	return map[string]interface{}{
		"issue": map[string]interface{}{
			"id":     "1",
			"key":    projectKey + "-1",
			"fields": fields,
		},
	}
}

// TestFilterEmptyMatchesEverything tests that a filter with no dimensions matches any body.
func TestFilterEmptyMatchesEverything(t *testing.T) {
	var f FilterConfig
	if !f.IsEmpty() {
		t.Fatalf("expected empty filter")
	}
	if !f.Matches(issueBody("OPS", "Bug", "High", "Open")) {
		t.Fatalf("expected empty filter to match")
	}
	if !f.Matches(map[string]interface{}{}) {
		t.Fatalf("expected empty filter to match empty body")
	}
}

// TestFilterProjectKeys tests set membership on the project dimension.
func TestFilterProjectKeys(t *testing.T) {
	f := FilterConfig{ProjectKeys: []string{"OPS", "ENG"}}
	if !f.Matches(issueBody("OPS", "", "", "")) {
		t.Fatalf("expected OPS to match")
	}
	if f.Matches(issueBody("OTHER", "", "", "")) {
		t.Fatalf("expected OTHER to not match")
	}
}

// TestFilterMissingFieldFails tests that a configured dimension fails when the payload lacks the field.
func TestFilterMissingFieldFails(t *testing.T) {
	f := FilterConfig{Priorities: []string{"High"}}
	if f.Matches(issueBody("OPS", "Bug", "", "Open")) {
		t.Fatalf("expected body without priority to not match")
	}
}

// TestFilterConjunction tests that all configured dimensions must match.
func TestFilterConjunction(t *testing.T) {
	f := FilterConfig{
		ProjectKeys: []string{"OPS"},
		IssueTypes:  []string{"Bug"},
		Statuses:    []string{"Open"},
	}
	if !f.Matches(issueBody("OPS", "Bug", "Low", "Open")) {
		t.Fatalf("expected all-dimension match")
	}
	if f.Matches(issueBody("OPS", "Task", "Low", "Open")) {
		t.Fatalf("expected issueType mismatch to fail the whole filter")
	}
}

// TestFilterNormalizedIssueShape tests that the short top-level keys of a
// normalized issue are preferred over the raw field tree.
func TestFilterNormalizedIssueShape(t *testing.T) {
	f := FilterConfig{ProjectKeys: []string{"OPS"}, IssueTypes: []string{"Bug"}}
	body := map[string]interface{}{
		"issue": map[string]interface{}{
			"key":       "OPS-9",
			"project":   "OPS",
			"issueType": "Bug",
		},
	}
	if !f.Matches(body) {
		t.Fatalf("expected normalized issue shape to match")
	}
}

// TestFilterBodyWithoutIssue tests that bodies without an issue object pass unconditionally.
func TestFilterBodyWithoutIssue(t *testing.T) {
	f := FilterConfig{ProjectKeys: []string{"OPS"}}
	body := map[string]interface{}{
		"version": map[string]interface{}{"id": "7", "released": true},
	}
	if !f.Matches(body) {
		t.Fatalf("expected version body to pass a project filter")
	}
}
