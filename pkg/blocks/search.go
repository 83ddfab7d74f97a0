package blocks

import (
	"context"
	"fmt"

	"github.com/spacelift-io/flows-app-jira/pkg/jira"
)

const maxSearchResults = 100

var searchIssuesDescriptor = Descriptor{
	Name:        "Search Issues",
	Category:    "Issues",
	Description: "Search for Jira issues using JQL",
	Inputs: []FieldSpec{
		{Key: "jql", Name: "JQL Query", Type: "string", Required: true,
			Description: "JQL query (e.g. 'project = PROJ AND status = \"In Progress\"')"},
		{Key: "fields", Name: "Fields to Include", Type: "[]string"},
		{Key: "expand", Name: "Expand Options", Type: "[]string"},
		{Key: "startAt", Name: "Start At", Type: "number",
			Description: "Starting index for pagination (default 0)"},
		{Key: "maxResults", Name: "Max Results", Type: "number",
			Description: "Maximum results to return (default 50, capped at 100)"},
	},
}

// SearchIssuesInput is the input configuration of the searchIssues block.
type SearchIssuesInput struct {
	JQL        string   `json:"jql"`
	Fields     []string `json:"fields,omitempty"`
	Expand     []string `json:"expand,omitempty"`
	StartAt    int      `json:"startAt,omitempty"`
	MaxResults int      `json:"maxResults,omitempty"`
}

// SearchIssueResult is one issue in the searchIssues output.
type SearchIssueResult struct {
	ID             string                 `json:"id"`
	Key            string                 `json:"key"`
	IssueURL       string                 `json:"issueUrl"`
	Fields         map[string]interface{} `json:"fields"`
	Expand         string                 `json:"expand,omitempty"`
	Names          map[string]string      `json:"names,omitempty"`
	RenderedFields map[string]interface{} `json:"renderedFields,omitempty"`
	Changelog      map[string]interface{} `json:"changelog,omitempty"`
}

// SearchIssuesOutput is the output event of the searchIssues block.
type SearchIssuesOutput struct {
	Total           int                 `json:"total"`
	StartAt         int                 `json:"startAt"`
	MaxResults      int                 `json:"maxResults"`
	Issues          []SearchIssueResult `json:"issues"`
	WarningMessages []string            `json:"warningMessages"`
}

// SearchIssues runs a JQL search and relays a single page of results.
func SearchIssues(ctx context.Context, client *jira.Client, in SearchIssuesInput) (*SearchIssuesOutput, error) {
	maxResults := in.MaxResults
	if maxResults == 0 {
		maxResults = 50
	}
	if maxResults > maxSearchResults {
		maxResults = maxSearchResults
	}

	request := map[string]interface{}{
		"jql":        in.JQL,
		"startAt":    in.StartAt,
		"maxResults": maxResults,
	}
	if len(in.Fields) > 0 {
		request["fields"] = in.Fields
	}
	if len(in.Expand) > 0 {
		request["expand"] = in.Expand
	}

	var results struct {
		StartAt    int `json:"startAt"`
		MaxResults int `json:"maxResults"`
		Total      int `json:"total"`
		Issues     []struct {
			SearchIssueResult
			Self string `json:"self"`
		} `json:"issues"`
		WarningMessages []string `json:"warningMessages"`
	}
	if err := client.Post(ctx, "/search", request, &results); err != nil {
		return nil, fmt.Errorf("search issues: %w", err)
	}

	issues := make([]SearchIssueResult, 0, len(results.Issues))
	for _, issue := range results.Issues {
		mapped := issue.SearchIssueResult
		mapped.IssueURL = issue.Self
		issues = append(issues, mapped)
	}
	warnings := results.WarningMessages
	if warnings == nil {
		warnings = []string{}
	}
	return &SearchIssuesOutput{
		Total:           results.Total,
		StartAt:         results.StartAt,
		MaxResults:      results.MaxResults,
		Issues:          issues,
		WarningMessages: warnings,
	}, nil
}
