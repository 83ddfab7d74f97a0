package blocks

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spacelift-io/flows-app-jira/pkg/jira"
)

var createIssueDescriptor = Descriptor{
	Name:        "Create Issue",
	Category:    "Issues",
	Description: "Create a new Jira issue with specified details",
	Inputs: []FieldSpec{
		{Key: "projectKey", Name: "Project Key", Type: "string", Required: true,
			Description: "The key of the project where the issue will be created (e.g. 'PROJ')"},
		{Key: "issueTypeName", Name: "Issue Type", Type: "string", Required: true,
			Description: "The name of the issue type (e.g. 'Bug', 'Task', 'Story')"},
		{Key: "summary", Name: "Summary", Type: "string", Required: true,
			Description: "Brief title of the issue"},
		{Key: "description", Name: "Description", Type: "string",
			Description: "Detailed description of the issue"},
		{Key: "priorityName", Name: "Priority", Type: "string",
			Description: "The priority level name (e.g. 'Low', 'High')"},
		{Key: "assigneeAccountId", Name: "Assignee Account ID", Type: "string",
			Description: "Account ID of the user to assign the issue to"},
		{Key: "parentKey", Name: "Parent Issue Key", Type: "string",
			Description: "Key of the parent issue or epic"},
		{Key: "labels", Name: "Labels", Type: "[]string",
			Description: "Labels to add to the issue"},
		{Key: "additionalFields", Name: "Additional Fields", Type: "object",
			Description: "Additional fields as a JSON object (custom fields, components, ...)"},
	},
}

// CreateIssueInput is the input configuration of the createIssue block.
type CreateIssueInput struct {
	ProjectKey        string                 `json:"projectKey"`
	IssueTypeName     string                 `json:"issueTypeName"`
	Summary           string                 `json:"summary"`
	Description       string                 `json:"description,omitempty"`
	PriorityName      string                 `json:"priorityName,omitempty"`
	AssigneeAccountID string                 `json:"assigneeAccountId,omitempty"`
	ParentKey         string                 `json:"parentKey,omitempty"`
	Labels            []string               `json:"labels,omitempty"`
	AdditionalFields  map[string]interface{} `json:"additionalFields,omitempty"`
}

// CreateIssueOutput is the output event of the createIssue block.
type CreateIssueOutput struct {
	IssueID  string `json:"issueId"`
	IssueKey string `json:"issueKey"`
	IssueURL string `json:"issueUrl"`
}

// CreateIssue creates a new issue. Not idempotent: retries create duplicates.
func CreateIssue(ctx context.Context, client *jira.Client, in CreateIssueInput) (*CreateIssueOutput, error) {
	fields := map[string]interface{}{
		"project":   map[string]interface{}{"key": in.ProjectKey},
		"issuetype": map[string]interface{}{"name": in.IssueTypeName},
		"summary":   in.Summary,
	}
	if in.Description != "" {
		fields["description"] = jira.Document(in.Description)
	}
	if in.PriorityName != "" {
		fields["priority"] = map[string]interface{}{"name": in.PriorityName}
	}
	if in.AssigneeAccountID != "" {
		fields["assignee"] = map[string]interface{}{"accountId": in.AssigneeAccountID}
	}
	if in.ParentKey != "" {
		fields["parent"] = map[string]interface{}{"key": in.ParentKey}
	}
	if in.Labels != nil {
		fields["labels"] = in.Labels
	}
	mergeFields(fields, in.AdditionalFields)

	var created struct {
		ID   string `json:"id"`
		Key  string `json:"key"`
		Self string `json:"self"`
	}
	if err := client.Post(ctx, "/issue", map[string]interface{}{"fields": fields}, &created); err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}
	return &CreateIssueOutput{
		IssueID:  created.ID,
		IssueKey: created.Key,
		IssueURL: created.Self,
	}, nil
}

var getIssueDescriptor = Descriptor{
	Name:        "Get Issue",
	Category:    "Issues",
	Description: "Retrieve a Jira issue by ID or key with optional field filtering and expansion",
	Inputs: []FieldSpec{
		{Key: "issueIdOrKey", Name: "Issue ID or Key", Type: "string", Required: true},
		{Key: "fields", Name: "Fields to Include", Type: "[]string",
			Description: "Fields to include; empty returns all fields"},
		{Key: "expand", Name: "Expand Options", Type: "[]string",
			Description: "Entities to expand (e.g. 'changelog', 'transitions')"},
	},
}

// GetIssueInput is the input configuration of the getIssue block.
type GetIssueInput struct {
	IssueIDOrKey string   `json:"issueIdOrKey"`
	Fields       []string `json:"fields,omitempty"`
	Expand       []string `json:"expand,omitempty"`
}

// GetIssueOutput is the output event of the getIssue block.
type GetIssueOutput struct {
	ID             string                 `json:"id"`
	Key            string                 `json:"key"`
	IssueURL       string                 `json:"issueUrl"`
	Fields         map[string]interface{} `json:"fields"`
	Expand         string                 `json:"expand,omitempty"`
	Names          map[string]string      `json:"names,omitempty"`
	RenderedFields map[string]interface{} `json:"renderedFields,omitempty"`
	Changelog      map[string]interface{} `json:"changelog,omitempty"`
	Transitions    []interface{}          `json:"transitions,omitempty"`
	Operations     map[string]interface{} `json:"operations,omitempty"`
	EditMeta       map[string]interface{} `json:"editmeta,omitempty"`
}

// GetIssue fetches an issue.
func GetIssue(ctx context.Context, client *jira.Client, in GetIssueInput) (*GetIssueOutput, error) {
	params := url.Values{}
	if len(in.Fields) > 0 {
		params.Set("fields", strings.Join(in.Fields, ","))
	}
	if len(in.Expand) > 0 {
		params.Set("expand", strings.Join(in.Expand, ","))
	}
	endpoint := "/issue/" + in.IssueIDOrKey
	if query := params.Encode(); query != "" {
		endpoint += "?" + query
	}

	var issue struct {
		GetIssueOutput
		Self string `json:"self"`
	}
	if err := client.Get(ctx, endpoint, &issue); err != nil {
		return nil, fmt.Errorf("get issue: %w", err)
	}
	out := issue.GetIssueOutput
	out.IssueURL = issue.Self
	return &out, nil
}

var updateIssueDescriptor = Descriptor{
	Name:        "Update Issue",
	Category:    "Issues",
	Description: "Update an existing Jira issue with new field values",
	Inputs: []FieldSpec{
		{Key: "issueIdOrKey", Name: "Issue ID or Key", Type: "string", Required: true},
		{Key: "summary", Name: "Summary", Type: "string"},
		{Key: "description", Name: "Description", Type: "string"},
		{Key: "priorityName", Name: "Priority", Type: "string"},
		{Key: "assigneeAccountId", Name: "Assignee Account ID", Type: "string"},
		{Key: "labels", Name: "Labels", Type: "[]string",
			Description: "Labels to set on the issue (replaces existing labels)"},
		{Key: "additionalFields", Name: "Additional Fields", Type: "object"},
		{Key: "updateOperations", Name: "Update Operations", Type: "object",
			Description: "Advanced update operations using Jira's update syntax"},
	},
}

// UpdateIssueInput is the input configuration of the updateIssue block.
type UpdateIssueInput struct {
	IssueIDOrKey      string                 `json:"issueIdOrKey"`
	Summary           string                 `json:"summary,omitempty"`
	Description       string                 `json:"description,omitempty"`
	PriorityName      string                 `json:"priorityName,omitempty"`
	AssigneeAccountID string                 `json:"assigneeAccountId,omitempty"`
	Labels            []string               `json:"labels,omitempty"`
	AdditionalFields  map[string]interface{} `json:"additionalFields,omitempty"`
	UpdateOperations  map[string]interface{} `json:"updateOperations,omitempty"`
}

// UpdateIssueOutput is the output event of the updateIssue block.
type UpdateIssueOutput struct {
	IssueIDOrKey string `json:"issueIdOrKey"`
	Updated      bool   `json:"updated"`
}

// UpdateIssue updates an issue's fields. It fails if no field values or
// update operations are given.
func UpdateIssue(ctx context.Context, client *jira.Client, in UpdateIssueInput) (*UpdateIssueOutput, error) {
	fields := map[string]interface{}{}
	if in.Summary != "" {
		fields["summary"] = in.Summary
	}
	if in.Description != "" {
		fields["description"] = jira.Document(in.Description)
	}
	if in.PriorityName != "" {
		fields["priority"] = map[string]interface{}{"name": in.PriorityName}
	}
	if in.AssigneeAccountID != "" {
		fields["assignee"] = map[string]interface{}{"accountId": in.AssigneeAccountID}
	}
	if in.Labels != nil {
		fields["labels"] = in.Labels
	}
	mergeFields(fields, in.AdditionalFields)

	if len(fields) == 0 && len(in.UpdateOperations) == 0 {
		return nil, errors.New("update issue: no fields or update operations provided")
	}

	updateData := map[string]interface{}{}
	if len(fields) > 0 {
		updateData["fields"] = fields
	}
	if len(in.UpdateOperations) > 0 {
		updateData["update"] = in.UpdateOperations
	}

	if err := client.Put(ctx, "/issue/"+in.IssueIDOrKey, updateData, nil); err != nil {
		return nil, fmt.Errorf("update issue: %w", err)
	}
	return &UpdateIssueOutput{IssueIDOrKey: in.IssueIDOrKey, Updated: true}, nil
}

var assignIssueDescriptor = Descriptor{
	Name:        "Assign Issue",
	Category:    "Issues",
	Description: "Assign a Jira issue to a user",
	Inputs: []FieldSpec{
		{Key: "issueIdOrKey", Name: "Issue ID or Key", Type: "string", Required: true},
		{Key: "accountId", Name: "Account ID", Type: "string",
			Description: "Account ID of the assignee; empty unassigns the issue"},
	},
}

// AssignIssueInput is the input configuration of the assignIssue block.
type AssignIssueInput struct {
	IssueIDOrKey string `json:"issueIdOrKey"`
	AccountID    string `json:"accountId,omitempty"`
}

// AssignIssueOutput is the output event of the assignIssue block.
type AssignIssueOutput struct {
	IssueIDOrKey string `json:"issueIdOrKey"`
	Assigned     bool   `json:"assigned"`
}

// AssignIssue assigns (or, with an empty account ID, unassigns) an issue.
func AssignIssue(ctx context.Context, client *jira.Client, in AssignIssueInput) (*AssignIssueOutput, error) {
	var accountID interface{}
	if in.AccountID != "" {
		accountID = in.AccountID
	}
	payload := map[string]interface{}{"accountId": accountID}
	if err := client.Put(ctx, "/issue/"+in.IssueIDOrKey+"/assignee", payload, nil); err != nil {
		return nil, fmt.Errorf("assign issue: %w", err)
	}
	return &AssignIssueOutput{IssueIDOrKey: in.IssueIDOrKey, Assigned: true}, nil
}
