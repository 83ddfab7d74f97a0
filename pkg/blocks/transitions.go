package blocks

import (
	"context"
	"fmt"
	"strings"

	"github.com/spacelift-io/flows-app-jira/pkg/jira"
)

var transitionIssueDescriptor = Descriptor{
	Name:        "Transition Issue",
	Category:    "Issues",
	Description: "Transition a Jira issue through workflow states",
	Inputs: []FieldSpec{
		{Key: "issueIdOrKey", Name: "Issue ID or Key", Type: "string", Required: true},
		{Key: "transitionName", Name: "Transition Name", Type: "string", Required: true,
			Description: "The name of the transition to perform (e.g. 'In Progress', 'Done')"},
		{Key: "comment", Name: "Comment", Type: "string",
			Description: "Optional comment to add when transitioning"},
		{Key: "resolution", Name: "Resolution", Type: "string",
			Description: "Resolution to set, typically when closing issues"},
		{Key: "additionalFields", Name: "Additional Fields", Type: "object"},
	},
}

// TransitionIssueInput is the input configuration of the transitionIssue block.
type TransitionIssueInput struct {
	IssueIDOrKey     string                 `json:"issueIdOrKey"`
	TransitionName   string                 `json:"transitionName"`
	Comment          string                 `json:"comment,omitempty"`
	Resolution       string                 `json:"resolution,omitempty"`
	AdditionalFields map[string]interface{} `json:"additionalFields,omitempty"`
}

// TransitionIssueOutput is the output event of the transitionIssue block.
type TransitionIssueOutput struct {
	IssueIDOrKey string `json:"issueIdOrKey"`
	TransitionID string `json:"transitionId"`
	Transitioned bool   `json:"transitioned"`
}

// TransitionIssue resolves the named transition to its ID against the
// issue's currently available transitions, then performs it. An unknown name
// fails with the available transition names listed.
func TransitionIssue(ctx context.Context, client *jira.Client, in TransitionIssueInput) (*TransitionIssueOutput, error) {
	var available struct {
		Transitions []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"transitions"`
	}
	endpoint := "/issue/" + in.IssueIDOrKey + "/transitions"
	if err := client.Get(ctx, endpoint, &available); err != nil {
		return nil, fmt.Errorf("transition issue: %w", err)
	}

	transitionID := ""
	names := make([]string, 0, len(available.Transitions))
	for _, t := range available.Transitions {
		names = append(names, t.Name)
		if strings.EqualFold(t.Name, in.TransitionName) {
			transitionID = t.ID
		}
	}
	if transitionID == "" {
		return nil, &NotFoundError{Message: fmt.Sprintf(
			"transition %q not found, available transitions: %s",
			in.TransitionName, strings.Join(names, ", "),
		)}
	}

	payload := map[string]interface{}{
		"transition": map[string]interface{}{"id": transitionID},
	}
	fields := map[string]interface{}{}
	if in.Resolution != "" {
		fields["resolution"] = map[string]interface{}{"name": in.Resolution}
	}
	mergeFields(fields, in.AdditionalFields)
	if len(fields) > 0 {
		payload["fields"] = fields
	}
	if in.Comment != "" {
		payload["update"] = map[string]interface{}{
			"comment": []interface{}{
				map[string]interface{}{
					"add": map[string]interface{}{"body": jira.Document(in.Comment)},
				},
			},
		}
	}

	if err := client.Post(ctx, endpoint, payload, nil); err != nil {
		return nil, fmt.Errorf("transition issue: %w", err)
	}
	return &TransitionIssueOutput{
		IssueIDOrKey: in.IssueIDOrKey,
		TransitionID: transitionID,
		Transitioned: true,
	}, nil
}
