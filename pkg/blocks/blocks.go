// Package blocks is the catalog of callable Jira operations the adapter
// exposes to the host platform. Every block declares its input fields and
// translates a pre-validated input configuration into Jira REST calls.
package blocks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spacelift-io/flows-app-jira/pkg/jira"
)

// FieldSpec describes one input configuration field of a block.
type FieldSpec struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

// Descriptor is the static, host-facing description of a block.
type Descriptor struct {
	Name        string      `json:"name"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Inputs      []FieldSpec `json:"inputs,omitempty"`
}

// RunFunc executes a block against a client with a raw input configuration.
type RunFunc func(ctx context.Context, client *jira.Client, input json.RawMessage) (interface{}, error)

// Block pairs a descriptor with its runner.
type Block struct {
	Descriptor
	Run RunFunc
}

// NotFoundError reports a named resource that does not exist on the remote
// side, with the valid alternatives spelled out where known.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// Catalog returns the full operation catalog keyed by block identifier.
func Catalog() map[string]Block {
	return map[string]Block{
		"createIssue":     {Descriptor: createIssueDescriptor, Run: runner(CreateIssue)},
		"getIssue":        {Descriptor: getIssueDescriptor, Run: runner(GetIssue)},
		"updateIssue":     {Descriptor: updateIssueDescriptor, Run: runner(UpdateIssue)},
		"assignIssue":     {Descriptor: assignIssueDescriptor, Run: runner(AssignIssue)},
		"transitionIssue": {Descriptor: transitionIssueDescriptor, Run: runner(TransitionIssue)},
		"searchIssues":    {Descriptor: searchIssuesDescriptor, Run: runner(SearchIssues)},
		"addComment":      {Descriptor: addCommentDescriptor, Run: runner(AddComment)},
		"addWatchers":     {Descriptor: addWatchersDescriptor, Run: runner(AddWatchers)},
		"linkIssues":      {Descriptor: linkIssuesDescriptor, Run: runner(LinkIssues)},
		"addExternalLink": {Descriptor: addExternalLinkDescriptor, Run: runner(AddExternalLink)},
		"sendNotification": {
			Descriptor: sendNotificationDescriptor,
			Run:        runner(SendNotification),
		},
		"getUserDetails": {Descriptor: getUserDetailsDescriptor, Run: runner(GetUserDetails)},
		"createVersion":  {Descriptor: createVersionDescriptor, Run: runner(CreateVersion)},
		"updateVersion":  {Descriptor: updateVersionDescriptor, Run: runner(UpdateVersion)},
	}
}

func runner[In, Out any](fn func(context.Context, *jira.Client, In) (Out, error)) RunFunc {
	return func(ctx context.Context, client *jira.Client, input json.RawMessage) (interface{}, error) {
		var in In
		if len(input) > 0 {
			if err := json.Unmarshal(input, &in); err != nil {
				return nil, fmt.Errorf("decode input: %w", err)
			}
		}
		return fn(ctx, client, in)
	}
}

// mergeFields overlays extra onto base; keys from extra win on conflict.
func mergeFields(base, extra map[string]interface{}) {
	for k, v := range extra {
		base[k] = v
	}
}
