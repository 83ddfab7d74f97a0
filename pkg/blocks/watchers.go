package blocks

import (
	"context"
	"fmt"

	"github.com/spacelift-io/flows-app-jira/pkg/jira"
)

var addWatchersDescriptor = Descriptor{
	Name:        "Add Watchers",
	Category:    "Issues",
	Description: "Add one or more watchers to a Jira issue",
	Inputs: []FieldSpec{
		{Key: "issueIdOrKey", Name: "Issue ID or Key", Type: "string", Required: true},
		{Key: "accountIds", Name: "Account IDs", Type: "[]string", Required: true,
			Description: "Atlassian account IDs of the users to add as watchers"},
	},
}

// AddWatchersInput is the input configuration of the addWatchers block.
type AddWatchersInput struct {
	IssueIDOrKey string   `json:"issueIdOrKey"`
	AccountIDs   []string `json:"accountIds"`
}

// WatcherResult reports the outcome of adding a single watcher.
type WatcherResult struct {
	AccountID string `json:"accountId"`
	Added     bool   `json:"added"`
	Error     string `json:"error,omitempty"`
}

// AddWatchersOutput is the output event of the addWatchers block.
type AddWatchersOutput struct {
	IssueIDOrKey  string          `json:"issueIdOrKey"`
	TotalWatchers int             `json:"totalWatchers"`
	SuccessCount  int             `json:"successCount"`
	FailureCount  int             `json:"failureCount"`
	Results       []WatcherResult `json:"results"`
}

// AddWatchers adds each account as a watcher in turn. A failing account does
// not abort the rest, the per-account outcome is reported in Results.
func AddWatchers(ctx context.Context, client *jira.Client, in AddWatchersInput) (*AddWatchersOutput, error) {
	if len(in.AccountIDs) == 0 {
		return nil, fmt.Errorf("add watchers: no account ids provided")
	}

	out := &AddWatchersOutput{
		IssueIDOrKey:  in.IssueIDOrKey,
		TotalWatchers: len(in.AccountIDs),
		Results:       make([]WatcherResult, 0, len(in.AccountIDs)),
	}
	endpoint := "/issue/" + in.IssueIDOrKey + "/watchers"
	for _, accountID := range in.AccountIDs {
		// The watchers endpoint takes the bare account ID as the JSON body.
		err := client.Post(ctx, endpoint, accountID, nil)
		result := WatcherResult{AccountID: accountID, Added: err == nil}
		if err != nil {
			result.Error = err.Error()
			out.FailureCount++
		} else {
			out.SuccessCount++
		}
		out.Results = append(out.Results, result)
	}
	return out, nil
}
