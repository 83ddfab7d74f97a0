package blocks

import (
	"context"
	"fmt"

	"github.com/spacelift-io/flows-app-jira/pkg/jira"
)

var addCommentDescriptor = Descriptor{
	Name:        "Add Comment",
	Category:    "Comments",
	Description: "Add a comment to a Jira issue",
	Inputs: []FieldSpec{
		{Key: "issueIdOrKey", Name: "Issue ID or Key", Type: "string", Required: true},
		{Key: "comment", Name: "Comment", Type: "string", Required: true},
		{Key: "visibilityGroup", Name: "Visibility Group", Type: "string",
			Description: "Restrict the comment to members of this group"},
	},
}

// AddCommentInput is the input configuration of the addComment block.
type AddCommentInput struct {
	IssueIDOrKey    string `json:"issueIdOrKey"`
	Comment         string `json:"comment"`
	VisibilityGroup string `json:"visibilityGroup,omitempty"`
}

// AddCommentOutput is the output event of the addComment block.
type AddCommentOutput struct {
	CommentID  string `json:"commentId"`
	Created    string `json:"created"`
	CommentURL string `json:"commentUrl,omitempty"`
}

// AddComment posts a plain-text comment, converted to the Atlassian document
// format, optionally restricted to a group.
func AddComment(ctx context.Context, client *jira.Client, in AddCommentInput) (*AddCommentOutput, error) {
	payload := map[string]interface{}{
		"body": jira.Document(in.Comment),
	}
	if in.VisibilityGroup != "" {
		payload["visibility"] = map[string]interface{}{
			"type":  "group",
			"value": in.VisibilityGroup,
		}
	}

	var created struct {
		ID      string `json:"id"`
		Created string `json:"created"`
		Self    string `json:"self"`
	}
	if err := client.Post(ctx, "/issue/"+in.IssueIDOrKey+"/comment", payload, &created); err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}
	return &AddCommentOutput{
		CommentID:  created.ID,
		Created:    created.Created,
		CommentURL: created.Self,
	}, nil
}
