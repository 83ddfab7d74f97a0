package blocks

import (
	"context"
	"fmt"
	"strings"

	"github.com/spacelift-io/flows-app-jira/pkg/jira"
)

var sendNotificationDescriptor = Descriptor{
	Name:        "Send Notification",
	Category:    "Notifications",
	Description: "Send an email notification about a Jira issue to specific recipients",
	Inputs: []FieldSpec{
		{Key: "issueIdOrKey", Name: "Issue ID or Key", Type: "string", Required: true},
		{Key: "subject", Name: "Subject", Type: "string", Required: true},
		{Key: "recipients", Name: "Recipients", Type: "[]string", Required: true,
			Description: "Account IDs, email addresses, or group names"},
		{Key: "textBody", Name: "Text Body", Type: "string"},
		{Key: "htmlBody", Name: "HTML Body", Type: "string"},
		{Key: "restrict", Name: "Restrict", Type: "boolean",
			Description: "Only notify recipients allowed to browse the issue (default true)"},
	},
}

// SendNotificationInput is the input configuration of the sendNotification
// block. Restrict defaults to true when omitted.
type SendNotificationInput struct {
	IssueIDOrKey string   `json:"issueIdOrKey"`
	Subject      string   `json:"subject"`
	Recipients   []string `json:"recipients"`
	TextBody     string   `json:"textBody,omitempty"`
	HTMLBody     string   `json:"htmlBody,omitempty"`
	Restrict     *bool    `json:"restrict,omitempty"`
}

// SendNotificationOutput is the output event of the sendNotification block.
type SendNotificationOutput struct {
	IssueIDOrKey   string `json:"issueIdOrKey"`
	Subject        string `json:"subject"`
	RecipientCount int    `json:"recipientCount"`
	Notified       bool   `json:"notified"`
}

// SendNotification posts to the issue notify endpoint. Each recipient is
// classified by shape: strings with "@" are emails, strings with "-" are
// group names, anything else is an account ID.
func SendNotification(ctx context.Context, client *jira.Client, in SendNotificationInput) (*SendNotificationOutput, error) {
	if len(in.Recipients) == 0 {
		return nil, fmt.Errorf("send notification: no recipients provided")
	}

	users := make([]map[string]interface{}, 0, len(in.Recipients))
	groups := make([]map[string]interface{}, 0)
	for _, recipient := range in.Recipients {
		switch {
		case strings.Contains(recipient, "@"):
			users = append(users, map[string]interface{}{"email": recipient})
		case strings.Contains(recipient, "-"):
			groups = append(groups, map[string]interface{}{"name": recipient})
		default:
			users = append(users, map[string]interface{}{"accountId": recipient})
		}
	}

	to := map[string]interface{}{}
	if len(users) > 0 {
		to["users"] = users
	}
	if len(groups) > 0 {
		to["groups"] = groups
	}

	permissions := []interface{}{}
	if in.Restrict == nil || *in.Restrict {
		permissions = append(permissions, map[string]interface{}{"key": "BROWSE"})
	}

	payload := map[string]interface{}{
		"subject":  in.Subject,
		"to":       to,
		"restrict": map[string]interface{}{"permissions": permissions},
	}
	if in.TextBody != "" {
		payload["textBody"] = in.TextBody
	}
	if in.HTMLBody != "" {
		payload["htmlBody"] = in.HTMLBody
	}

	if err := client.Post(ctx, "/issue/"+in.IssueIDOrKey+"/notify", payload, nil); err != nil {
		return nil, fmt.Errorf("send notification: %w", err)
	}
	return &SendNotificationOutput{
		IssueIDOrKey:   in.IssueIDOrKey,
		Subject:        in.Subject,
		RecipientCount: len(in.Recipients),
		Notified:       true,
	}, nil
}
