package blocks

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/spacelift-io/flows-app-jira/pkg/jira"
)

var getUserDetailsDescriptor = Descriptor{
	Name:        "Get User Details",
	Category:    "Users",
	Description: "Look up a Jira user by email address or account ID",
	Inputs: []FieldSpec{
		{Key: "email", Name: "Email", Type: "string",
			Description: "Email address to search by (mutually exclusive with accountId)"},
		{Key: "accountId", Name: "Account ID", Type: "string",
			Description: "Atlassian account ID to look up directly"},
	},
}

// GetUserDetailsInput is the input configuration of the getUserDetails block.
// Exactly one of Email or AccountID must be set.
type GetUserDetailsInput struct {
	Email     string `json:"email,omitempty"`
	AccountID string `json:"accountId,omitempty"`
}

// GetUserDetailsOutput is the output event of the getUserDetails block.
type GetUserDetailsOutput struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress,omitempty"`
	Active       bool   `json:"active"`
	AccountType  string `json:"accountType,omitempty"`
}

// GetUserDetails resolves a user either directly by account ID or by searching
// for an exact email match. Email search requires an exact, case-insensitive
// match since Jira's user search is fuzzy.
func GetUserDetails(ctx context.Context, client *jira.Client, in GetUserDetailsInput) (*GetUserDetailsOutput, error) {
	if in.Email == "" && in.AccountID == "" {
		return nil, fmt.Errorf("get user details: either email or accountId must be provided")
	}
	if in.Email != "" && in.AccountID != "" {
		return nil, fmt.Errorf("get user details: email and accountId are mutually exclusive")
	}

	if in.AccountID != "" {
		var user jira.User
		if err := client.Get(ctx, "/user?accountId="+url.QueryEscape(in.AccountID), &user); err != nil {
			return nil, fmt.Errorf("get user details: %w", err)
		}
		return userDetails(user), nil
	}

	var candidates []jira.User
	if err := client.Get(ctx, "/user/search?query="+url.QueryEscape(in.Email), &candidates); err != nil {
		return nil, fmt.Errorf("get user details: %w", err)
	}
	for _, user := range candidates {
		if strings.EqualFold(user.EmailAddress, in.Email) {
			return userDetails(user), nil
		}
	}
	return nil, &NotFoundError{Message: fmt.Sprintf("no user found with email address: %s", in.Email)}
}

func userDetails(user jira.User) *GetUserDetailsOutput {
	return &GetUserDetailsOutput{
		AccountID:    user.AccountID,
		DisplayName:  user.DisplayName,
		EmailAddress: user.EmailAddress,
		Active:       user.Active,
		AccountType:  user.AccountType,
	}
}
