package blocks

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

// TestAddCommentWrapsBody tests that the comment text is wrapped in an ADF
// document and the created comment is reported.
func TestAddCommentWrapsBody(t *testing.T) {
	var payload map[string]interface{}
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/issue/PROJ-1/comment" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		w.Write([]byte(`{"id": "5001", "created": "2026-08-01T10:00:00.000+0000", "self": "https://example.atlassian.net/rest/api/3/issue/PROJ-1/comment/5001"}`))
	}))

	out, err := AddComment(context.Background(), client, AddCommentInput{
		IssueIDOrKey:    "PROJ-1",
		Comment:         "Deployed to staging",
		VisibilityGroup: "jira-developers",
	})
	if err != nil {
		t.Fatalf("adding comment: %v", err)
	}
	if out.CommentID != "5001" || out.CommentURL == "" {
		t.Fatalf("unexpected output: %+v", out)
	}

	body := payload["body"].(map[string]interface{})
	if body["type"] != "doc" {
		t.Fatalf("expected an ADF document body, got %v", body)
	}
	visibility := payload["visibility"].(map[string]interface{})
	if visibility["type"] != "group" || visibility["value"] != "jira-developers" {
		t.Fatalf("unexpected visibility: %v", visibility)
	}
}

// TestLinkIssues tests the issue link payload shape.
func TestLinkIssues(t *testing.T) {
	var payload map[string]interface{}
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/issueLink" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))

	out, err := LinkIssues(context.Background(), client, LinkIssuesInput{
		LinkType:        "Blocks",
		InwardIssueKey:  "PROJ-1",
		OutwardIssueKey: "PROJ-2",
	})
	if err != nil {
		t.Fatalf("linking issues: %v", err)
	}
	if !out.Linked {
		t.Fatal("expected the issues to be reported linked")
	}

	linkType := payload["type"].(map[string]interface{})
	inward := payload["inwardIssue"].(map[string]interface{})
	outward := payload["outwardIssue"].(map[string]interface{})
	if linkType["name"] != "Blocks" || inward["key"] != "PROJ-1" || outward["key"] != "PROJ-2" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if _, ok := payload["comment"]; ok {
		t.Fatal("expected no comment without one provided")
	}
}

// TestAddExternalLinkNumericID tests that the numeric remote link ID is
// converted to a string in the output.
func TestAddExternalLinkNumericID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/issue/PROJ-1/remotelink" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"id": 10200, "self": "https://example.atlassian.net/rest/api/3/issue/PROJ-1/remotelink/10200"}`))
	}))

	out, err := AddExternalLink(context.Background(), client, AddExternalLinkInput{
		IssueIDOrKey: "PROJ-1",
		URL:          "https://ci.example.com/build/42",
		Title:        "Build 42",
	})
	if err != nil {
		t.Fatalf("adding external link: %v", err)
	}
	if out.LinkID != "10200" || !out.Created {
		t.Fatalf("unexpected output: %+v", out)
	}
}

// TestSendNotificationRecipientClassification tests that recipients are
// routed to users or groups by shape and the browse restriction defaults on.
func TestSendNotificationRecipientClassification(t *testing.T) {
	var payload map[string]interface{}
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/issue/PROJ-1/notify" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	out, err := SendNotification(context.Background(), client, SendNotificationInput{
		IssueIDOrKey: "PROJ-1",
		Subject:      "Deployment complete",
		Recipients:   []string{"dev@example.com", "jira-developers", "acctid1"},
		TextBody:     "The release went out.",
	})
	if err != nil {
		t.Fatalf("sending notification: %v", err)
	}
	if out.RecipientCount != 3 || !out.Notified {
		t.Fatalf("unexpected output: %+v", out)
	}

	to := payload["to"].(map[string]interface{})
	users := to["users"].([]interface{})
	groups := to["groups"].([]interface{})
	if len(users) != 2 || len(groups) != 1 {
		t.Fatalf("unexpected recipient split: users=%v groups=%v", users, groups)
	}
	if users[0].(map[string]interface{})["email"] != "dev@example.com" {
		t.Fatalf("expected an email recipient, got %v", users[0])
	}
	if users[1].(map[string]interface{})["accountId"] != "acctid1" {
		t.Fatalf("expected an account ID recipient, got %v", users[1])
	}
	restrict := payload["restrict"].(map[string]interface{})
	permissions := restrict["permissions"].([]interface{})
	if len(permissions) != 1 || permissions[0].(map[string]interface{})["key"] != "BROWSE" {
		t.Fatalf("expected the browse restriction by default, got %v", permissions)
	}
}

// TestSendNotificationRequiresRecipients tests that an empty recipient list
// is rejected.
func TestSendNotificationRequiresRecipients(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected request to %s", r.URL.Path)
	}))

	_, err := SendNotification(context.Background(), client, SendNotificationInput{IssueIDOrKey: "PROJ-1"})
	if err == nil || !strings.Contains(err.Error(), "no recipients provided") {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestCreateVersion tests the created version payload and output mapping.
func TestCreateVersion(t *testing.T) {
	var payload map[string]interface{}
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/version" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		w.Write([]byte(`{"id": "20001", "self": "https://example.atlassian.net/rest/api/3/version/20001"}`))
	}))

	out, err := CreateVersion(context.Background(), client, CreateVersionInput{
		Name:      "1.2.0",
		ProjectID: "10000",
	})
	if err != nil {
		t.Fatalf("creating version: %v", err)
	}
	if out.VersionID != "20001" || !out.Created {
		t.Fatalf("unexpected output: %+v", out)
	}
	if payload["released"] != false || payload["archived"] != false {
		t.Fatalf("expected the version to start unreleased and unarchived, got %v", payload)
	}
}

// TestUpdateVersionSendsOnlyProvidedFields tests that absent pointer fields
// stay out of the payload and an empty update is rejected.
func TestUpdateVersionSendsOnlyProvidedFields(t *testing.T) {
	var payload map[string]interface{}
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/rest/api/3/version/20001" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))

	released := true
	out, err := UpdateVersion(context.Background(), client, UpdateVersionInput{
		VersionID: "20001",
		Released:  &released,
	})
	if err != nil {
		t.Fatalf("updating version: %v", err)
	}
	if !out.Updated {
		t.Fatal("expected the version to be reported updated")
	}
	if len(payload) != 1 || payload["released"] != true {
		t.Fatalf("expected only the released field, got %v", payload)
	}

	_, err = UpdateVersion(context.Background(), client, UpdateVersionInput{VersionID: "20001"})
	if err == nil || !strings.Contains(err.Error(), "no fields provided") {
		t.Fatalf("unexpected error: %v", err)
	}
}
