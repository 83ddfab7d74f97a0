package blocks

import (
	"context"
	"fmt"

	"github.com/spacelift-io/flows-app-jira/pkg/jira"
)

var createVersionDescriptor = Descriptor{
	Name:        "Create Version",
	Category:    "Versions",
	Description: "Create a new fix version in a Jira project",
	Inputs: []FieldSpec{
		{Key: "name", Name: "Name", Type: "string", Required: true},
		{Key: "projectId", Name: "Project ID", Type: "string", Required: true,
			Description: "The numeric project ID the version belongs to"},
		{Key: "description", Name: "Description", Type: "string"},
		{Key: "startDate", Name: "Start Date", Type: "string",
			Description: "Start date in YYYY-MM-DD format"},
		{Key: "releaseDate", Name: "Release Date", Type: "string",
			Description: "Planned release date in YYYY-MM-DD format"},
	},
}

// CreateVersionInput is the input configuration of the createVersion block.
type CreateVersionInput struct {
	Name        string `json:"name"`
	ProjectID   string `json:"projectId"`
	Description string `json:"description,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	ReleaseDate string `json:"releaseDate,omitempty"`
}

// CreateVersionOutput is the output event of the createVersion block.
type CreateVersionOutput struct {
	VersionID  string `json:"versionId"`
	VersionURL string `json:"versionUrl,omitempty"`
	Created    bool   `json:"created"`
}

// CreateVersion creates an unreleased, unarchived version in a project.
func CreateVersion(ctx context.Context, client *jira.Client, in CreateVersionInput) (*CreateVersionOutput, error) {
	payload := map[string]interface{}{
		"name":      in.Name,
		"projectId": in.ProjectID,
		"archived":  false,
		"released":  false,
	}
	if in.Description != "" {
		payload["description"] = in.Description
	}
	if in.StartDate != "" {
		payload["startDate"] = in.StartDate
	}
	if in.ReleaseDate != "" {
		payload["releaseDate"] = in.ReleaseDate
	}

	var created struct {
		ID   string `json:"id"`
		Self string `json:"self"`
	}
	if err := client.Post(ctx, "/version", payload, &created); err != nil {
		return nil, fmt.Errorf("create version: %w", err)
	}
	return &CreateVersionOutput{
		VersionID:  created.ID,
		VersionURL: created.Self,
		Created:    true,
	}, nil
}

var updateVersionDescriptor = Descriptor{
	Name:        "Update Version",
	Category:    "Versions",
	Description: "Update an existing Jira version, including releasing or archiving it",
	Inputs: []FieldSpec{
		{Key: "versionId", Name: "Version ID", Type: "string", Required: true},
		{Key: "name", Name: "Name", Type: "string"},
		{Key: "description", Name: "Description", Type: "string"},
		{Key: "released", Name: "Released", Type: "boolean"},
		{Key: "archived", Name: "Archived", Type: "boolean"},
		{Key: "startDate", Name: "Start Date", Type: "string"},
		{Key: "releaseDate", Name: "Release Date", Type: "string"},
	},
}

// UpdateVersionInput is the input configuration of the updateVersion block.
// Pointer fields distinguish "leave unchanged" from an explicit value.
type UpdateVersionInput struct {
	VersionID   string  `json:"versionId"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Released    *bool   `json:"released,omitempty"`
	Archived    *bool   `json:"archived,omitempty"`
	StartDate   *string `json:"startDate,omitempty"`
	ReleaseDate *string `json:"releaseDate,omitempty"`
}

// UpdateVersionOutput is the output event of the updateVersion block.
type UpdateVersionOutput struct {
	VersionID string `json:"versionId"`
	Updated   bool   `json:"updated"`
}

// UpdateVersion sends only the fields that were provided.
func UpdateVersion(ctx context.Context, client *jira.Client, in UpdateVersionInput) (*UpdateVersionOutput, error) {
	payload := map[string]interface{}{}
	if in.Name != nil {
		payload["name"] = *in.Name
	}
	if in.Description != nil {
		payload["description"] = *in.Description
	}
	if in.Released != nil {
		payload["released"] = *in.Released
	}
	if in.Archived != nil {
		payload["archived"] = *in.Archived
	}
	if in.StartDate != nil {
		payload["startDate"] = *in.StartDate
	}
	if in.ReleaseDate != nil {
		payload["releaseDate"] = *in.ReleaseDate
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("update version: no fields provided")
	}

	if err := client.Put(ctx, "/version/"+in.VersionID, payload, nil); err != nil {
		return nil, fmt.Errorf("update version: %w", err)
	}
	return &UpdateVersionOutput{VersionID: in.VersionID, Updated: true}, nil
}
