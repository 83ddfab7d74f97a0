package internal

// Normalize reshapes an extracted webhook body into the compact form
// delivered to subscribers: a flat issue summary instead of the full Jira
// field tree, the acting user under a kind-specific key, and changelog items
// reduced to field/from/to triples.
func Normalize(kind EventKind, body map[string]interface{}) map[string]interface{} {
	switch kind {
	case IssueCreated:
		out := map[string]interface{}{
			"issue": normalizeIssue(asMap(body["issue"]), "created"),
		}
		if user := normalizeUser(asMap(body["user"])); user != nil {
			out["createdBy"] = user
		}
		copyField(out, body, "timestamp")
		return out
	case IssueUpdated:
		out := map[string]interface{}{
			"issue":   normalizeIssue(asMap(body["issue"]), "updated"),
			"changes": normalizeChanges(asMap(body["changelog"])),
		}
		if user := normalizeUser(asMap(body["user"])); user != nil {
			out["updatedBy"] = user
		}
		copyField(out, body, "timestamp")
		return out
	case CommentCreated:
		comment := asMap(body["comment"])
		out := map[string]interface{}{
			"issue":   normalizeIssue(asMap(body["issue"]), ""),
			"comment": normalizeComment(comment),
		}
		if user := normalizeUser(asMap(comment["author"])); user != nil {
			out["createdBy"] = user
		}
		return out
	case VersionReleased:
		out := map[string]interface{}{
			"version": normalizeVersion(asMap(body["version"])),
		}
		if user := normalizeUser(asMap(body["user"])); user != nil {
			out["releasedBy"] = user
		}
		return out
	}
	return body
}

// normalizeIssue flattens the Jira issue field tree into a one-level summary.
// timestampKey names the field-level timestamp to carry ("created",
// "updated", or empty for none).
func normalizeIssue(issue map[string]interface{}, timestampKey string) map[string]interface{} {
	fields := asMap(issue["fields"])
	out := map[string]interface{}{
		"id":        stringValue(issue["id"]),
		"key":       stringValue(issue["key"]),
		"summary":   stringValue(fields["summary"]),
		"status":    nestedString(fields, "status", "name"),
		"assignee":  nestedString(fields, "assignee", "displayName"),
		"priority":  nestedString(fields, "priority", "name"),
		"issueType": nestedString(fields, "issuetype", "name"),
		"project":   nestedString(fields, "project", "key"),
	}
	if timestampKey != "" {
		out[timestampKey] = stringValue(fields[timestampKey])
	}
	return out
}

func normalizeUser(user map[string]interface{}) map[string]interface{} {
	if len(user) == 0 {
		return nil
	}
	return map[string]interface{}{
		"accountId":    stringValue(user["accountId"]),
		"displayName":  stringValue(user["displayName"]),
		"emailAddress": stringValue(user["emailAddress"]),
	}
}

func normalizeChanges(changelog map[string]interface{}) []interface{} {
	items, _ := changelog["items"].([]interface{})
	changes := make([]interface{}, 0, len(items))
	for _, raw := range items {
		item := asMap(raw)
		if item == nil {
			continue
		}
		changes = append(changes, map[string]interface{}{
			"field":     stringValue(item["field"]),
			"fieldtype": stringValue(item["fieldtype"]),
			"from":      stringValue(item["fromString"]),
			"to":        stringValue(item["toString"]),
		})
	}
	return changes
}

func normalizeComment(comment map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"id":      stringValue(comment["id"]),
		"body":    comment["body"],
		"created": stringValue(comment["created"]),
		"updated": stringValue(comment["updated"]),
		"self":    stringValue(comment["self"]),
	}
}

func normalizeVersion(version map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"id":          stringValue(version["id"]),
		"name":        stringValue(version["name"]),
		"description": stringValue(version["description"]),
		"archived":    version["archived"],
		"released":    version["released"],
		"startDate":   stringValue(version["startDate"]),
		"releaseDate": stringValue(version["releaseDate"]),
		"projectId":   version["projectId"],
		"self":        stringValue(version["self"]),
	}
}

func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

func nestedString(m map[string]interface{}, key, sub string) string {
	return stringValue(asMap(m[key])[sub])
}
