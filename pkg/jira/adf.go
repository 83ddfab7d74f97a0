package jira

// Document wraps plain text into the minimal Atlassian Document Format shape
// Jira expects for rich-text fields (descriptions, comment bodies).
func Document(text string) map[string]interface{} {
	return map[string]interface{}{
		"type":    "doc",
		"version": 1,
		"content": []interface{}{
			map[string]interface{}{
				"type": "paragraph",
				"content": []interface{}{
					map[string]interface{}{
						"type": "text",
						"text": text,
					},
				},
			},
		},
	}
}
