package payload

// Schemas for the JSON stored in grounded_evidence.fact_json and written as manifests.
var (
	CandidateMatch = newSchema("candidate_match.json", buildCandidateSchema)
	NoMatch        = newSchema("no_match.json", buildNoMatchSchema)
	Manifest       = newSchema("extraction_manifest.json", buildManifestSchema)
)

func nullableString() map[string]any {
	return map[string]any{"type": []string{"string", "null"}}
}

func buildCandidateSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"course_code":   map[string]any{"type": "string", "minLength": 1},
			"subject":       map[string]any{"type": "string"},
			"number":        map[string]any{"type": "string"},
			"title":         map[string]any{"type": "string"},
			"credits":       nullableString(),
			"description":   nullableString(),
			"prerequisites": nullableString(),
			"source_pages": map[string]any{
				"type":        "array",
				"uniqueItems": true,
				"items":       map[string]any{"type": "integer", "minimum": 1},
			},
		},
		"required": []string{"course_code", "title", "source_pages"},
	}
}

func buildNoMatchSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"target_course_code": nullableString(),
			"target_title":       nullableString(),
			"reason":             map[string]any{"type": "string", "minLength": 1},
			"candidate_count":    map[string]any{"type": "integer", "minimum": 0},
		},
		"required": []string{"target_course_code", "target_title", "reason", "candidate_count"},
	}
}

func buildManifestSchema() map[string]any {
	doc := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"doc_id":           map[string]any{"type": "string", "minLength": 1},
			"filename":         map[string]any{"type": "string"},
			"storage_uri":      map[string]any{"type": "string"},
			"doc_type":         map[string]any{"enum": []string{"syllabus", "catalog"}},
			"page_count":       map[string]any{"type": "integer", "minimum": 0},
			"used_ocr":         map[string]any{"type": "boolean"},
			"ocr_output_pdf":   nullableString(),
			"chunks_written":   map[string]any{"type": "integer", "minimum": 0},
			"evidence_written": map[string]any{"type": "integer", "minimum": 0},
		},
		"required": []string{"doc_id", "filename", "doc_type", "page_count", "used_ocr", "chunks_written", "evidence_written"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"request_id":        map[string]any{"type": "string", "minLength": 1},
			"extraction_run_id": map[string]any{"type": "string", "minLength": 1},
			"started_at":        map[string]any{"type": "string", "minLength": 1},
			"finished_at":       map[string]any{"type": "string", "minLength": 1},
			"documents":         map[string]any{"type": "array", "items": doc},
			"warnings":          map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"request_id", "extraction_run_id", "started_at", "finished_at", "documents", "warnings"},
	}
}
