package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/queryloom/queryloom/internal/schema"
)

type schemaResponse struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	DDL         string  `json:"ddl"`
	Score       float64 `json:"score"`
}

// handleSchemas previews retrieval: it runs the same lookup the query path
// uses and returns the parsed documents without calling the model.
func handleSchemas(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Retriever == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "RETRIEVER_NOT_CONFIGURED", "retriever is not configured", false, nil)
		return
	}

	question := strings.TrimSpace(r.URL.Query().Get("q"))
	if question == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "query parameter q is required", false, nil)
		return
	}
	topK := 0
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_TOP_K", "top_k must be a positive integer", false, nil)
			return
		}
		topK = parsed
	}

	docs, err := deps.Retriever.Retrieve(r.Context(), question, topK)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "RETRIEVAL_FAILED", "schema retrieval failed", true, map[string]any{"details": err.Error()})
		return
	}

	out := make([]schemaResponse, 0, len(docs))
	for _, doc := range docs {
		parsed := schema.Parse(doc.Text)
		title := parsed.Title
		if title == "" {
			title = doc.Title
		}
		out = append(out, schemaResponse{
			Title:       title,
			Description: parsed.Description,
			DDL:         parsed.DDL,
			Score:       doc.Score,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"schemas": out})
}
