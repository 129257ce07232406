package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/queryloom/queryloom/internal/repair"
)

var exampleQuestions = []string{
	"Show all patients older than 25",
	"List patients with allergies",
	"How many patients have diabetes?",
	"Get medications prescribed to patient Alice Smith",
	"Find patients with immunizations in the last year",
	"List all care plans for patients with asthma",
}

type queryRequest struct {
	Question string `json:"question"`
	Context  string `json:"context"`
	TopK     int    `json:"top_k"`
}

type attemptResponse struct {
	SQL   string  `json:"sql"`
	Error string  `json:"error,omitempty"`
	Rows  int     `json:"rows"`
	Cost  float64 `json:"cost"`
}

type queryResponse struct {
	State     string            `json:"state"`
	SQL       string            `json:"sql"`
	Columns   []string          `json:"columns"`
	Rows      [][]any           `json:"rows"`
	Attempts  []attemptResponse `json:"attempts"`
	QueryCost float64           `json:"query_cost"`
	TotalCost float64           `json:"total_cost"`
}

func handleQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Retriever == nil || deps.Runner == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "QUERY_NOT_CONFIGURED", "query dependencies are not configured", false, nil)
		return
	}

	var request queryRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid query request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	docs, err := deps.Retriever.Retrieve(r.Context(), request.Question, request.TopK)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "RETRIEVAL_FAILED", "schema retrieval failed", true, map[string]any{"details": err.Error()})
		return
	}

	schemas := make([]string, 0, len(docs))
	for _, doc := range docs {
		schemas = append(schemas, doc.Text)
	}
	promptContext := request.Context
	if promptContext == "" {
		promptContext = deps.DefaultContext
	}

	result, err := deps.Runner.Run(r.Context(), repair.Request{
		Question: request.Question,
		Context:  promptContext,
		Schemas:  schemas,
	})
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "GENERATION_FAILED", "language model completion failed", true, map[string]any{"details": err.Error()})
		return
	}

	totalCost := result.TotalCost
	if deps.Counters != nil {
		total, err := deps.Counters.AddCost(r.Context(), result.TotalCost)
		if err != nil {
			if deps.Logger != nil {
				deps.Logger.WarnContext(r.Context(), "cost counter update failed", "error", err)
			}
		} else {
			totalCost = total
		}
	}

	attempts := make([]attemptResponse, 0, len(result.Attempts))
	for _, attempt := range result.Attempts {
		attempts = append(attempts, attemptResponse{
			SQL:   attempt.SQL,
			Error: attempt.Err,
			Rows:  attempt.Rows,
			Cost:  attempt.Cost,
		})
	}

	if result.State == repair.StateExhausted {
		writeError(r.Context(), w, http.StatusUnprocessableEntity, "SQL_EXHAUSTED", "retry budget exhausted without an executable query", false, map[string]any{
			"attempts":   attempts,
			"last_error": result.LastError,
			"query_cost": result.TotalCost,
		})
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		State:     result.State,
		SQL:       result.SQL,
		Columns:   result.Table.Columns,
		Rows:      result.Table.Rows,
		Attempts:  attempts,
		QueryCost: result.TotalCost,
		TotalCost: totalCost,
	})
}
