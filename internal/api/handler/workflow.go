package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/logan/usecasehub/internal/api/response"
	"github.com/logan/usecasehub/internal/tools"
	"github.com/logan/usecasehub/internal/workflow"
)

// Workflow handles GET /workflow and returns the full transition table.
func Workflow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		table := make(map[workflow.Status][]workflow.Status)
		for _, s := range workflow.All() {
			table[s] = workflow.AllowedNextStates(s)
		}
		response.JSON(w, http.StatusOK, map[string]any{
			"statuses":    workflow.All(),
			"transitions": table,
		})
	}
}

// NextStates handles GET /workflow/{status}
func NextStates() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := workflow.Parse(chi.URLParam(r, "status"))
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		response.JSON(w, http.StatusOK, map[string]any{
			"status":   status,
			"allowed":  workflow.AllowedNextStates(status),
			"terminal": status.Terminal(),
		})
	}
}

// Tools handles GET /tools and reports which agent tools trigger a refresh.
func Tools(classifier *tools.Classifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]any{
			"known":    tools.Known(),
			"mutating": classifier.Mutating(),
		})
	}
}
