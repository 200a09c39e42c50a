package handlers

import (
	"net/http"
)

// Health reports liveness plus whether generation submissions are possible,
// so operators see a missing provider key without triggering a paid call.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	generationState := "ok"
	if !a.GenerationEnabled {
		generationState = "not_configured"
	}
	a.json(w, http.StatusOK, map[string]string{
		"status":     "ok",
		"generation": generationState,
	})
}
