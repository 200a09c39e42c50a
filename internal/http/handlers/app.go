package handlers

import (
	"encoding/json"
	"net/http"

	"vidgen/internal/domain"
	"vidgen/internal/generation"
	"vidgen/internal/infra"
	"vidgen/internal/middleware"
)

// App bundles the dependencies the HTTP handlers need.
type App struct {
	Logger       infra.Logger
	Orchestrator *generation.Orchestrator
	Profiles     domain.ProfileRepository
	Generations  domain.GenerationRepository

	// GenerationEnabled mirrors the capability flag resolved at startup
	// from the provider credentials; Health surfaces it.
	GenerationEnabled bool

	TestCreditsEnabled bool
	TestCreditAmount   int
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	a.json(w, status, map[string]string{"code": code, "error": localize(r, message)})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
