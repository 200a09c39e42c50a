package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vidgen/internal/domain"
)

type generateRequest struct {
	ImageURL string `json:"image_url"`
	Prompt   string `json:"prompt"`
}

type generationResponse struct {
	ID             string    `json:"id"`
	Status         string    `json:"status"`
	InputImageURL  string    `json:"input_image_url"`
	Prompt         string    `json:"prompt,omitempty"`
	OutputVideoURL string    `json:"output_video_url,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type generateResponse struct {
	generationResponse
	RemainingCredits int `json:"remaining_credits"`
}

func toGenerationResponse(g *domain.Generation) generationResponse {
	return generationResponse{
		ID:             g.ID,
		Status:         string(g.Status),
		InputImageURL:  g.InputImageURL,
		Prompt:         g.Prompt,
		OutputVideoURL: g.OutputVideoURL,
		ErrorMessage:   g.ErrorMessage,
		CreatedAt:      g.CreatedAt,
		UpdatedAt:      g.UpdatedAt,
	}
}

// GenerationsCreate charges a credit and submits an image-to-video job.
func (a *App) GenerationsCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, r, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.ImageURL == "" {
		a.error(w, r, http.StatusBadRequest, "bad_request", "image_url is required")
		return
	}

	g, remaining, err := a.Orchestrator.Submit(r.Context(), userID, req.ImageURL, req.Prompt)
	if err != nil {
		a.submitError(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, generateResponse{
		generationResponse: toGenerationResponse(g),
		RemainingCredits:   remaining,
	})
}

func (a *App) submitError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, r, http.StatusUnauthorized, "unauthorized", "missing user context")
	case errors.Is(err, domain.ErrNotConfigured):
		a.error(w, r, http.StatusServiceUnavailable, "not_configured", "video generation is not configured")
	case errors.Is(err, domain.ErrInsufficientCredits):
		a.error(w, r, http.StatusPaymentRequired, "insufficient_credits", "not enough credits")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, r, http.StatusNotFound, "not_found", "profile not found")
	case errors.Is(err, domain.ErrProviderFailure):
		a.error(w, r, http.StatusBadGateway, "provider_error", "video generation failed to start")
	default:
		a.error(w, r, http.StatusInternalServerError, "internal", "failed to submit generation")
	}
}

// GenerationsList returns the caller's generations, newest first.
func (a *App) GenerationsList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, r, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	items, err := a.Generations.ListByUser(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("list generations")
		a.error(w, r, http.StatusInternalServerError, "internal", "failed to list generations")
		return
	}
	out := make([]generationResponse, 0, len(items))
	for i := range items {
		out = append(out, toGenerationResponse(&items[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"generations": out})
}

// GenerationsGet returns one generation owned by the caller. Records owned by
// someone else read as not found.
func (a *App) GenerationsGet(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, r, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, r, http.StatusBadRequest, "bad_request", "id required")
		return
	}
	g, err := a.Generations.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, r, http.StatusNotFound, "not_found", "generation not found")
			return
		}
		a.Logger.Error().Err(err).Str("generation_id", id).Msg("get generation")
		a.error(w, r, http.StatusInternalServerError, "internal", "failed to fetch generation")
		return
	}
	if g.UserID != userID {
		a.error(w, r, http.StatusNotFound, "not_found", "generation not found")
		return
	}
	a.json(w, http.StatusOK, toGenerationResponse(g))
}
