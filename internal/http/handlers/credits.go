package handlers

import (
	"encoding/json"
	"net/http"
)

// CreditsGet returns the caller's balance, creating the profile on first
// access.
func (a *App) CreditsGet(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, r, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	p, err := a.Profiles.Ensure(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("ensure profile")
		a.error(w, r, http.StatusInternalServerError, "internal", "failed to load credits")
		return
	}
	a.json(w, http.StatusOK, map[string]int{"credits": p.Credits})
}

type testCreditsRequest struct {
	Amount int `json:"amount"`
}

// CreditsGrantTest tops up the caller's balance. Only usable when the test
// credits gate is enabled; production keeps it off.
func (a *App) CreditsGrantTest(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, r, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	if !a.TestCreditsEnabled {
		a.error(w, r, http.StatusForbidden, "forbidden", "test credits are disabled")
		return
	}
	var req testCreditsRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	amount := req.Amount
	if amount <= 0 {
		amount = a.TestCreditAmount
	}
	balance, err := a.Profiles.Grant(r.Context(), userID, amount)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("grant test credits")
		a.error(w, r, http.StatusInternalServerError, "internal", "failed to grant credits")
		return
	}
	a.json(w, http.StatusOK, map[string]int{"credits": balance, "granted": amount})
}
