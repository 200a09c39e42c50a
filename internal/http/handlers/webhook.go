package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"vidgen/internal/providers/wavespeed"
)

const webhookBodyLimit = 1 << 20

// WavespeedWebhook receives asynchronous generation results. The provider
// retries on non-2xx, so anything parseable is acknowledged with 200 even when
// reconciliation changes nothing; only payloads we could never act on get 400.
func (a *App) WavespeedWebhook(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
	if err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "invalid JSON")
		return
	}
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "invalid JSON")
		return
	}

	cb := wavespeed.ParseCallback(body)
	if cb == nil {
		a.Logger.Warn().
			Str("payload", truncate(string(raw), 2000)).
			Msg("webhook payload has no recognizable id")
		a.error(w, r, http.StatusBadRequest, "bad_request", "payload has no recognizable id")
		return
	}

	if err := a.Orchestrator.Reconcile(r.Context(), cb); err != nil {
		a.Logger.Error().Err(err).
			Str("provider_id", cb.ID).
			Msg("webhook reconcile failed")
	}
	a.json(w, http.StatusOK, map[string]bool{"success": true})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
