package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"taskpilot/internal/ai"

	"github.com/rs/zerolog"
)

type AIHandler struct {
	Client   *ai.Client
	Fallback *ai.HeuristicParser
	Log      zerolog.Logger
}

type parseTaskReq struct {
	Text string `json:"text"`
}

// ParseTask turns free text into a task draft. The model call is best
// effort: when the AI collaborator is unconfigured or fails, the keyword
// heuristics answer instead.
func (h *AIHandler) ParseTask(w http.ResponseWriter, r *http.Request) {
	var req parseTaskReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	source := "heuristic"
	var draft ai.Draft
	if h.Client != nil && h.Client.Configured() {
		d, err := h.Client.ParseTask(r.Context(), req.Text)
		if err == nil {
			draft = d
			source = "ai"
		} else {
			h.Log.Warn().Err(err).Msg("ai parse failed; using heuristics")
		}
	}
	if source == "heuristic" {
		draft, _ = h.Fallback.ParseTask(r.Context(), req.Text)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"draft":  draft,
		"source": source,
	})
}
