package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/comy-dev/comy-server/internal/jobs"
	"github.com/comy-dev/comy-server/pkg/logger"
)

// BotJobHandler exposes the API-key-protected endpoints that trigger the
// batch jobs.
type BotJobHandler struct {
	Engine     *jobs.SuggestionEngine
	Dispatcher *jobs.SuggestionDispatcher
}

func NewBotJobHandler(engine *jobs.SuggestionEngine, dispatcher *jobs.SuggestionDispatcher) *BotJobHandler {
	return &BotJobHandler{Engine: engine, Dispatcher: dispatcher}
}

// RunEngineHandler executes one suggestion engine pass.
func (h *BotJobHandler) RunEngineHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Engine.Run(r.Context())
	if err != nil {
		// Too few eligible users is an operator-visible precondition,
		// not a server fault.
		if errors.Is(err, jobs.ErrNotEnoughUsers) {
			logger.Log.Warnf("Suggestion engine run refused: %v", err)
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		logger.Log.Errorf("Suggestion engine run failed: %v", err)
		http.Error(w, "Engine run failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(summary)
}

// RunDispatcherHandler executes one dispatcher pass.
func (h *BotJobHandler) RunDispatcherHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Dispatcher.Run(r.Context())
	if err != nil {
		logger.Log.Errorf("Suggestion dispatch failed: %v", err)
		http.Error(w, "Dispatch run failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(summary)
}
