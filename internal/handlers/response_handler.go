package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/comy-dev/comy-server/internal/apperrors"
	"github.com/comy-dev/comy-server/internal/services"
	"github.com/comy-dev/comy-server/pkg/logger"
	"github.com/comy-dev/comy-server/pkg/middleware"
)

// ResponseHandler serves the session-authenticated endpoints a user's
// accept/reject replies arrive on.
type ResponseHandler struct {
	Service *services.ResponseService
}

func NewResponseHandler(service *services.ResponseService) *ResponseHandler {
	return &ResponseHandler{Service: service}
}

type respondRequest struct {
	MessageID string `json:"messageId"`
	Response  string `json:"response"`
}

// RespondToSuggestionHandler handles replies to first-stage suggestion
// cards.
func (h *ResponseHandler) RespondToSuggestionHandler(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, services.FlowSuggestion)
}

// RespondToMatchHandler handles replies to second-stage match-request
// cards.
func (h *ResponseHandler) RespondToMatchHandler(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, services.FlowMatch)
}

func (h *ResponseHandler) respond(w http.ResponseWriter, r *http.Request, flow services.AcceptFlow) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		logger.Log.Warn("Unauthorized suggestion response attempt")
		return
	}

	var body respondRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		logger.Log.Warnf("Failed to decode response body: %v", err)
		return
	}
	defer r.Body.Close()

	result, err := h.Service.Respond(r.Context(), services.RespondInput{
		MessageID: body.MessageID,
		Response:  body.Response,
		UserID:    claims.UserID,
	}, flow)
	if err != nil {
		status := statusForError(err)
		http.Error(w, err.Error(), status)
		if status == http.StatusInternalServerError {
			logger.Log.Errorf("Suggestion response failed for user %s: %v", claims.UserID, err)
		} else {
			logger.Log.Warnf("Suggestion response rejected for user %s: %v", claims.UserID, err)
		}
		return
	}

	logger.Log.Infof("User %s responded to suggestion %s", claims.UserID, body.MessageID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput), errors.Is(err, apperrors.ErrAlreadyProcessed):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
