package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/comy-dev/comy-server/internal/services"
	"github.com/comy-dev/comy-server/pkg/logger"
	"github.com/comy-dev/comy-server/pkg/middleware"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatHandler serves chat history. History is the recovery path for
// missed gateway pushes, so it must always reflect the full log.
type ChatHandler struct {
	Service *services.ChatService
}

func NewChatHandler(service *services.ChatService) *ChatHandler {
	return &ChatHandler{Service: service}
}

// GetChatMessagesHandler returns every message of a chat the caller is a
// member of, in creation order.
func (h *ChatHandler) GetChatMessagesHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		logger.Log.Warn("Unauthorized chat history request")
		return
	}

	vars := mux.Vars(r)
	chatID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		http.Error(w, "Invalid chat ID", http.StatusBadRequest)
		logger.Log.Warnf("Invalid chat ID: %v", err)
		return
	}

	chat, err := h.Service.ChatByID(r.Context(), chatID)
	if err != nil {
		http.Error(w, "Failed to load chat", http.StatusInternalServerError)
		logger.Log.Errorf("Failed to load chat %s: %v", vars["id"], err)
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)
	if chat == nil || !chat.HasMember(userID) {
		http.Error(w, "Chat not found", http.StatusNotFound)
		return
	}

	messages, err := h.Service.History(r.Context(), chatID)
	if err != nil {
		http.Error(w, "Failed to get chat history", http.StatusInternalServerError)
		logger.Log.Errorf("Failed to get history for chat %s: %v", vars["id"], err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}
