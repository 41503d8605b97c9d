package main

import (
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/comy-dev/comy-server/internal/config"
	"github.com/comy-dev/comy-server/internal/database"
	"github.com/comy-dev/comy-server/internal/gateway"
	"github.com/comy-dev/comy-server/internal/handlers"
	"github.com/comy-dev/comy-server/internal/jobs"
	"github.com/comy-dev/comy-server/internal/repository"
	"github.com/comy-dev/comy-server/internal/scheduler"
	"github.com/comy-dev/comy-server/internal/services"
	"github.com/comy-dev/comy-server/pkg/logger"
	"github.com/comy-dev/comy-server/pkg/middleware"
	"github.com/comy-dev/comy-server/pkg/templates"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func main() {
	// Load configuration from .env file
	cfg := config.LoadConfig()

	logger.InitLogger(cfg.LogLevel)
	logger.Log.Info("Logger initialized")

	botID, err := primitive.ObjectIDFromHex(cfg.BotUserID)
	if err != nil {
		log.Fatalf("Invalid BOT_USER_ID: %v", err)
	}

	registry, err := templates.NewRegistry()
	if err != nil {
		log.Fatalf("Template configuration error: %v", err)
	}

	// Connect to MongoDB
	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	chatRepo := repository.NewChatRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	botMessageRepo := repository.NewBotMessageRepository(db)
	pairRepo := repository.NewSuggestedPairRepository(db)
	edgeRepo := repository.NewEdgeRepository(db)

	// --- Gateway ---
	hub := gateway.NewHub(cfg.JWTSecret)

	// --- Services ---
	graphService := services.NewGraphService(edgeRepo)
	chatService := services.NewChatService(chatRepo, messageRepo, botMessageRepo, hub, botID)
	responseService := services.NewResponseService(
		botMessageRepo, userRepo, chatService, graphService,
		hub, registry, services.TimerDelayer{}, botID,
	)

	// --- Batch jobs ---
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	engine := jobs.NewSuggestionEngine(userRepo, pairRepo, graphService, chatService, botID, rng)
	dispatcher := jobs.NewSuggestionDispatcher(userRepo, pairRepo, botMessageRepo, chatService, hub, registry, botID)

	if cfg.CronEnabled {
		scheduler.StartBotCronJobs(engine, dispatcher)
		logger.Log.Info("Bot cron jobs scheduled")
	}

	// --- Handlers ---
	botJobHandler := handlers.NewBotJobHandler(engine, dispatcher)
	responseHandler := handlers.NewResponseHandler(responseService)
	chatHandler := handlers.NewChatHandler(chatService)

	// Initialize Gorilla Mux router
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}).Methods("GET")

	// Batch-job triggers, protected by the static API key
	botRoutes := router.PathPrefix("/bot").Subrouter()
	botRoutes.Use(middleware.APIKeyMiddleware(cfg.BotAPIKey))
	botRoutes.HandleFunc("/engine/run", botJobHandler.RunEngineHandler).Methods("POST")
	botRoutes.HandleFunc("/dispatcher/run", botJobHandler.RunDispatcherHandler).Methods("POST")

	// Session-authenticated response endpoints
	respondRoutes := router.PathPrefix("").Subrouter()
	respondRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	respondRoutes.HandleFunc("/suggestions/respond", responseHandler.RespondToSuggestionHandler).Methods("POST")
	respondRoutes.HandleFunc("/matches/respond", responseHandler.RespondToMatchHandler).Methods("POST")
	respondRoutes.HandleFunc("/chats/{id}/messages", chatHandler.GetChatMessagesHandler).Methods("GET")

	// WebSocket attach (token carried as a query parameter)
	router.HandleFunc("/ws", hub.HandleWS).Methods("GET")

	// Apply middleware for request ids and logging
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.LoggingMiddleware)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: true,
	})

	handler := c.Handler(router)

	logger.Log.Infof("Server running on port %s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, handler))
}
