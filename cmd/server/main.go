package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"go-chat-backend/internal/chat"
	"go-chat-backend/internal/config"
	"go-chat-backend/internal/db"
	"go-chat-backend/internal/middleware"
	"go-chat-backend/internal/realtime"
	"go-chat-backend/internal/user"
)

func main() {
	// 1. Config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}

	// 2. Connect to the document store (fatal on failure)
	database, err := db.New(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	log.Println("✅ Connected to MongoDB")

	if err := database.EnsureIndexes(context.Background()); err != nil {
		log.Fatalf("❌ Index creation failed: %v", err)
	}

	// 3. User feature
	userRepo := user.NewRepository(database.DB)
	userService := user.NewService(userRepo, cfg.JWTSecret)
	userHandler := user.NewHandler(userService)

	// 4. Chat + message feature
	chatRepo := chat.NewRepository(database.DB)
	chatHandler := chat.NewHandler(chatRepo)

	// 5. Realtime relay. The in-memory registry serves a single process;
	// with REDIS_ADDR set, broadcasts are bridged across instances.
	memory := realtime.NewMemoryRegistry()
	var registry realtime.Registry = memory
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			log.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
		log.Println("✅ Connected to Redis")

		bridge := realtime.NewRedisBridge(redisClient, memory)
		go bridge.Subscribe(context.Background())
		registry = bridge
	}
	rtHandler := realtime.NewHandler(registry, cfg.CORSOrigin)

	authMiddleware := middleware.NewAuthMiddleware(userService)

	// 6. Routes
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/", middleware.Wrap(userHandler.Register))
		r.Post("/login", middleware.Wrap(userHandler.Login))
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Handle)
			r.Get("/", middleware.Wrap(userHandler.Search))
		})
	})

	r.Route("/api/chat", func(r chi.Router) {
		r.Use(authMiddleware.Handle)
		r.Post("/", middleware.Wrap(chatHandler.AccessChat))
		r.Get("/", middleware.Wrap(chatHandler.FetchChats))
		r.Post("/group", middleware.Wrap(chatHandler.CreateGroup))
		r.Put("/rename", middleware.Wrap(chatHandler.RenameGroup))
		r.Put("/groupadd", middleware.Wrap(chatHandler.AddToGroup))
		r.Put("/groupremove", middleware.Wrap(chatHandler.RemoveFromGroup))
	})

	r.Route("/api/message", func(r chi.Router) {
		r.Use(authMiddleware.Handle)
		r.Post("/", middleware.Wrap(chatHandler.SendMessage))
		r.Get("/{chatId}", middleware.Wrap(chatHandler.ListMessages))
	})

	r.Get("/ws", rtHandler.ServeWS)

	if cfg.Production() {
		spa := &spaHandler{staticDir: "frontend/build", index: "index.html"}
		r.NotFound(spa.ServeHTTP)
	} else {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte("API is running.."))
		})
		r.NotFound(middleware.NotFound)
	}

	log.Printf("🚀 Server starting on %s", cfg.Addr())
	if err := http.ListenAndServe(cfg.Addr(), r); err != nil {
		log.Fatal(err)
	}
}
