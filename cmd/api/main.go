package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/uyirthuli/donor-match-service/internal/adapters/handler"
	"github.com/uyirthuli/donor-match-service/internal/adapters/middleware"
	"github.com/uyirthuli/donor-match-service/internal/adapters/repository"
	"github.com/uyirthuli/donor-match-service/internal/config"
	"github.com/uyirthuli/donor-match-service/internal/core/services"
	"github.com/uyirthuli/donor-match-service/internal/metrics"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	store := repository.NewSQLRepository(db)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: redis unavailable, donor pool queries will use the database fallback: %v", err)
	} else {
		log.Println("Connected to Redis successfully")
	}

	donorIndex := repository.NewRedisDonorIndex(redisClient)
	m := metrics.New()

	matchingService := services.NewMatchingService(store, store, donorIndex, m)
	lifecycleService := services.NewLifecycleService(store, store, m)
	donorService := services.NewDonorService(store, donorIndex)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTPublicKey)

	requestHandler := handler.NewRequestHandler(matchingService, lifecycleService)
	donorHandler := handler.NewDonorHandler(donorService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	mux := http.NewServeMux()

	// Health endpoints (OpenShift compatible)
	mux.HandleFunc("/health", healthHandler.Health)
	mux.HandleFunc("/health/ready", healthHandler.Ready)
	mux.HandleFunc("/health/live", healthHandler.Live)
	mux.Handle("/metrics", promhttp.Handler())

	// API endpoints
	mux.Handle("POST /requests", authMiddleware.RequireAuth(requestHandler.Create))
	mux.Handle("GET /requests/{id}", authMiddleware.RequireAuth(requestHandler.Get))
	mux.Handle("POST /requests/{id}/accept", authMiddleware.RequireAuth(requestHandler.Accept))
	mux.Handle("POST /requests/{id}/decline", authMiddleware.RequireAuth(requestHandler.Decline))
	mux.Handle("POST /requests/{id}/cancel", authMiddleware.RequireAuth(requestHandler.Cancel))
	mux.Handle("POST /requests/{id}/fulfill", authMiddleware.RequireAuth(requestHandler.Fulfill))
	mux.Handle("POST /matches/{id}/advance", authMiddleware.RequireAuth(requestHandler.Advance))
	mux.Handle("PUT /donors/me/location", authMiddleware.RequireAuth(donorHandler.UpdateLocation))
	mux.Handle("PUT /donors/me/availability", authMiddleware.RequireAuth(donorHandler.UpdateAvailability))

	cors := middleware.CORSMiddleware(cfg.AllowedOrigins)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, cors(mux)); err != nil {
		log.Fatalf("Could not start server: %s\n", err)
	}
}
