//	@title			Questbase API
//	@version		1.0
//	@description	Backend for Questbase, an educational platform of missions, quests and mentors.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	SessionCookie
//	@in							cookie
//	@name						questbase_session
//	@description				Session token set by /auth/login. A Bearer Authorization header is also accepted.

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/questbase/api/internal/auth"
	"github.com/questbase/api/internal/config"
	"github.com/questbase/api/internal/db"
	"github.com/questbase/api/internal/logger"
	"github.com/questbase/api/internal/metrics"
	appMiddleware "github.com/questbase/api/internal/middleware"
	"github.com/questbase/api/internal/mission"
	"github.com/questbase/api/internal/storage"
	"github.com/questbase/api/internal/upload"
	"github.com/questbase/api/internal/user"

	_ "github.com/questbase/api/docs/swagger"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.AppEnv, cfg.LogLevel)
	ctx := log.WithContext(context.Background())

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	store, err := storage.New(ctx, cfg.Storage())
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("object storage init failed")
	}

	issuer := upload.NewIssuer(cfg.Upload())
	m := metrics.New()

	// Wire dependencies: repository → service → handler
	userSvc := user.NewService(user.NewRepository(pool))
	userHandler := user.NewHandler(userSvc)

	authSvc := auth.NewService(userSvc, cfg.SessionSecret, cfg.SessionTTL)
	authHandler := auth.NewHandler(authSvc, cfg.IsProduction())

	missionSvc := mission.NewService(mission.NewRepository(pool))
	missionHandler := mission.NewHandler(missionSvc)

	avatarUploads := upload.NewHandler(issuer, store, upload.AvatarOwners(userSvc), m)
	questUploads := upload.NewHandler(issuer, store, upload.QuestOwners(missionSvc), m)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(log))
	r.Use(appMiddleware.Metrics(m))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", m.Handler())

	// Swagger UI at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.RequireSession(cfg.SessionSecret))

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", userHandler.GetMe)
				r.Patch("/me", userHandler.UpdateMe)
				r.Get("/{id}", userHandler.GetByID)
				r.Route("/{id}/uploads", avatarUploads.Routes)
			})

			r.Route("/missions", func(r chi.Router) {
				r.Get("/", missionHandler.ListMissions)
				r.Post("/", missionHandler.CreateMission)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", missionHandler.GetMission)
					r.Put("/", missionHandler.UpdateMission)
					r.Delete("/", missionHandler.DeleteMission)
					r.Get("/quests", missionHandler.ListQuests)
					r.Post("/quests", missionHandler.CreateQuest)
					r.Get("/mentors", missionHandler.ListMentors)
					r.Put("/mentors/{userID}", missionHandler.AddMentor)
					r.Delete("/mentors/{userID}", missionHandler.RemoveMentor)
				})
			})

			r.Route("/quests/{id}", func(r chi.Router) {
				r.Get("/", missionHandler.GetQuest)
				r.Put("/", missionHandler.UpdateQuest)
				r.Delete("/", missionHandler.DeleteQuest)
				r.Route("/uploads", questUploads.Routes)
			})
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("server listening")
		log.Info().Msgf("swagger UI at http://localhost:%s/swagger/", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-quit
	log.Info().Msg("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server stopped")
}
