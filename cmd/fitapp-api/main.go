// README: Entry point; loads config, opens stores, wires services and serves the HTTP API until signalled.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"fitapp/internal/config"
	httptransport "fitapp/internal/http"
	"fitapp/internal/infra"
	"fitapp/internal/migrations"
	"fitapp/internal/modules/gps"
	"fitapp/internal/modules/trip"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := infra.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		log.Fatalf("firebase init: %v", err)
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, app)
	if err != nil {
		log.Fatalf("firebase auth: %v", err)
	}
	var notifier trip.Notifier
	if push, err := infra.NewPushNotifier(ctx, app); err != nil {
		log.Printf("fcm disabled: %v", err)
	} else {
		notifier = push
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer dbPool.Close()
	if err := migrations.Run(ctx, dbPool); err != nil {
		log.Fatal(err)
	}
	if err := migrations.CheckSchema(ctx, dbPool); err != nil {
		log.Fatal(err)
	}

	questPool, err := infra.NewQuestDB(ctx, cfg.QuestDB.DSN)
	if err != nil {
		log.Fatalf("questdb: %v", err)
	}
	defer questPool.Close()

	pointStore := gps.NewStore(questPool)
	if err := pointStore.EnsureTable(ctx); err != nil {
		log.Fatalf("questdb schema: %v", err)
	}

	var (
		sessionCache gps.SessionCache
		tripCache    trip.Cache
	)
	if redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr); err != nil {
		log.Printf("redis unavailable, caching disabled: %v", err)
	} else {
		defer redisClient.Close()
		sessionCache = gps.NewRedisSessionCache(redisClient, cfg.Cache.SessionTTL)
		tripCache = trip.NewRedisCache(redisClient, cfg.Cache.SummaryTTL)
	}

	tripStore := trip.NewStore(dbPool)
	reconciler := trip.NewReconciler(tripStore, pointStore, notifier)
	tripSvc := trip.NewService(tripStore, pointStore, reconciler, tripCache)
	gpsSvc := gps.NewService(pointStore, reconciler, sessionCache, cfg.Ingest)

	gin.SetMode(gin.ReleaseMode)
	router := httptransport.NewRouter(httptransport.RouterDeps{
		GPS:      gpsSvc,
		Trips:    tripSvc,
		Verifier: verifier,
		Timeout:  cfg.HTTP.Timeout,
	})

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("http shutdown: %v", err)
		}
	}()

	log.Printf("fitapp-api listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
