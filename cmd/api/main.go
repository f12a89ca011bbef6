package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"starterkit.dev/internal/audit"
	"starterkit.dev/internal/auth"
	"starterkit.dev/internal/config"
	"starterkit.dev/internal/files"
	"starterkit.dev/internal/httpapi"
	"starterkit.dev/internal/obs"
	"starterkit.dev/internal/ratelimit"
	"starterkit.dev/internal/rbac"
	"starterkit.dev/internal/store/pg"
)

var version = "0.1.0"

func main() {
	obs.Init()
	cfg := config.Load()

	store, err := pg.Open(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	recorder := audit.NewRecorder(store)

	authSvc, err := auth.NewService(store, auth.WithSessionTTL(cfg.SessionTTL))
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	rbacSvc, err := rbac.NewService(store, rbac.WithAuditSink(recorder))
	if err != nil {
		log.Fatalf("rbac service: %v", err)
	}
	filesSvc, err := files.NewService(store, cfg.UploadDir,
		files.WithAuditSink(recorder),
		files.WithMaxSize(cfg.MaxFileSize),
	)
	if err != nil {
		log.Fatalf("files service: %v", err)
	}

	// A Redis address switches the rate limiter to shared counters; without
	// one each process keeps its own windows in memory.
	var limiterStore ratelimit.Store
	var memStore *ratelimit.MemoryStore
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		limiterStore = ratelimit.NewRedisStore(client, "rl")
		defer client.Close()
	} else {
		memStore = ratelimit.NewMemoryStore(time.Minute)
		limiterStore = memStore
		defer memStore.Close()
	}

	api := httpapi.New(httpapi.Options{
		Config:     cfg,
		Auth:       authSvc,
		RBAC:       rbacSvc,
		Files:      filesSvc,
		Audit:      recorder,
		Limiter:    ratelimit.New(limiterStore),
		ReadyProbe: httpapi.ReadyProbe{DB: store.DB()},
		Version:    version,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting starterkit-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// Expired sessions are swept in the background so the table does not
	// accumulate dead rows between logins.
	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if n, err := authSvc.SweepExpiredSessions(sweepCtx); err != nil {
					obs.Warn("session sweep failed", map[string]any{"error": err.Error()})
				} else if n > 0 {
					obs.Info("session sweep", map[string]any{"deleted": n})
				}
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	cancelSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
