// Command seed creates the schema, the built-in roles and permissions, and a
// pair of demo accounts. It is safe to run repeatedly.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"starterkit.dev/internal/audit"
	"starterkit.dev/internal/auth"
	"starterkit.dev/internal/config"
	"starterkit.dev/internal/obs"
	"starterkit.dev/internal/rbac"
	"starterkit.dev/internal/store/pg"
)

func main() {
	reset := flag.Bool("reset", false, "drop and recreate all tables before seeding")
	flag.Parse()

	obs.Init()
	cfg := config.Load()

	store, err := pg.Open(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if *reset {
		if err := store.DropTables(ctx); err != nil {
			log.Fatalf("drop tables: %v", err)
		}
	}
	if err := store.CreateTables(ctx); err != nil {
		log.Fatalf("create tables: %v", err)
	}

	recorder := audit.NewRecorder(store)
	rbacSvc, err := rbac.NewService(store, rbac.WithAuditSink(recorder))
	if err != nil {
		log.Fatalf("rbac service: %v", err)
	}
	authSvc, err := auth.NewService(store)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	if err := rbacSvc.Seed(ctx); err != nil {
		log.Fatalf("seed rbac: %v", err)
	}

	adminID, err := ensureUser(ctx, authSvc, store, "Admin", "admin@admin.com", envOr("SEED_ADMIN_PASSWORD", "admin12345"))
	if err != nil {
		log.Fatalf("seed admin user: %v", err)
	}
	demoID, err := ensureUser(ctx, authSvc, store, "Demo User", "demo@demo.com", envOr("SEED_DEMO_PASSWORD", "demo12345"))
	if err != nil {
		log.Fatalf("seed demo user: %v", err)
	}

	if err := assignRole(ctx, rbacSvc, adminID, rbac.RoleAdmin); err != nil {
		log.Fatalf("assign admin role: %v", err)
	}
	if err := assignRole(ctx, rbacSvc, demoID, rbac.RoleUser); err != nil {
		log.Fatalf("assign user role: %v", err)
	}

	log.Println("Seed complete")
}

// ensureUser registers the account or, when it already exists, resolves its
// id so role assignment still runs.
func ensureUser(ctx context.Context, svc *auth.Service, store *pg.Store, name, email, password string) (string, error) {
	user, err := svc.Register(ctx, name, email, password)
	if err == nil {
		return user.ID, nil
	}
	if !errors.Is(err, auth.ErrConflict) {
		return "", err
	}
	existing, err := store.UserByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return existing.ID, nil
}

func assignRole(ctx context.Context, svc *rbac.Service, userID, roleName string) error {
	roles, err := svc.ListRoles(ctx)
	if err != nil {
		return err
	}
	for _, role := range roles {
		if role.Name == roleName {
			_, err := svc.AssignRole(ctx, userID, role.ID, "")
			return err
		}
	}
	return errors.New("role not found: " + roleName)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
