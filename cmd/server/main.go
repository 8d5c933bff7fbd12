package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/skillgate/interviewd/internal/config"
	"github.com/skillgate/interviewd/internal/domain/credit"
	"github.com/skillgate/interviewd/internal/domain/interview"
	"github.com/skillgate/interviewd/internal/sqlite"
	"github.com/skillgate/interviewd/internal/transport"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Fatal("failed to prepare database path", zap.Error(err))
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	ledger := sqlite.NewLedger(db)
	interviewRepo := sqlite.NewInterviewRepository(db)

	creditSvc := credit.NewService(ledger, logger, cfg.Allocator.MaxAttempts)
	interviewSvc := interview.NewService(interviewRepo, logger, interview.Config{
		StalenessWindow:  cfg.Reconcile.StalenessWindow,
		SweepConcurrency: cfg.Reconcile.Concurrency,
	})

	resolver := &apiKeyResolver{db: db}
	router := transport.NewRouter(transport.Services{
		Credits:    creditSvc,
		Interviews: interviewSvc,
	}, resolver, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Reconcile.Interval > 0 {
		go runReconcileLoop(ctx, logger, db, interviewSvc, cfg.Reconcile.Interval)
	}

	go func() {
		logger.Info("server listening", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	waitForShutdown(logger, httpServer, cancel)
}

// runReconcileLoop periodically sweeps stuck interviews for every known
// tenant. Sweeps are idempotent, so overlap with operator-triggered runs is
// harmless.
func runReconcileLoop(ctx context.Context, logger *zap.Logger, db *sqlite.DB, svc *interview.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		tenants, err := listTenants(ctx, db)
		if err != nil {
			logger.Error("reconcile loop: listing tenants", zap.Error(err))
			continue
		}
		for _, tenantID := range tenants {
			if _, err := svc.Reconcile(ctx, tenantID, 0); err != nil {
				logger.Error("reconcile loop: sweep failed",
					zap.String("tenant_id", tenantID), zap.Error(err))
			}
		}
	}
}

func listTenants(ctx context.Context, db *sqlite.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT DISTINCT tenant_id FROM organizations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		tenants = append(tenants, id)
	}
	return tenants, rows.Err()
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *zap.Logger, server *http.Server, cancel context.CancelFunc) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	cancel()
	ctx, cancelTimeout := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelTimeout()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

type apiKeyResolver struct {
	db *sqlite.DB
}

func (r *apiKeyResolver) ResolveTenant(ctx context.Context, token string) (string, error) {
	hash := hashToken(token)
	var tenantID string
	err := r.db.QueryRowContext(ctx, `SELECT tenant_id FROM api_keys WHERE key_hash = ?`, hash).Scan(&tenantID)
	if err != nil || tenantID == "" {
		return "", fmt.Errorf("unauthorized: invalid token")
	}
	return tenantID, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
