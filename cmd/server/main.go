package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"payflow/internal/platform/config"
	cryptoutil "payflow/internal/platform/crypto"
	"payflow/internal/platform/db"
	"payflow/internal/platform/metrics"
	"payflow/internal/transport/http/api"
	attendancehandler "payflow/internal/transport/http/handlers/attendance"
	authhandler "payflow/internal/transport/http/handlers/auth"
	companyhandler "payflow/internal/transport/http/handlers/company"
	dashboardhandler "payflow/internal/transport/http/handlers/dashboard"
	employeehandler "payflow/internal/transport/http/handlers/employee"
	paymenthandler "payflow/internal/transport/http/handlers/payment"
	payrollhandler "payflow/internal/transport/http/handlers/payroll"
	"payflow/internal/transport/http/middleware"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	crypto, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		log.Fatalf("data encryption key invalid: %v", err)
	}

	collector := metrics.New()
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(limiter.Middleware)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(pool, cfg.JWTSecret, cfg.TokenTTL).RegisterRoutes(r)
		companyhandler.NewHandler(pool).RegisterRoutes(r)
		employeehandler.NewHandler(pool, crypto).RegisterRoutes(r)
		payrollhandler.NewHandler(pool, crypto).RegisterRoutes(r)
		paymenthandler.NewHandler(pool).RegisterRoutes(r)
		attendancehandler.NewHandler(pool, cfg.JWTSecret, cfg.EmployeeQRTTL, cfg.CompanyQRTTL).RegisterRoutes(r)
		dashboardhandler.NewHandler(pool).RegisterRoutes(r)
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})

	log.Printf("payflow server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, r.URL.Path)
	_, err := os.Stat(path)
	if err == nil {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
