package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/coreybb/taskboard/api"
	"github.com/coreybb/taskboard/auth"
	"github.com/coreybb/taskboard/datastore"
	rh "github.com/coreybb/taskboard/route-handlers"
	"github.com/coreybb/taskboard/todos"
	"github.com/coreybb/taskboard/webutil"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

const (
	defaultPort               = "8080"
	defaultDatabaseURL        = "user=postgres password=password dbname=taskboard host=localhost port=5432 sslmode=disable"
	defaultAlgorithm          = "HS256"
	defaultTokenExpireMinutes = 360
	defaultAllowedOrigins     = "http://localhost,http://localhost:3000,http://localhost:8080"
	dbPingTimeout             = 5 * time.Second
	migrateTimeout            = 30 * time.Second
	shutdownTimeout           = 15 * time.Second
	requestTimeout            = 60 * time.Second
	dbMaxOpenConns            = 25
	dbMaxIdleConns            = 25
	dbConnMaxLifetime         = 5 * time.Minute
)

type config struct {
	port           string
	databaseURL    string
	secretKey      string
	algorithm      string
	tokenLifetime  time.Duration
	allowedOrigins []string
	logLevel       slog.Level
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("WARNING: could not load .env file: %v", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.logLevel})))

	db, err := setupDatabase(cfg.databaseURL)
	if err != nil {
		log.Fatalf("Database setup failed: %v", err)
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), migrateTimeout)
	err = datastore.Migrate(migrateCtx, db)
	cancelMigrate()
	if err != nil {
		log.Fatalf("Schema migration failed: %v", err)
	}

	tokenService, err := auth.NewTokenService(auth.TokenConfig{
		Secret:    []byte(cfg.secretKey),
		Algorithm: cfg.algorithm,
		Lifetime:  cfg.tokenLifetime,
	})
	if err != nil {
		log.Fatalf("Token service setup failed: %v", err)
	}

	userRepo := datastore.NewUserRepository(db)
	todoRepo := datastore.NewTodoRepository(db)

	authenticator := auth.NewAuthenticator(tokenService, userRepo, webutil.CheckPassword)
	todoService := todos.NewService(todoRepo)

	router := api.SetupRoutes(api.RouterConfig{
		AuthHandler:    rh.NewAuthHandler(userRepo, authenticator),
		TodoHandler:    rh.NewTodoHandler(todoService),
		Authenticator:  authenticator,
		AllowedOrigins: cfg.allowedOrigins,
		RequestTimeout: requestTimeout,
	})

	startServer(cfg.port, router)
}

func loadConfig() (config, error) {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	dbURL := os.Getenv("DB_CONNECTION_STRING")
	if dbURL == "" {
		dbURL = defaultDatabaseURL
		log.Println("WARNING: DB_CONNECTION_STRING not set, using default local connection string.")
	}

	secretKey := os.Getenv("SECRET_KEY")
	if secretKey == "" {
		return config{}, fmt.Errorf("SECRET_KEY must be set")
	}

	algorithm := os.Getenv("ALGORITHM")
	if algorithm == "" {
		algorithm = defaultAlgorithm
	}

	expireMinutes := defaultTokenExpireMinutes
	if raw := os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return config{}, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be a positive integer, got %q", raw)
		}
		expireMinutes = n
	}

	origins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if origins == "" {
		origins = defaultAllowedOrigins
	}

	var level slog.Level
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			return config{}, fmt.Errorf("invalid LOG_LEVEL %q: %w", raw, err)
		}
	}

	return config{
		port:           port,
		databaseURL:    dbURL,
		secretKey:      secretKey,
		algorithm:      algorithm,
		tokenLifetime:  time.Duration(expireMinutes) * time.Minute,
		allowedOrigins: splitList(origins),
		logLevel:       level,
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setupDatabase(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(dbMaxOpenConns)
	db.SetMaxIdleConns(dbMaxIdleConns)
	db.SetConnMaxLifetime(dbConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection successful")
	return db, nil
}

func startServer(port string, router http.Handler) {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownSignal
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
