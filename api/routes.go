package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/coreybb/taskboard/auth"
	rh "github.com/coreybb/taskboard/route-handlers"
	"github.com/coreybb/taskboard/webutil"
)

const (
	authBasePath = "/auth"
	todoBasePath = "/todo"
)

const (
	paramTodoID = "todo_id"
)

// RouterConfig carries everything SetupRoutes wires together.
type RouterConfig struct {
	AuthHandler    *rh.AuthHandler
	TodoHandler    *rh.TodoHandler
	Authenticator  *auth.Authenticator
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func SetupRoutes(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Log every request
	r.Use(middleware.Recoverer) // Recover from panics
	r.Use(middleware.Timeout(timeout))
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(CORS(cfg.AllowedOrigins))
	}

	configureAuthRoutes(r, cfg.AuthHandler, cfg.Authenticator)
	configureTodoRoutes(r, cfg.TodoHandler, cfg.Authenticator)

	r.Get("/healthz", handleHealthCheck)

	return r
}

func pathWithParam(basePath string, paramName string) string {
	return basePath + "/{" + paramName + "}"
}

// --- Auth Routes ---
func configureAuthRoutes(r chi.Router, handler *rh.AuthHandler, authenticator *auth.Authenticator) {
	r.Route(authBasePath, func(r chi.Router) {
		r.Post("/register", webutil.MakeHandler(handler.HandleRegister))
		r.Post("/login", webutil.MakeHandler(handler.HandleLogin))
		r.With(RequireUser(authenticator)).Get("/me", webutil.MakeHandler(handler.HandleMe))
	})
}

// --- Todo Routes ---
func configureTodoRoutes(r chi.Router, handler *rh.TodoHandler, authenticator *auth.Authenticator) {
	specificTodoPath := pathWithParam("", paramTodoID) // "/{todo_id}"

	r.Route(todoBasePath, func(r chi.Router) {
		r.Use(RequireUser(authenticator))

		r.Get("/all", webutil.MakeHandler(handler.HandleGetTodos))
		r.Get("/stats", webutil.MakeHandler(handler.HandleGetStats))
		r.Post("/create", webutil.MakeHandler(handler.HandleCreateTodo))
		r.Patch(specificTodoPath, webutil.MakeHandler(handler.HandleUpdateTodo))
		r.Delete(specificTodoPath, webutil.MakeHandler(handler.HandleDeleteTodo))
	})
}

// handleHealthCheck responds to a health check request.
func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(webutil.HeaderContentType, webutil.ContentTypeTextPlainUTF8)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
