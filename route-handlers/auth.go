package routehandlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/coreybb/taskboard/auth"
	"github.com/coreybb/taskboard/datastore"
	"github.com/coreybb/taskboard/models"
	"github.com/coreybb/taskboard/webutil"
	"github.com/google/uuid"
)

// UserCreator persists newly registered users.
type UserCreator interface {
	CreateUser(ctx context.Context, user *models.User) error
}

// AuthHandler holds dependencies for registration and login routes.
type AuthHandler struct {
	Users         UserCreator
	Authenticator *auth.Authenticator
	HashPassword  func(password string) (string, error)
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users UserCreator, authenticator *auth.Authenticator) *AuthHandler {
	return &AuthHandler{
		Users:         users,
		Authenticator: authenticator,
		HashPassword:  webutil.HashPassword,
	}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=6,max=50"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
}

// HandleRegister creates a member account.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	req.Username = strings.TrimSpace(req.Username)
	if err := models.Validate(req); err != nil {
		return webutil.ErrBadRequestWrap(models.ValidationMessage(err), err)
	}

	hash, err := h.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password for %s: %w", req.Username, err)
	}

	newUser := models.User{
		ID:             uuid.NewString(),
		Username:       req.Username,
		Role:           models.RoleMember,
		HashedPassword: hash,
		CreatedAt:      time.Now().UTC(),
	}

	if err := h.Users.CreateUser(r.Context(), &newUser); err != nil {
		if errors.Is(err, datastore.ErrUsernameTaken) {
			return webutil.ErrConflict("Username already taken")
		}
		return fmt.Errorf("failed to create user %s: %w", newUser.Username, err)
	}

	log.Printf("INFO: User registered: ID=%s, Username=%s", newUser.ID, newUser.Username)
	webutil.RespondWithJSON(w, http.StatusCreated, newUser)
	return nil
}

// HandleLogin exchanges a username and password for a bearer token. It
// accepts an OAuth2 password-flow form body or a JSON body.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) error {
	req, err := decodeLoginRequest(r)
	if err != nil {
		return err
	}
	if err := models.Validate(req); err != nil {
		return webutil.ErrBadRequestWrap(models.ValidationMessage(err), err)
	}

	token, user, err := h.Authenticator.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return webutil.ErrUnauthorizedWrap("Incorrect username or password", err)
		}
		return fmt.Errorf("failed to log in %s: %w", req.Username, err)
	}

	log.Printf("INFO: User logged in: ID=%s", user.ID)
	webutil.RespondWithJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   h.Authenticator.TokenLifetimeSeconds(),
	})
	return nil
}

// HandleMe returns the authenticated user.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, user)
	return nil
}

func decodeLoginRequest(r *http.Request) (loginRequest, error) {
	var req loginRequest
	defer r.Body.Close()

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get(webutil.HeaderContentType))
	if mediaType == webutil.ContentTypeForm {
		if err := r.ParseForm(); err != nil {
			return req, webutil.ErrBadRequest("Invalid form payload: " + err.Error())
		}
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
		return req, nil
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return req, webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	return req, nil
}

// currentUser returns the user placed in the request context by the
// authentication middleware.
func currentUser(r *http.Request) (*models.User, error) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		return nil, webutil.ErrUnauthorized("Not authenticated")
	}
	return user, nil
}
