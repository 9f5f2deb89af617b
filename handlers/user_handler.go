package handlers

import (
	"errors"
	"log"
	"net/http"

	middleware "github.com/globizora/api-service/middlewares"
	"github.com/globizora/api-service/models"
	"github.com/globizora/api-service/store"
	"github.com/globizora/api-service/utils"
)

const apiKeyAttempts = 3

// TokenIssuer signs session tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type UserHandler struct {
	Store  store.UserStore
	Tokens TokenIssuer
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		utils.RespondValidationError(w, err)
		return
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.RespondInternal(w, err, "Could not process password")
		return
	}

	user, err := h.Store.Create(r.Context(), req.Username, req.Email, passwordHash)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			utils.RespondError(w, http.StatusBadRequest, "User already exists")
			return
		}
		utils.RespondInternal(w, err, "Unable to create account")
		return
	}

	log.Printf("Registered user %s", user.ID)
	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"user":    user.Summary(),
	})
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var form models.LoginForm
	if !decodeJSON(w, r, &form) {
		return
	}

	form.Normalize()
	if err := form.Validate(); err != nil {
		utils.RespondValidationError(w, err)
		return
	}

	user, err := h.Store.FindByEmail(r.Context(), form.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.DummyCompare(form.Password)
			utils.RespondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		utils.RespondInternal(w, err, "Unable to log in")
		return
	}

	if !utils.CheckPasswordHash(form.Password, user.PasswordHash) {
		utils.RespondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		utils.RespondInternal(w, err, "Could not create session")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
	})
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.List(r.Context())
	if err != nil {
		utils.RespondInternal(w, err, "Unable to list users")
		return
	}

	public := make([]models.User, 0, len(users))
	for _, u := range users {
		public = append(public, u.WithoutSecrets())
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"count": len(public),
		"users": public,
	})
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"user": user})
}

// GenerateAPIKey replaces the caller's API key. A unique-index collision
// is retried with a fresh key.
func (h *UserHandler) GenerateAPIKey(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	var lastErr error
	for attempt := 0; attempt < apiKeyAttempts; attempt++ {
		key, err := utils.GenerateAPIKey()
		if err != nil {
			utils.RespondInternal(w, err, "Could not generate key")
			return
		}

		user, err := h.Store.Update(r.Context(), userID, models.UserUpdate{APIKey: &key})
		switch {
		case err == nil:
			utils.RespondJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"apiKey":  *user.APIKey,
			})
			return
		case errors.Is(err, store.ErrNotFound):
			utils.RespondError(w, http.StatusNotFound, "User not found")
			return
		case errors.Is(err, store.ErrConflict):
			lastErr = err
			continue
		default:
			utils.RespondInternal(w, err, "Could not save key")
			return
		}
	}

	utils.RespondInternal(w, lastErr, "API key collided repeatedly")
}

func (h *UserHandler) currentUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Invalid token")
		return models.User{}, false
	}

	user, err := h.Store.FindByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, "User not found")
			return models.User{}, false
		}
		utils.RespondInternal(w, err, "Unable to load user")
		return models.User{}, false
	}
	return user, true
}
