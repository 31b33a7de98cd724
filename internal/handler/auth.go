package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"minitwit/internal/config"
	"minitwit/internal/httputil"
	"minitwit/internal/model"
	"minitwit/internal/service"
	"minitwit/internal/transport/http/middleware"
)

// AuthHandler groups auth-related HTTP endpoints and their dependencies.
type AuthHandler struct {
	userService *service.UserService
	authService *service.AuthService
	config      *config.Config
}

// NewAuthHandler wires dependencies for authentication endpoints.
func NewAuthHandler(userService *service.UserService, authService *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
		config:      cfg,
	}
}

// Register creates an account from form fields username, email, password, password2.
// POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if redirectIfLoggedIn(w, r) {
		return
	}

	req := model.RegisterRequest{
		Username:  r.FormValue("username"),
		Email:     r.FormValue("email"),
		Password:  r.FormValue("password"),
		Password2: r.FormValue("password2"),
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		if model.IsValidationError(err) {
			httputil.WriteBadRequest(w, registerErrorMessage(err))
			return
		}
		slog.ErrorContext(r.Context(), "register failed", "component", "AuthHandler", "error", err)
		httputil.WriteInternalError(w, "Failed to register")
		return
	}

	slog.InfoContext(r.Context(), "user registered", "component", "AuthHandler", "user", user.ID)
	httputil.WriteFlash(w, http.StatusCreated, model.FlashRegistered)
}

// Login verifies credentials and starts a session.
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if redirectIfLoggedIn(w, r) {
		return
	}

	req := model.LoginRequest{
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
	}

	user, err := h.userService.VerifyLogin(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUnknownUser):
			httputil.WriteUnauthorized(w, "Invalid username")
		case errors.Is(err, model.ErrBadPassword):
			httputil.WriteUnauthorized(w, "Invalid password")
		default:
			slog.ErrorContext(r.Context(), "login failed", "component", "AuthHandler", "error", err)
			httputil.WriteInternalError(w, "Failed to login")
		}
		return
	}

	tokenPair, err := h.authService.GenerateTokenPair(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "generate tokens failed", "component", "AuthHandler", "user", user.ID, "error", err)
		httputil.WriteInternalError(w, "Failed to generate tokens")
		return
	}

	h.setSessionCookies(w, tokenPair)
	httputil.WriteJSON(w, http.StatusOK, model.LoginResponse{
		Message:   model.FlashLoggedIn,
		User:      model.NewUserView(user, model.ProfileAvatarSize),
		TokenPair: *tokenPair,
	})
}

// Refresh handles token refresh
// POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken, ok := refreshTokenFromRequest(r)
	if !ok {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if refreshToken == "" {
		httputil.WriteBadRequest(w, "Refresh token is required")
		return
	}

	tokenPair, _, err := h.authService.RefreshTokens(r.Context(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrRefreshTokenNotFound):
			httputil.WriteUnauthorizedWithCode(w, model.CodeTokenInvalid, "Invalid refresh token")
		case errors.Is(err, model.ErrRefreshTokenExpired):
			httputil.WriteUnauthorizedWithCode(w, model.CodeTokenExpired, "Refresh token has expired")
		case errors.Is(err, model.ErrRefreshTokenReused):
			httputil.WriteUnauthorizedWithCode(w, model.CodeTokenReused, "Refresh token reuse detected. Please login again.")
		default:
			slog.ErrorContext(r.Context(), "refresh failed", "component", "AuthHandler", "error", err)
			httputil.WriteInternalError(w, "Failed to refresh tokens")
		}
		return
	}

	h.setSessionCookies(w, tokenPair)
	httputil.WriteJSON(w, http.StatusOK, tokenPair)
}

// Logout ends the session. Unknown or missing tokens still log out.
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	refreshToken, _ := refreshTokenFromRequest(r)
	if refreshToken != "" {
		err := h.authService.RevokeRefreshToken(r.Context(), refreshToken)
		if err != nil && !errors.Is(err, model.ErrRefreshTokenNotFound) {
			slog.ErrorContext(r.Context(), "logout failed", "component", "AuthHandler", "error", err)
			httputil.WriteInternalError(w, "Failed to logout")
			return
		}
	}

	clearSessionCookies(w)
	httputil.WriteFlash(w, http.StatusOK, model.FlashLoggedOut)
}

func (h *AuthHandler) setSessionCookies(w http.ResponseWriter, pair *model.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   h.config.AccessTokenMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.RefreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
	}
}

// refreshTokenFromRequest reads the token from a JSON body, a form field or
// the refresh_token cookie, in that order. ok is false for a malformed JSON body.
func refreshTokenFromRequest(r *http.Request) (token string, ok bool) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req model.RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", false
		}
		token = req.RefreshToken
	} else {
		token = r.FormValue("refresh_token")
	}

	if token == "" {
		if cookie, err := r.Cookie(middleware.RefreshTokenCookie); err == nil {
			token = cookie.Value
		}
	}
	return token, true
}

// redirectIfLoggedIn sends authenticated callers back to their timeline.
func redirectIfLoggedIn(w http.ResponseWriter, r *http.Request) bool {
	if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
		return false
	}
	http.Redirect(w, r, "/", http.StatusFound)
	return true
}

func registerErrorMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrEmptyUsername):
		return "You have to enter a username"
	case errors.Is(err, model.ErrInvalidEmail):
		return "You have to enter a valid email address"
	case errors.Is(err, model.ErrEmptyPassword):
		return "You have to enter a password"
	case errors.Is(err, model.ErrPasswordMismatch):
		return "The two passwords do not match"
	case errors.Is(err, model.ErrUsernameTaken):
		return "The username is already taken"
	default:
		return err.Error()
	}
}
