package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/padraicbc/racingdb/db"
	mw "github.com/padraicbc/racingdb/middleware"
	"github.com/padraicbc/racingdb/models"
)

type credentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type signedIn struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Role    string `json:"role"`
}

// HashPasswordForUser validates username/password input and returns a bcrypt hash for storage.
func HashPasswordForUser(username, password string) (string, error) {
	if strings.TrimSpace(username) == "" {
		return "", errors.New("username is required")
	}
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is required")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hashedPassword), nil
}

// ValidRole reports whether role is one the admin guard knows.
func ValidRole(role string) bool {
	return role == models.RoleAdmin || role == models.RoleGuest
}

// PasswordHash returns a bcrypt hash for manual user registration. It sits
// behind the admin guard.
func (h *Handler) PasswordHash(c echo.Context) error {
	var creds credentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
	}

	hash, err := HashPasswordForUser(creds.Username, creds.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":       true,
		"username":      strings.TrimSpace(creds.Username),
		"password_hash": hash,
	})
}

// Signin validates credentials and returns a JWT token valid for 30 days.
func (h *Handler) Signin(c echo.Context) error {
	var creds credentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
	}
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" || creds.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	user, err := h.users.UserByName(c.Request().Context(), creds.Username)
	if errors.Is(err, db.ErrUserNotFound) {
		return echo.NewHTTPError(http.StatusUnauthorized, "incorrect username or password")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to sign in").SetInternal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "incorrect username or password")
	}

	token, err := mw.NewToken(user.Username, user.Role, h.opts.JWTKey, h.now())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to sign in").SetInternal(err)
	}

	h.log.Info("signed in", zap.String("username", user.Username), zap.String("role", user.Role))
	return c.JSON(http.StatusOK, signedIn{Success: true, Token: token, Role: user.Role})
}
