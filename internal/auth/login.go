package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	pkgauth "crewdesk/pkg/auth"
	"crewdesk/pkg/logging"
)

// User is one entry of the flat credential file. Password may be a bcrypt
// hash or plaintext; pkgauth.CheckPassword handles both.
type User struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginHandler validates credentials against a static user list and issues
// a session token when a JWT secret is configured.
type LoginHandler struct {
	users      map[string]User
	jwtSecret  []byte
	sessionTTL time.Duration
	logger     logging.Logger
}

func NewLoginHandler(usersFile, jwtSecret string, sessionTTL time.Duration, logger logging.Logger) (*LoginHandler, error) {
	users, err := loadUsers(usersFile)
	if err != nil {
		return nil, err
	}
	if sessionTTL <= 0 {
		sessionTTL = 12 * time.Hour
	}
	return &LoginHandler{
		users:      users,
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: sessionTTL,
		logger:     logger,
	}, nil
}

func loadUsers(path string) (map[string]User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}
	var list []User
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}
	users := make(map[string]User, len(list))
	for _, user := range list {
		email := strings.ToLower(strings.TrimSpace(user.Email))
		if email == "" {
			continue
		}
		users[email] = user
	}
	return users, nil
}

func RegisterRoutes(router gin.IRouter, handler *LoginHandler) {
	router.POST("/api/login", handler.HandleLogin)
}

func (h *LoginHandler) HandleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, ok := h.users[email]
	if !ok || !pkgauth.CheckPassword(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid credentials"})
		return
	}

	payload := gin.H{
		"success": true,
		"user":    gin.H{"email": user.Email, "name": user.Name},
	}
	if len(h.jwtSecret) > 0 {
		token, err := pkgauth.GenerateJWT(user.Email, user.Name, h.jwtSecret, h.sessionTTL)
		if err != nil {
			h.logger.WithError(err).Error("Session token generation failed")
		} else {
			payload["token"] = token
		}
	}

	c.JSON(http.StatusOK, payload)
}
