package core

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// NewRouter constructs the Gin engine with routes wired.
func NewRouter(cfg Config, auth AuthService, users *UserService, metrics *MetricsService) *gin.Engine {
	startedAt := time.Now()
	r := gin.Default()

	// Global middleware: origin/CORS -> bearer resolution (fail-open)
	r.Use(OriginMiddleware(cfg))
	r.Use(BearerAuth(auth))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", func(c *gin.Context) {
			var req struct {
				Username string `json:"username"`
				Password string `json:"password"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}

			pair, err := auth.Login(c.Request.Context(), req.Username, req.Password)
			if err != nil {
				record(c, metrics, MetricLoginFailure)
				respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "wrong username or password")
				return
			}

			record(c, metrics, MetricLoginSuccess)
			c.JSON(http.StatusOK, pair)
		})

		authGroup.POST("/register", func(c *gin.Context) {
			var req CreateUserInput
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}

			summary, err := users.Register(c.Request.Context(), req)
			if err != nil {
				respondUserError(c, err)
				return
			}

			record(c, metrics, MetricRegistration)
			c.JSON(http.StatusCreated, gin.H{
				"id":       summary.ID,
				"name":     summary.Name,
				"username": summary.Username,
			})
		})

		authGroup.POST("/refresh", func(c *gin.Context) {
			token, ok := rawTokenBody(c)
			if !ok {
				return
			}

			pair, err := auth.Refresh(c.Request.Context(), token)
			if err != nil {
				record(c, metrics, MetricTokenRejected)
				respondTokenError(c, err)
				return
			}

			record(c, metrics, MetricRefresh)
			c.JSON(http.StatusOK, pair)
		})

		authGroup.POST("/validate", func(c *gin.Context) {
			token, ok := rawTokenBody(c)
			if !ok {
				return
			}

			pair, err := auth.Describe(token)
			if err != nil {
				record(c, metrics, MetricTokenRejected)
				respondTokenError(c, err)
				return
			}

			c.JSON(http.StatusOK, pair)
		})
	}

	userGroup := r.Group("/users")
	userGroup.Use(RequireRole(RoleAdmin))
	{
		userGroup.POST("", func(c *gin.Context) {
			var req CreateUserInput
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}

			role := strings.ToUpper(strings.TrimSpace(c.Query("role")))
			if !validRole(role) {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown role")
				return
			}

			summary, err := users.Create(c.Request.Context(), req, role)
			if err != nil {
				respondUserError(c, err)
				return
			}
			c.JSON(http.StatusCreated, summary)
		})

		userGroup.GET("/:id", func(c *gin.Context) {
			id, ok := pathID(c)
			if !ok {
				return
			}
			summary, err := users.Get(c.Request.Context(), id)
			if err != nil {
				respondUserError(c, err)
				return
			}
			c.JSON(http.StatusOK, summary)
		})

		userGroup.PUT("/:id", func(c *gin.Context) {
			id, ok := pathID(c)
			if !ok {
				return
			}
			var req CreateUserInput
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}
			summary, err := users.Update(c.Request.Context(), id, req)
			if err != nil {
				respondUserError(c, err)
				return
			}
			c.JSON(http.StatusOK, summary)
		})

		userGroup.PATCH("/:id", func(c *gin.Context) {
			id, ok := pathID(c)
			if !ok {
				return
			}
			if err := users.Archive(c.Request.Context(), id); err != nil {
				respondUserError(c, err)
				return
			}
			c.Status(http.StatusNoContent)
		})
	}

	admin := r.Group("/admin")
	admin.Use(RequireRole(RoleAdmin))
	{
		admin.GET("/metrics/overview", func(c *gin.Context) {
			st := CollectSystemStatus(c.Request.Context(), metrics, startedAt)
			c.JSON(http.StatusOK, st)
		})
	}

	return r
}

// rawTokenBody reads the request body as a bare token string, as the refresh
// and validate endpoints take the token without JSON framing.
func rawTokenBody(c *gin.Context) (string, bool) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 16*1024))
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "unreadable body")
		return "", false
	}
	token := strings.TrimSpace(strings.Trim(strings.TrimSpace(string(body)), `"`))
	if token == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "token is required")
		return "", false
	}
	return token, true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid id")
		return 0, false
	}
	return id, true
}

func validRole(role string) bool {
	switch role {
	case RoleAdmin, RoleJournalist, RoleSubscriber:
		return true
	default:
		return false
	}
}

// respondTokenError maps auth-path failures onto 401 responses. The token
// itself is never echoed into an error payload.
func respondTokenError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		respondError(c, http.StatusUnauthorized, "USER_NOT_FOUND", "token references an unknown user")
	default:
		respondError(c, http.StatusUnauthorized, "INVALID_TOKEN", "token is invalid or expired")
	}
}

// respondUserError maps user CRUD failures onto HTTP responses.
func respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrDuplicateUsername):
		respondError(c, http.StatusConflict, "CONFLICT", "username already exists")
	case errors.Is(err, ErrPasswordMismatch):
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "password and confirmation do not match")
	case errors.Is(err, ErrValidation):
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "missing or invalid fields")
	case errors.Is(err, ErrUserNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "user not found")
	default:
		respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "unexpected error")
	}
}

func record(c *gin.Context, metrics *MetricsService, key string) {
	if err := metrics.Record(c.Request.Context(), key); err != nil {
		log.Printf("metrics: failed to record %s: %v", key, err)
	}
}
