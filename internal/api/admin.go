package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"karta/internal/chart"
	"karta/internal/reference"
)

// UserStore — управление учётками; доступно только суперпользователю.
type UserStore interface {
	UserByEmail(ctx context.Context, email string) (chart.User, error)
	ListUsers(ctx context.Context, limit int) ([]chart.User, error)
	UpdateUser(ctx context.Context, id int64, fullName string, isSuperuser bool) (chart.User, error)
}

type Linter interface {
	Lint(ctx context.Context) ([]chart.Issue, error)
}

// requireSuperuser: актор из заголовка должен существовать и быть суперпользователем.
func requireSuperuser(c *gin.Context, users UserStore) bool {
	email := actorFrom(c)
	if email == "" {
		c.JSON(http.StatusForbidden, gin.H{
			"errors": []*chart.Fault{{Code: chart.ErrPermission, Field: "actor",
				Message: "missing X-Karta-User header"}},
		})
		return false
	}
	u, err := users.UserByEmail(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{
			"errors": []*chart.Fault{{Code: chart.ErrPermission, Field: "actor",
				Message: "unknown acting user"}},
		})
		return false
	}
	if !u.IsSuperuser {
		c.JSON(http.StatusForbidden, gin.H{
			"errors": []*chart.Fault{{Code: chart.ErrPermission, Field: "actor",
				Message: "user management requires superuser"}},
		})
		return false
	}
	return true
}

// GET /api/users
func ListUsersHandler(users UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireSuperuser(c, users) {
			return
		}
		rows, err := users.ListUsers(c.Request.Context(), parseRowLimit(c.Request.URL.Query()))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

// PATCH /api/users/:id
func UpdateUserHandler(users UserStore) gin.HandlerFunc {
	type req struct {
		FullName    string `json:"full_name"`
		IsSuperuser bool   `json:"is_superuser"`
	}
	return func(c *gin.Context) {
		if !requireSuperuser(c, users) {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var body req
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		u, err := users.UpdateUser(c.Request.Context(), id, body.FullName, body.IsSuperuser)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

// GET /api/admin/lint — диагностика целостности данных.
func LintHandler(l Linter) gin.HandlerFunc {
	return func(c *gin.Context) {
		issues, err := l.Lint(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": len(issues) == 0, "issues": issues})
	}
}

// GET /api/reference/:name — yaml-справочник (например, properties).
func ReferenceHandler(catalog map[string]reference.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		dir, ok := catalog[name]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Catalog not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"name": name, "items": dir.Items})
	}
}
