package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"karta/internal/chart"
)

// статусы по кодам Fault; всё неопознанное — 500 (ошибка хранилища)
func statusForCode(code string) int {
	switch code {
	case chart.ErrRequired, chart.ErrTypeMismatch, chart.ErrSlugInvalid, chart.ErrPropertyUnknown:
		return http.StatusBadRequest
	case chart.ErrSlugConflict, chart.ErrVersionConflict:
		return http.StatusConflict
	case chart.ErrNotFound:
		return http.StatusNotFound
	case chart.ErrPermission:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	if f, ok := chart.AsFault(err); ok {
		c.JSON(statusForCode(f.Code), gin.H{"errors": []*chart.Fault{f}})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "store error", "details": err.Error()})
}

// parseRowLimit: _limit/limit из query, дефолт 50, потолок 1000.
func parseRowLimit(q url.Values) int {
	limit := 50
	lv := q.Get("_limit")
	if lv == "" {
		lv = q.Get("limit")
	}
	if lv != "" {
		if n, err := strconv.Atoi(lv); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	return limit
}

// actorFrom — кто правит. Сессии вне зоны ответственности сервиса:
// личность приходит заголовком от фронтовой прослойки.
func actorFrom(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader("X-Karta-User"))
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
