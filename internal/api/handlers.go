package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"karta/internal/chart"
)

// Publisher — сервис публикации (единственный путь записи карт).
type Publisher interface {
	Publish(ctx context.Context, actor string, cfg *chart.Config, existing *chart.Config) (chart.PublishResult, error)
}

// ChartReader — read-only проекции админки.
type ChartReader interface {
	ListCharts(ctx context.Context, limit int, namespace string) ([]chart.Summary, error)
	GetConfig(ctx context.Context, id int64) (map[string]any, error)
	ChartsByVariable(ctx context.Context, variableID int64, limit int) ([]chart.Summary, error)
	ChartsByDataset(ctx context.Context, datasetID int64, limit int) ([]chart.Summary, error)
	Revisions(ctx context.Context, chartID int64, limit int) ([]chart.Revision, error)
}

// ChartWriter — операции вне публикации: звезда и удаление.
type ChartWriter interface {
	Star(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// POST /api/charts — создание: тело запроса и есть полный документ.
func CreateChartHandler(svc Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var obj map[string]any
		if err := c.ShouldBindJSON(&obj); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		cfg, err := chart.ParseConfig(obj)
		if err != nil {
			writeError(c, err)
			return
		}
		// id назначает хранилище
		cfg.ID = 0

		res, err := svc.Publish(c.Request.Context(), actorFrom(c), cfg, nil)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, res)
	}
}

// PUT /api/charts/:id — обновление. Вызывающий обязан приложить ранее
// прочитанный документ (existingConfig): сервис его не перечитывает.
func UpdateChartHandler(svc Publisher) gin.HandlerFunc {
	type req struct {
		Config         map[string]any `json:"config"`
		ExistingConfig map[string]any `json:"existingConfig"`
	}
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var body req
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		if body.Config == nil || body.ExistingConfig == nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"errors": []*chart.Fault{{Code: chart.ErrRequired, Field: "existingConfig",
					Message: "update requires both config and the previously fetched existingConfig"}},
			})
			return
		}
		cfg, err := chart.ParseConfig(body.Config)
		if err != nil {
			writeError(c, err)
			return
		}
		existing, err := chart.ParseConfig(body.ExistingConfig)
		if err != nil {
			writeError(c, err)
			return
		}
		cfg.ID = id
		existing.ID = id

		res, err := svc.Publish(c.Request.Context(), actorFrom(c), cfg, existing)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// DELETE /api/charts/:id — привязки, редиректы и ревизии уходят каскадом.
func DeleteChartHandler(store ChartWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := store.Delete(c.Request.Context(), id); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// POST /api/charts/:id/star — единственная отмеченная карта.
func StarChartHandler(store ChartWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := store.Star(c.Request.Context(), id); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"starred": id})
	}
}

// GET /api/charts?limit=&namespace=
func ListChartsHandler(store ChartReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseRowLimit(c.Request.URL.Query())
		rows, err := store.ListCharts(c.Request.Context(), limit, c.Query("namespace"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.Header("X-Total-Count", strconv.Itoa(len(rows)))
		c.JSON(http.StatusOK, rows)
	}
}

// GET /api/charts/:id — сохранённый документ как есть.
func GetChartHandler(store ChartReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		doc, err := store.GetConfig(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, doc)
	}
}

// GET /api/charts/:id/revisions
func ChartRevisionsHandler(store ChartReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		rows, err := store.Revisions(c.Request.Context(), id, parseRowLimit(c.Request.URL.Query()))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

// GET /api/variables/:id/charts
func ChartsByVariableHandler(store ChartReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		rows, err := store.ChartsByVariable(c.Request.Context(), id, parseRowLimit(c.Request.URL.Query()))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

// GET /api/datasets/:id/charts
func ChartsByDatasetHandler(store ChartReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		rows, err := store.ChartsByDataset(c.Request.Context(), id, parseRowLimit(c.Request.URL.Query()))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}
