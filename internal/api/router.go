// api/router.go
package api

import (
	"github.com/gin-gonic/gin"

	"karta/internal/reference"
)

// Deps — всё, что нужно маршрутам. В проде это *chart.Service и *chart.Store,
// в тестах — фейки по интерфейсам.
type Deps struct {
	Publisher Publisher
	Reader    ChartReader
	Writer    ChartWriter
	Users     UserStore
	Linter    Linter
	Catalog   map[string]reference.Directory
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.Default()

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/charts", CreateChartHandler(d.Publisher))
		apiGroup.GET("/charts", ListChartsHandler(d.Reader))
		apiGroup.GET("/charts/:id", GetChartHandler(d.Reader))
		apiGroup.PUT("/charts/:id", UpdateChartHandler(d.Publisher))
		apiGroup.DELETE("/charts/:id", DeleteChartHandler(d.Writer))
		apiGroup.POST("/charts/:id/star", StarChartHandler(d.Writer))
		apiGroup.GET("/charts/:id/revisions", ChartRevisionsHandler(d.Reader))

		apiGroup.GET("/variables/:id/charts", ChartsByVariableHandler(d.Reader))
		apiGroup.GET("/datasets/:id/charts", ChartsByDatasetHandler(d.Reader))

		apiGroup.GET("/users", ListUsersHandler(d.Users))
		apiGroup.PATCH("/users/:id", UpdateUserHandler(d.Users))

		apiGroup.GET("/admin/lint", LintHandler(d.Linter))
		apiGroup.GET("/reference/:name", ReferenceHandler(d.Catalog))
	}

	return r
}

func RunServer(addr string, d Deps) {
	_ = NewRouter(d).Run(addr)
}
