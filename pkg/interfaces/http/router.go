package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/vsinha/bomcost/pkg/infrastructure/logger"
	httpH "github.com/vsinha/bomcost/pkg/interfaces/http/handlers"
	httpMW "github.com/vsinha/bomcost/pkg/interfaces/http/middleware"
)

type RouterConfig struct {
	BOMHandler    *httpH.BOMHandler
	HealthHandler *httpH.HealthHandler

	Logger      *logger.Logger
	CORSOrigins []string

	// ServiceName names the otelgin server spans; empty disables them
	ServiceName string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestID())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.RequestLogger(cfg.Logger))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// BOM
		if cfg.BOMHandler != nil {
			api.GET("/bom", cfg.BOMHandler.ListEdges)
			api.POST("/bom", cfg.BOMHandler.CreateEdge)
			api.GET("/bom/full-tree", cfg.BOMHandler.GetFullTree)
			api.GET("/bom/cost-summary/:item_id", cfg.BOMHandler.GetCostSummary)
			api.GET("/bom/where-used/:child_item_id", cfg.BOMHandler.WhereUsed)
			api.GET("/bom/validate", cfg.BOMHandler.Validate)
			api.GET("/bom/history", cfg.BOMHandler.AuditFeed)
			api.PUT("/bom/:id", cfg.BOMHandler.UpdateEdge)
			api.DELETE("/bom/:id", cfg.BOMHandler.DeactivateEdge)
			api.GET("/bom/:id/history", cfg.BOMHandler.History)
		}
	}

	return r
}
