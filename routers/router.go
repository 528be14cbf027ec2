package routers

import (
	"SceneForge-studio/config"
	"SceneForge-studio/routers/api"
	"SceneForge-studio/service"
	"SceneForge-studio/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func InitRouter(cfg *config.Config, st *store.Store, gen *service.Generator, q *service.Queue, worker *service.WorkerClient, exporter *service.Exporter) *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.CORS.AllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	r.Use(cors.New(corsCfg))

	r.Static("/static", "./static")

	h := api.NewHandler(st, gen, q, worker, exporter)

	v1 := r.Group("/v1/api")
	{
		v1.GET("/state", h.GetState)
		v1.GET("/settings", h.GetSettings)
		v1.PUT("/settings/demo-mode", h.SetDemoMode)

		v1.GET("/projects", h.ListProjects)
		v1.POST("/projects", h.CreateProject)
		v1.GET("/projects/:project_id", h.GetProject)
		v1.PUT("/projects/:project_id", h.UpdateProject)
		v1.DELETE("/projects/:project_id", h.DeleteProject)
		v1.POST("/projects/:project_id/select", h.SelectProject)
		v1.POST("/projects/:project_id/export", h.ExportProject)
		v1.POST("/projects/:project_id/share", h.ShareProject)

		v1.PUT("/frames/:frame_id", h.UpdateFrame)
		v1.DELETE("/frames/:frame_id", h.DeleteFrame)
		v1.POST("/frames/:frame_id/select", h.SelectFrame)
		v1.POST("/frames/:frame_id/regenerate", h.RegenerateFrame)
		v1.POST("/frames/reorder", h.ReorderFrames)

		v1.POST("/generation/generate", h.Generate)
		v1.GET("/generation/progress", h.GenerationProgress)
		v1.DELETE("/generation/jobs/:job_id", h.CancelGeneration)
		v1.POST("/surprise", h.SurpriseMe)
	}
	r.GET("/v1/api/generation/progress/ws", h.ProgressWebSocket)

	return r
}
