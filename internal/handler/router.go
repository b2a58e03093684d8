package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups the API handlers mounted under the API prefix.
type Handlers struct {
	Medias      *MediaHandler
	TagSets     *TagSetHandler
	Tags        *TagHandler
	Taggings    *TaggingHandler
	Hierarchies *HierarchyHandler
	Cells       *CellHandler
	Bulk        *BulkHandler
	Exports     *ExportHandler
	Admin       *AdminHandler
}

// Register binds every catalog route onto the API group.
func Register(api *gin.RouterGroup, h Handlers) {
	medias := api.Group("/medias")
	{
		medias.POST("", h.Medias.Create)
		medias.GET("", h.Medias.List)
		medias.GET("/by-uri", h.Medias.GetByURI)
		medias.GET("/:id", h.Medias.Get)
		medias.DELETE("/:id", h.Medias.Delete)
		medias.GET("/:id/tags", h.Taggings.TagsOfMedia)
	}

	tagsets := api.Group("/tagsets")
	{
		tagsets.POST("", h.TagSets.Create)
		tagsets.GET("", h.TagSets.List)
		tagsets.GET("/by-name/:name", h.TagSets.GetByName)
		tagsets.GET("/:id", h.TagSets.Get)
	}

	tags := api.Group("/tags")
	{
		tags.POST("", h.Tags.Create)
		tags.GET("", h.Tags.List)
		tags.GET("/:id", h.Tags.Get)
		tags.GET("/:id/medias", h.Taggings.MediasWithTag)
	}

	api.POST("/taggings", h.Taggings.Create)
	api.GET("/taggings", h.Taggings.List)

	hierarchies := api.Group("/hierarchies")
	{
		hierarchies.POST("", h.Hierarchies.Create)
		hierarchies.GET("", h.Hierarchies.List)
		hierarchies.GET("/:id", h.Hierarchies.Get)
	}

	nodes := api.Group("/nodes")
	{
		nodes.POST("", h.Hierarchies.AddNode)
		nodes.GET("", h.Hierarchies.ListNodes)
		nodes.GET("/:id", h.Hierarchies.GetNode)
		nodes.DELETE("/:id", h.Hierarchies.DeleteNode)
		nodes.GET("/:id/children", h.Hierarchies.Children)
	}

	if h.Cells != nil {
		api.POST("/cells", h.Cells.State)
		api.POST("/cells/objects", h.Cells.Objects)
		api.GET("/medias/:id/timeline", h.Cells.Timeline)
	}

	if h.Bulk != nil {
		bulk := api.Group("/bulk")
		bulk.POST("/medias", h.Bulk.Medias)
		bulk.POST("/tags", h.Bulk.Tags)
		bulk.POST("/taggings", h.Bulk.Taggings)
	}

	if h.Exports != nil {
		api.GET("/exports/medias.csv", h.Exports.Medias)
		api.GET("/exports/taggings.csv", h.Exports.Taggings)
	}

	if h.Admin != nil {
		api.POST("/admin/reset", h.Admin.Reset)
	}
}

// RegisterOps binds health, readiness and metrics at the root.
func RegisterOps(r gin.IRouter, metrics *MetricsHandler) {
	r.GET("/health", metrics.Health)
	r.GET("/ready", metrics.Ready)
	r.GET("/metrics", metrics.Prometheus)
}
