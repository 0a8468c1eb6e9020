package controller

import (
	"studysync_backend/internal/service"
	"studysync_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type KnowledgeGraphController struct {
	GraphService *service.KnowledgeGraphService
}

func NewKnowledgeGraphController(graphService *service.KnowledgeGraphService) *KnowledgeGraphController {
	return &KnowledgeGraphController{GraphService: graphService}
}

// GetGraph godoc
// @Summary 知识图谱
// @Description 资料、卡片集、测验之间的生成关系
// @Tags 知识图谱
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} api.KnowledgeGraph
// @Router /knowledge-graph [get]
func (c *KnowledgeGraphController) GetGraph(ctx *gin.Context) {
	graph, err := c.GraphService.Build(currentUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, graph)
}
