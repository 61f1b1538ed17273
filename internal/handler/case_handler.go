package handler

import (
	"ai-lawyer-go/internal/service"
	"ai-lawyer-go/pkg/log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CaseHandler 负责处理所有与案件相关的 API 请求。
type CaseHandler struct {
	caseService service.CaseService
}

// NewCaseHandler 创建一个新的 CaseHandler 实例。
func NewCaseHandler(caseService service.CaseService) *CaseHandler {
	return &CaseHandler{caseService: caseService}
}

// List 分页返回当前用户的案件。
func (h *CaseHandler) List(c *gin.Context) {
	profile := currentUser(c)
	cases, err := h.caseService.List(c.Request.Context(), profile.ID, queryInt(c, "page", 1), queryInt(c, "limit", 50))
	if err != nil {
		log.Errorf("List cases failed, owner: %s, error: %v", profile.ID, err)
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cases)
}

// Create 创建一个新案件。
func (h *CaseHandler) Create(c *gin.Context) {
	profile := currentUser(c)

	var input service.CaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	created, err := h.caseService.Create(c.Request.Context(), profile.ID, input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Get 返回案件详情及其全部文档。
func (h *CaseHandler) Get(c *gin.Context) {
	result, err := h.caseService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Update 部分更新案件。
func (h *CaseHandler) Update(c *gin.Context) {
	profile := currentUser(c)

	var input service.CaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	updated, err := h.caseService.Update(c.Request.Context(), profile.ID, c.Param("id"), input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete 删除案件及其关联文档。
func (h *CaseHandler) Delete(c *gin.Context) {
	profile := currentUser(c)

	if err := h.caseService.Delete(c.Request.Context(), profile.ID, c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
