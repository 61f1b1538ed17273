package handler

import (
	"ai-lawyer-go/internal/service"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// SimilarHandler 负责处理相似案例检索的 API 请求。
type SimilarHandler struct {
	similarityService service.SimilarityService
}

// NewSimilarHandler 创建一个新的 SimilarHandler 实例。
func NewSimilarHandler(similarityService service.SimilarityService) *SimilarHandler {
	return &SimilarHandler{similarityService: similarityService}
}

// Find 根据源文档的向量检索相似文档。
func (h *SimilarHandler) Find(c *gin.Context) {
	profile := currentUser(c)

	documentID := c.Query("documentId")
	if documentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "documentId is required"})
		return
	}

	threshold := 0.0
	if v := c.Query("threshold"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 || parsed > 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be a number between 0 and 1"})
			return
		}
		threshold = parsed
	}

	limit := queryInt(c, "limit", 0)

	results, err := h.similarityService.FindSimilarCases(c.Request.Context(), profile.ID, documentID, threshold, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}
