package handler

import (
	"ai-lawyer-go/internal/service"
	"ai-lawyer-go/pkg/log"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DocumentHandler 负责处理所有与文档相关的 API 请求。
type DocumentHandler struct {
	docService service.DocumentService
}

// NewDocumentHandler 创建一个新的 DocumentHandler 实例。
func NewDocumentHandler(docService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{docService: docService}
}

// caseIDFromForm 从表单中取出可选的 caseId 字段。
func caseIDFromForm(c *gin.Context) *string {
	caseID := c.PostForm("caseId")
	if caseID == "" {
		return nil
	}
	return &caseID
}

// Upload 处理完整的文档上传与处理请求。
func (h *DocumentHandler) Upload(c *gin.Context) {
	profile := currentUser(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return
	}
	defer file.Close()

	doc, err := h.docService.Ingest(
		c.Request.Context(),
		profile.ID,
		caseIDFromForm(c),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		file,
	)
	if err != nil {
		log.Errorf("Upload document failed, owner: %s, file: %s, error: %v", profile.ID, fileHeader.Filename, err)
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// List 返回当前用户的文档列表，可选按 caseId 过滤。
func (h *DocumentHandler) List(c *gin.Context) {
	profile := currentUser(c)

	var caseID *string
	if v := c.Query("caseId"); v != "" {
		caseID = &v
	}

	docs, err := h.docService.List(c.Request.Context(), profile.ID, caseID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// Download 以附件形式返回文档的原始内容。
func (h *DocumentHandler) Download(c *gin.Context) {
	profile := currentUser(c)

	doc, reader, err := h.docService.Download(c.Request.Context(), profile.ID, c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	c.Header("Content-Type", doc.FileType)
	if doc.FileSize > 0 {
		c.Header("Content-Length", fmt.Sprintf("%d", doc.FileSize))
	}
	if _, err := io.Copy(c.Writer, reader); err != nil {
		log.Errorf("Download document failed mid-stream, id: %s, error: %v", doc.ID, err)
	}
}

// Delete 删除文档。
func (h *DocumentHandler) Delete(c *gin.Context) {
	profile := currentUser(c)

	if err := h.docService.Delete(c.Request.Context(), profile.ID, c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// LegacyUpload 是旧版上传入口，仅存储文件与记录。
func (h *DocumentHandler) LegacyUpload(c *gin.Context) {
	profile := currentUser(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return
	}
	defer file.Close()

	doc, err := h.docService.LegacyUpload(
		c.Request.Context(),
		profile.ID,
		caseIDFromForm(c),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		file,
	)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "document": doc})
}
