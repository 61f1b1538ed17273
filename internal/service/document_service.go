package service

import (
	"ai-lawyer-go/internal/apperr"
	"ai-lawyer-go/internal/model"
	"ai-lawyer-go/internal/repository"
	"ai-lawyer-go/pkg/embedding"
	"ai-lawyer-go/pkg/es"
	"ai-lawyer-go/pkg/extract"
	"ai-lawyer-go/pkg/kafka"
	"ai-lawyer-go/pkg/llm"
	"ai-lawyer-go/pkg/log"
	"ai-lawyer-go/pkg/storage"
	"ai-lawyer-go/pkg/tasks"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 允许上传的 MIME 类型。
const (
	MIMEPDF  = "application/pdf"
	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

const defaultMaxFileSize = 10 << 20 // 10MB

const summarySystemPrompt = "You are a legal document analysis assistant. Provide a concise summary of the legal document, highlighting key points, parties involved, and legal principles."

// IngestOptions 控制文档处理管线的取材长度与大小上限。
// 向量化输入的截断由 embedding 客户端自身负责。
type IngestOptions struct {
	MaxFileSize       int64
	SummaryInputChars int
	Temperature       float64
}

// DocumentService 接口定义了所有与文档相关的业务操作。
type DocumentService interface {
	Ingest(ctx context.Context, ownerID string, caseID *string, fileName, contentType string, size int64, r io.Reader) (*model.Document, error)
	List(ctx context.Context, ownerID string, caseID *string) ([]model.Document, error)
	Download(ctx context.Context, ownerID, id string) (*model.Document, io.ReadCloser, error)
	Delete(ctx context.Context, ownerID, id string) error
	LegacyUpload(ctx context.Context, ownerID string, caseID *string, fileName, contentType string, size int64, r io.Reader) (*model.Document, error)
}

// documentService 是 DocumentService 接口的实现。
type documentService struct {
	docRepo         repository.DocumentRepository
	caseRepo        repository.CaseRepository
	store           storage.ObjectStore
	embeddingClient embedding.Client
	llmClient       llm.Client
	producer        kafka.Producer
	index           es.Index
	opts            IngestOptions
}

// NewDocumentService 创建一个新的 DocumentService 实例。
func NewDocumentService(
	docRepo repository.DocumentRepository,
	caseRepo repository.CaseRepository,
	store storage.ObjectStore,
	embeddingClient embedding.Client,
	llmClient llm.Client,
	producer kafka.Producer,
	index es.Index,
	opts IngestOptions,
) DocumentService {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = defaultMaxFileSize
	}
	if opts.SummaryInputChars <= 0 {
		opts.SummaryInputChars = 2000
	}
	if opts.Temperature <= 0 {
		opts.Temperature = 0.3
	}
	return &documentService{
		docRepo:         docRepo,
		caseRepo:        caseRepo,
		store:           store,
		embeddingClient: embeddingClient,
		llmClient:       llmClient,
		producer:        producer,
		index:           index,
		opts:            opts,
	}
}

// validateUpload 在写入任何数据前校验文件类型与大小。
func (s *documentService) validateUpload(contentType string, size int64) error {
	if contentType != MIMEPDF && contentType != MIMEDocx {
		return apperr.New(apperr.KindInvalid, "unsupported file type, only PDF and DOCX are allowed")
	}
	if size > s.opts.MaxFileSize {
		return apperr.New(apperr.KindInvalid, "file exceeds maximum allowed size")
	}
	return nil
}

// checkCaseOwnership 确认案件存在且属于当前用户。
// 案件不存在与不属于当前用户统一返回 not found，避免向非所有者暴露案件 ID 是否存在。
func (s *documentService) checkCaseOwnership(caseID, ownerID string) error {
	c, err := s.caseRepo.FindByID(caseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, "case not found or access denied")
		}
		return err
	}
	if c.CreatedBy != ownerID {
		return apperr.New(apperr.KindNotFound, "case not found or access denied")
	}
	return nil
}

// Ingest 执行完整的文档处理管线：
// 校验 -> 上传对象存储 -> 提取正文 -> 生成摘要 -> 向量化 -> 持久化 -> 投递索引任务。
// 向量化失败会回滚已上传的对象并使整个操作失败。
func (s *documentService) Ingest(ctx context.Context, ownerID string, caseID *string, fileName, contentType string, size int64, r io.Reader) (*model.Document, error) {
	log.Infof("[DocumentService] 开始处理文档, fileName: %s, owner: %s", fileName, ownerID)

	// 1. 前置校验，任何写入发生之前完成
	if err := s.validateUpload(contentType, size); err != nil {
		return nil, err
	}
	if caseID != nil {
		if err := s.checkCaseOwnership(*caseID, ownerID); err != nil {
			return nil, err
		}
	}

	data, err := io.ReadAll(io.LimitReader(r, s.opts.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.opts.MaxFileSize {
		return nil, apperr.New(apperr.KindInvalid, "file exceeds maximum allowed size")
	}

	// 2. 上传到对象存储，对象名为 {ownerID}/{uuid}{ext}
	objectName := ownerID + "/" + uuid.NewString() + strings.ToLower(filepath.Ext(fileName))
	log.Infof("[DocumentService] 步骤1: 上传对象, objectName: %s", objectName)
	if err := s.store.Put(ctx, objectName, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "failed to store file", err)
	}

	// 3. 提取正文
	log.Info("[DocumentService] 步骤2: 提取正文")
	text, err := extract.Text(data, fileName)
	if err != nil {
		s.removeObject(ctx, objectName)
		return nil, apperr.Wrap(apperr.KindInvalid, "failed to extract text from file", err)
	}

	// 4. 生成摘要，失败时退化为正文截断
	log.Info("[DocumentService] 步骤3: 生成文档摘要")
	summary := s.summarize(ctx, text)

	// 5. 向量化，失败则回滚对象并终止
	log.Info("[DocumentService] 步骤4: 生成文档向量")
	vector, err := s.embeddingClient.CreateEmbedding(ctx, text)
	if err != nil {
		log.Errorf("[DocumentService] 向量化失败, fileName: %s, error: %v", fileName, err)
		s.removeObject(ctx, objectName)
		return nil, apperr.Wrap(apperr.KindUnavailable, "failed to generate embedding for the document", err)
	}

	// 6. 持久化文档记录
	doc := &model.Document{
		ID:          uuid.NewString(),
		CaseID:      caseID,
		FileName:    fileName,
		FilePath:    objectName,
		FileType:    contentType,
		FileSize:    int64(len(data)),
		ContentText: text,
		Summary:     summary,
		Embedding:   vector,
		Status:      "processed",
		CreatedBy:   ownerID,
		Metadata:    buildMetadata(text),
	}
	if err := s.docRepo.Create(doc); err != nil {
		s.removeObject(ctx, objectName)
		return nil, err
	}

	// 7. 投递索引任务，失败不影响本次请求
	if s.producer != nil {
		task := tasks.DocumentIndexTask{
			DocumentID: doc.ID,
			FileName:   doc.FileName,
			CreatedBy:  doc.CreatedBy,
		}
		if err := s.producer.ProduceIndexTask(task); err != nil {
			log.Errorf("[DocumentService] 投递索引任务失败, id: %s, error: %v", doc.ID, err)
		}
	}

	log.Infof("[DocumentService] 文档处理完成, id: %s", doc.ID)
	return doc, nil
}

// List 返回指定用户的文档列表，可选按案件过滤。
func (s *documentService) List(ctx context.Context, ownerID string, caseID *string) ([]model.Document, error) {
	return s.docRepo.FindByOwner(ownerID, caseID)
}

// Download 返回文档记录及其原始内容流，仅文档所有者可访问。
func (s *documentService) Download(ctx context.Context, ownerID, id string) (*model.Document, io.ReadCloser, error) {
	doc, err := s.docRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.New(apperr.KindNotFound, "document not found")
		}
		return nil, nil, err
	}
	if doc.CreatedBy != ownerID {
		return nil, nil, apperr.New(apperr.KindUnauthorized, "not the owner of this document")
	}

	reader, err := s.store.Get(ctx, doc.FilePath)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindUnavailable, "failed to fetch file from storage", err)
	}
	return doc, reader, nil
}

// Delete 删除文档记录，对象存储与搜索索引的清理是尽力而为的。
func (s *documentService) Delete(ctx context.Context, ownerID, id string) error {
	doc, err := s.docRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, "document not found")
		}
		return err
	}
	if doc.CreatedBy != ownerID {
		return apperr.New(apperr.KindUnauthorized, "not the owner of this document")
	}

	if err := s.store.Remove(ctx, doc.FilePath); err != nil {
		log.Errorf("[DocumentService] 删除文档对象失败, path: %s, error: %v", doc.FilePath, err)
	}
	if s.index != nil {
		if err := s.index.DeleteDocument(ctx, doc.ID); err != nil {
			log.Errorf("[DocumentService] 从索引删除文档失败, id: %s, error: %v", doc.ID, err)
		}
	}
	return s.docRepo.Delete(id)
}

// LegacyUpload 是旧版上传入口：只存储文件与记录，不做正文提取、摘要和向量化。
// 数据库写入失败时会删除已上传的对象作为补偿。
func (s *documentService) LegacyUpload(ctx context.Context, ownerID string, caseID *string, fileName, contentType string, size int64, r io.Reader) (*model.Document, error) {
	if err := s.validateUpload(contentType, size); err != nil {
		return nil, err
	}
	if caseID != nil {
		if err := s.checkCaseOwnership(*caseID, ownerID); err != nil {
			return nil, err
		}
	}

	data, err := io.ReadAll(io.LimitReader(r, s.opts.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.opts.MaxFileSize {
		return nil, apperr.New(apperr.KindInvalid, "file exceeds maximum allowed size")
	}

	objectName := ownerID + "/" + uuid.NewString() + strings.ToLower(filepath.Ext(fileName))
	if err := s.store.Put(ctx, objectName, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "failed to store file", err)
	}

	doc := &model.Document{
		ID:          uuid.NewString(),
		CaseID:      caseID,
		FileName:    fileName,
		FilePath:    objectName,
		FileType:    contentType,
		FileSize:    int64(len(data)),
		ContentText: "Text extraction pending",
		Status:      "processed",
		CreatedBy:   ownerID,
	}
	if err := s.docRepo.Create(doc); err != nil {
		// 补偿：回滚已上传的对象，避免产生孤儿文件
		s.removeObject(ctx, objectName)
		return nil, err
	}
	return doc, nil
}

// summarize 调用 LLM 生成 3-5 条要点式摘要，失败时退化为正文截断。
func (s *documentService) summarize(ctx context.Context, text string) string {
	temperature := s.opts.Temperature
	messages := []llm.Message{
		{Role: "system", Content: summarySystemPrompt},
		{Role: "user", Content: "Summarize this legal document in 3-5 bullet points:\n\n" + truncate(text, s.opts.SummaryInputChars)},
	}
	summary, err := s.llmClient.ChatCompletion(ctx, messages, &llm.GenerationParams{Temperature: &temperature})
	if err != nil {
		log.Errorf("[DocumentService] 生成摘要失败, 使用正文截断作为兜底: %v", err)
		fallback := truncate(text, 200)
		if len(text) > 200 {
			fallback += "..."
		}
		return fallback
	}
	return summary
}

// removeObject 回滚对象存储中的文件，失败时仅记录日志。
func (s *documentService) removeObject(ctx context.Context, objectName string) {
	if err := s.store.Remove(ctx, objectName); err != nil {
		log.Errorf("[DocumentService] 回滚对象失败, objectName: %s, error: %v", objectName, err)
	}
}

// buildMetadata 统计正文的页数、词数和字符数。
// 页数按换页符计数，因此依赖提取阶段保留 \f。
func buildMetadata(text string) model.DocumentMetadata {
	return model.DocumentMetadata{
		Pages:      len(strings.Split(text, "\f")),
		Words:      len(strings.Fields(text)),
		Characters: len(text),
	}
}

// truncate 按字节上限截断，但不允许落在多字节字符中间。
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
