package service

import (
	"ai-lawyer-go/internal/apperr"
	"ai-lawyer-go/internal/model"
	"ai-lawyer-go/internal/repository"
	"ai-lawyer-go/pkg/es"
	"ai-lawyer-go/pkg/log"
	"ai-lawyer-go/pkg/storage"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CaseInput 是创建或更新案件时可提交的字段集合。
type CaseInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	CaseNumber  *string    `json:"caseNumber"`
	CourtName   *string    `json:"courtName"`
	JudgeName   *string    `json:"judgeName"`
	Plaintiff   *string    `json:"plaintiff"`
	Defendant   *string    `json:"defendant"`
	FilingDate  *time.Time `json:"filingDate"`
	Status      *string    `json:"status"`
}

// CaseService 接口定义了所有与案件相关的业务操作。
type CaseService interface {
	List(ctx context.Context, ownerID string, page, limit int) ([]model.Case, error)
	Create(ctx context.Context, ownerID string, input CaseInput) (*model.Case, error)
	Get(ctx context.Context, id string) (*model.CaseWithDocuments, error)
	Update(ctx context.Context, ownerID, id string, input CaseInput) (*model.Case, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// caseService 是 CaseService 接口的实现。
type caseService struct {
	caseRepo repository.CaseRepository
	docRepo  repository.DocumentRepository
	store    storage.ObjectStore
	index    es.Index
}

// NewCaseService 创建一个新的 CaseService 实例。
func NewCaseService(caseRepo repository.CaseRepository, docRepo repository.DocumentRepository, store storage.ObjectStore, index es.Index) CaseService {
	return &caseService{
		caseRepo: caseRepo,
		docRepo:  docRepo,
		store:    store,
		index:    index,
	}
}

// List 分页返回指定用户创建的案件，按创建时间降序。
func (s *caseService) List(ctx context.Context, ownerID string, page, limit int) ([]model.Case, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}
	return s.caseRepo.FindByOwner(ownerID, (page-1)*limit, limit)
}

// Create 创建一个新案件，状态缺省为 open。
func (s *caseService) Create(ctx context.Context, ownerID string, input CaseInput) (*model.Case, error) {
	if input.Title == nil || *input.Title == "" {
		return nil, apperr.New(apperr.KindInvalid, "title is required")
	}

	c := &model.Case{
		ID:        uuid.NewString(),
		Title:     *input.Title,
		Status:    model.CaseStatusOpen,
		CreatedBy: ownerID,
	}
	applyCaseInput(c, input)

	if err := s.caseRepo.Create(c); err != nil {
		return nil, err
	}
	log.Infof("[CaseService] 案件创建成功, id: %s, owner: %s", c.ID, ownerID)
	return c, nil
}

// Get 返回案件详情及其全部文档。
func (s *caseService) Get(ctx context.Context, id string) (*model.CaseWithDocuments, error) {
	c, err := s.caseRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "case not found")
		}
		return nil, err
	}

	docs, err := s.docRepo.FindByCaseID(id)
	if err != nil {
		return nil, err
	}
	return &model.CaseWithDocuments{Case: *c, Documents: docs}, nil
}

// Update 部分更新案件，仅案件所有者可操作。
func (s *caseService) Update(ctx context.Context, ownerID, id string, input CaseInput) (*model.Case, error) {
	c, err := s.caseRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "case not found")
		}
		return nil, err
	}
	if c.CreatedBy != ownerID {
		return nil, apperr.New(apperr.KindUnauthorized, "not the owner of this case")
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, apperr.New(apperr.KindInvalid, "title cannot be empty")
		}
		c.Title = *input.Title
	}
	applyCaseInput(c, input)

	if err := s.caseRepo.Update(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete 删除案件及其关联文档，仅案件所有者可操作。
// 文档的对象存储与搜索索引清理是尽力而为的，失败时仅记录日志。
func (s *caseService) Delete(ctx context.Context, ownerID, id string) error {
	c, err := s.caseRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, "case not found")
		}
		return err
	}
	if c.CreatedBy != ownerID {
		return apperr.New(apperr.KindUnauthorized, "not the owner of this case")
	}

	docs, err := s.docRepo.FindByCaseID(id)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if err := s.store.Remove(ctx, doc.FilePath); err != nil {
			log.Errorf("[CaseService] 删除文档对象失败, path: %s, error: %v", doc.FilePath, err)
		}
		if s.index != nil {
			if err := s.index.DeleteDocument(ctx, doc.ID); err != nil {
				log.Errorf("[CaseService] 从索引删除文档失败, id: %s, error: %v", doc.ID, err)
			}
		}
		if err := s.docRepo.Delete(doc.ID); err != nil {
			return err
		}
	}

	if err := s.caseRepo.Delete(id); err != nil {
		return err
	}
	log.Infof("[CaseService] 案件删除成功, id: %s, 关联文档数: %d", id, len(docs))
	return nil
}

// applyCaseInput 将可选字段合并到案件记录上，标题与状态由调用方单独处理。
func applyCaseInput(c *model.Case, input CaseInput) {
	if input.Description != nil {
		c.Description = *input.Description
	}
	if input.CaseNumber != nil {
		c.CaseNumber = *input.CaseNumber
	}
	if input.CourtName != nil {
		c.CourtName = *input.CourtName
	}
	if input.JudgeName != nil {
		c.JudgeName = *input.JudgeName
	}
	if input.Plaintiff != nil {
		c.Plaintiff = *input.Plaintiff
	}
	if input.Defendant != nil {
		c.Defendant = *input.Defendant
	}
	if input.FilingDate != nil {
		c.FilingDate = input.FilingDate
	}
	if input.Status != nil && *input.Status != "" {
		c.Status = *input.Status
	}
}
