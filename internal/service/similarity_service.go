package service

import (
	"ai-lawyer-go/internal/apperr"
	"ai-lawyer-go/internal/model"
	"ai-lawyer-go/internal/repository"
	"ai-lawyer-go/pkg/es"
	"ai-lawyer-go/pkg/log"
	"context"
	"errors"

	"gorm.io/gorm"
)

// 相似案例检索的默认参数。
const (
	DefaultSimilarityThreshold = 0.7
	DefaultSimilarityLimit     = 5
)

// SimilarityService 接口定义了相似案例检索操作。
type SimilarityService interface {
	FindSimilarCases(ctx context.Context, ownerID, documentID string, threshold float64, limit int) ([]model.SimilarDocument, error)
}

// similarityService 是 SimilarityService 接口的实现。
type similarityService struct {
	docRepo repository.DocumentRepository
	index   es.Index
}

// NewSimilarityService 创建一个新的 SimilarityService 实例。
func NewSimilarityService(docRepo repository.DocumentRepository, index es.Index) SimilarityService {
	return &similarityService{docRepo: docRepo, index: index}
}

// FindSimilarCases 用源文档的存量向量检索相似文档，排除源文档自身。
func (s *similarityService) FindSimilarCases(ctx context.Context, ownerID, documentID string, threshold float64, limit int) ([]model.SimilarDocument, error) {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	if limit <= 0 {
		limit = DefaultSimilarityLimit
	}

	doc, err := s.docRepo.FindByID(documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "document not found")
		}
		return nil, err
	}
	if doc.CreatedBy != ownerID {
		return nil, apperr.New(apperr.KindUnauthorized, "not the owner of this document")
	}
	if len(doc.Embedding) == 0 {
		return nil, apperr.New(apperr.KindNotFound, "document has no embedding")
	}

	log.Infof("[SimilarityService] 开始检索相似文档, documentID: %s, threshold: %.2f, limit: %d", documentID, threshold, limit)
	results, err := s.index.Search(ctx, doc.Embedding, es.SearchFilter{
		OwnerID:   ownerID,
		Threshold: threshold,
		Limit:     limit,
		ExcludeID: documentID,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "failed to search similar documents", err)
	}
	log.Infof("[SimilarityService] 检索完成, 命中 %d 条", len(results))
	return results, nil
}
