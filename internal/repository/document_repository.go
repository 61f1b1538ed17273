package repository

import (
	"ai-lawyer-go/internal/model"

	"gorm.io/gorm"
)

// DocumentRepository 接口定义了文档数据的持久化操作。
type DocumentRepository interface {
	Create(doc *model.Document) error
	FindByID(id string) (*model.Document, error)
	FindByOwner(ownerID string, caseID *string) ([]model.Document, error)
	FindByCaseID(caseID string) ([]model.Document, error)
	Delete(id string) error
}

// documentRepository 是 DocumentRepository 接口的 GORM 实现。
type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建一个新的 DocumentRepository 实例。
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create 在数据库中创建一条新的文档记录。
func (r *documentRepository) Create(doc *model.Document) error {
	return r.db.Create(doc).Error
}

// FindByID 根据 ID 从数据库中查找文档。
func (r *documentRepository) FindByID(id string) (*model.Document, error) {
	var doc model.Document
	err := r.db.Where("id = ?", id).First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindByOwner 检索指定用户的文档，可选按案件过滤，按创建时间降序。
func (r *documentRepository) FindByOwner(ownerID string, caseID *string) ([]model.Document, error) {
	var docs []model.Document
	db := r.db.Where("created_by = ?", ownerID)
	if caseID != nil {
		db = db.Where("case_id = ?", *caseID)
	}
	err := db.Order("created_at DESC").Find(&docs).Error
	return docs, err
}

// FindByCaseID 检索属于指定案件的所有文档。
func (r *documentRepository) FindByCaseID(caseID string) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.Where("case_id = ?", caseID).Order("created_at DESC").Find(&docs).Error
	return docs, err
}

// Delete 从数据库中删除一条文档记录。
func (r *documentRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&model.Document{}).Error
}
