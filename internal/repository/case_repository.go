package repository

import (
	"ai-lawyer-go/internal/model"

	"gorm.io/gorm"
)

// CaseRepository 接口定义了案件数据的持久化操作。
type CaseRepository interface {
	Create(c *model.Case) error
	FindByID(id string) (*model.Case, error)
	FindByOwner(ownerID string, offset, limit int) ([]model.Case, error)
	Update(c *model.Case) error
	Delete(id string) error
}

// caseRepository 是 CaseRepository 接口的 GORM 实现。
type caseRepository struct {
	db *gorm.DB
}

// NewCaseRepository 创建一个新的 CaseRepository 实例。
func NewCaseRepository(db *gorm.DB) CaseRepository {
	return &caseRepository{db: db}
}

// Create 在数据库中创建一条新的案件记录。
func (r *caseRepository) Create(c *model.Case) error {
	return r.db.Create(c).Error
}

// FindByID 根据 ID 从数据库中查找案件。
func (r *caseRepository) FindByID(id string) (*model.Case, error) {
	var c model.Case
	err := r.db.Where("id = ?", id).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByOwner 分页检索指定用户创建的案件，按创建时间降序。
func (r *caseRepository) FindByOwner(ownerID string, offset, limit int) ([]model.Case, error) {
	var cases []model.Case
	err := r.db.Where("created_by = ?", ownerID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&cases).Error
	return cases, err
}

// Update 更新数据库中一条已存在的案件记录。
func (r *caseRepository) Update(c *model.Case) error {
	return r.db.Save(c).Error
}

// Delete 从数据库中删除一条案件记录。
func (r *caseRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&model.Case{}).Error
}
