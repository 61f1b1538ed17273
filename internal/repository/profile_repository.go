// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"ai-lawyer-go/internal/model"

	"gorm.io/gorm"
)

// ProfileRepository 接口定义了用户资料数据的持久化操作。
type ProfileRepository interface {
	Create(profile *model.Profile) error
	FindByEmail(email string) (*model.Profile, error)
	FindByID(id string) (*model.Profile, error)
	Update(profile *model.Profile) error
	FindWithPagination(offset, limit int) ([]model.Profile, int64, error)
}

// profileRepository 是 ProfileRepository 接口的 GORM 实现。
type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository 创建一个新的 ProfileRepository 实例。
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// Create 在数据库中创建一条新的用户资料记录。
func (r *profileRepository) Create(profile *model.Profile) error {
	return r.db.Create(profile).Error
}

// FindByEmail 根据邮箱从数据库中查找用户资料。
func (r *profileRepository) FindByEmail(email string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.Where("email = ?", email).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindByID 根据 ID 从数据库中查找用户资料。
func (r *profileRepository) FindByID(id string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.Where("id = ?", id).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Update 更新数据库中一条已存在的用户资料记录。
func (r *profileRepository) Update(profile *model.Profile) error {
	return r.db.Save(profile).Error
}

// FindWithPagination 从数据库中分页检索用户资料记录。
// 它返回资料列表、总记录数和可能发生的错误。
func (r *profileRepository) FindWithPagination(offset, limit int) ([]model.Profile, int64, error) {
	var profiles []model.Profile
	var total int64

	db := r.db.Model(&model.Profile{})

	// 首先计算总记录数
	err := db.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	// 然后根据偏移量和限制获取当前页的数据
	err = db.Offset(offset).Limit(limit).Find(&profiles).Error
	if err != nil {
		return nil, 0, err
	}

	return profiles, total, nil
}
