package repository

import (
	"ai-lawyer-go/internal/model"

	"gorm.io/gorm"
)

// ChatRepository 接口定义了聊天消息的持久化操作。
type ChatRepository interface {
	Create(msg *model.ChatMessage) error
	FindByCaseAndUser(caseID, userID string) ([]model.ChatMessage, error)
}

// chatRepository 是 ChatRepository 接口的 GORM 实现。
type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository 创建一个新的 ChatRepository 实例。
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

// Create 追加一条聊天消息记录。
func (r *chatRepository) Create(msg *model.ChatMessage) error {
	return r.db.Create(msg).Error
}

// FindByCaseAndUser 按创建时间升序检索某案件下某用户的全部消息。
func (r *chatRepository) FindByCaseAndUser(caseID, userID string) ([]model.ChatMessage, error) {
	var msgs []model.ChatMessage
	err := r.db.Where("case_id = ? AND user_id = ?", caseID, userID).
		Order("created_at ASC").Find(&msgs).Error
	return msgs, err
}
