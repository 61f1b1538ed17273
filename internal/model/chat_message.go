// Package model 定义了与数据库表对应的 Go 结构体。
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// 消息角色取值。
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// JSONMap 是一个以 JSON 形式持久化的通用键值映射。
type JSONMap map[string]interface{}

// Value 实现 driver.Valuer。
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan 实现 sql.Scanner。
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	switch data := value.(type) {
	case []byte:
		return json.Unmarshal(data, m)
	case string:
		return json.Unmarshal([]byte(data), m)
	default:
		return fmt.Errorf("无法将 %T 解析为 JSONMap", value)
	}
}

// ChatMessage 对应于数据库中的 'chat_messages' 表。
// 表是只追加的，created_at 升序即会话顺序。
type ChatMessage struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CaseID     *string   `gorm:"type:varchar(36);index" json:"caseId"`
	DocumentID *string   `gorm:"type:varchar(36)" json:"documentId"`
	UserID     string    `gorm:"type:varchar(36);not null;index" json:"userId"`
	Role       string    `gorm:"type:varchar(20);not null" json:"role"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Metadata   JSONMap   `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (ChatMessage) TableName() string {
	return "chat_messages"
}
