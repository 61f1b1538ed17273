// Package model 定义了与数据库表对应的 Go 结构体。
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Vector 是文档内容的语义向量，以 JSON 数组的形式持久化在一个 JSON 列中。
// 向量在摄取时生成一次，之后视为不可变的派生数据，从不重算。
type Vector []float32

// Value 实现 driver.Valuer，序列化为 JSON 存储。
func (v Vector) Value() (driver.Value, error) {
	if len(v) == 0 {
		return nil, nil
	}
	return json.Marshal(v)
}

// Scan 实现 sql.Scanner，从 JSON 反序列化。
func (v *Vector) Scan(value interface{}) error {
	if value == nil {
		*v = nil
		return nil
	}
	switch data := value.(type) {
	case []byte:
		return json.Unmarshal(data, v)
	case string:
		return json.Unmarshal([]byte(data), v)
	default:
		return fmt.Errorf("无法将 %T 解析为 Vector", value)
	}
}

// DocumentMetadata 记录提取文本的页数、词数与字符数。
type DocumentMetadata struct {
	Pages      int `json:"pages"`
	Words      int `json:"words"`
	Characters int `json:"characters"`
}

// Value 实现 driver.Valuer。
func (m DocumentMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan 实现 sql.Scanner。
func (m *DocumentMetadata) Scan(value interface{}) error {
	if value == nil {
		*m = DocumentMetadata{}
		return nil
	}
	switch data := value.(type) {
	case []byte:
		return json.Unmarshal(data, m)
	case string:
		return json.Unmarshal([]byte(data), m)
	default:
		return fmt.Errorf("无法将 %T 解析为 DocumentMetadata", value)
	}
}

// Document 对应于数据库中的 'documents' 表。
// 文档可以不挂在任何案件下（case_id 为 NULL）。
type Document struct {
	ID          string           `gorm:"type:varchar(36);primaryKey" json:"id"`
	CaseID      *string          `gorm:"type:varchar(36);index" json:"caseId"`
	FileName    string           `gorm:"type:varchar(255);not null" json:"fileName"`
	FilePath    string           `gorm:"type:varchar(255);not null" json:"filePath"`
	FileType    string           `gorm:"type:varchar(100);not null" json:"fileType"`
	FileSize    int64            `gorm:"not null" json:"fileSize"`
	ContentText string           `gorm:"type:longtext" json:"contentText"`
	Summary     string           `gorm:"type:text" json:"summary"`
	Embedding   Vector           `gorm:"type:json" json:"-"`
	Status      string           `gorm:"type:varchar(20)" json:"status"`
	CreatedBy   string           `gorm:"type:varchar(36);not null;index" json:"createdBy"`
	Metadata    DocumentMetadata `gorm:"type:json" json:"metadata"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Document) TableName() string {
	return "documents"
}
