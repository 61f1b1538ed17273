// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// 案件状态的常见取值。status 是开放的字符串枚举，不做数据库层约束。
const (
	CaseStatusOpen    = "open"
	CaseStatusClosed  = "closed"
	CaseStatusPending = "pending"
)

// Case 对应于数据库中的 'cases' 表。
// 案件归其创建者独占，所有修改与删除都要求 created_by 与调用者一致。
type Case struct {
	ID          string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	CaseNumber  string     `gorm:"type:varchar(100)" json:"caseNumber"`
	CourtName   string     `gorm:"type:varchar(255)" json:"courtName"`
	JudgeName   string     `gorm:"type:varchar(255)" json:"judgeName"`
	Plaintiff   string     `gorm:"type:varchar(255)" json:"plaintiff"`
	Defendant   string     `gorm:"type:varchar(255)" json:"defendant"`
	FilingDate  *time.Time `gorm:"type:date" json:"filingDate"`
	Status      string     `gorm:"type:varchar(20);not null" json:"status"`
	CreatedBy   string     `gorm:"type:varchar(36);not null;index" json:"createdBy"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Case) TableName() string {
	return "cases"
}

// CaseWithDocuments 是 GET /cases/{id} 的响应结构：案件本体加其全部文档。
type CaseWithDocuments struct {
	Case
	Documents []Document `json:"documents"`
}
