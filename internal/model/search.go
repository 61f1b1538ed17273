package model

// IndexedDocument 是写入 Elasticsearch 索引的文档结构。
type IndexedDocument struct {
	DocumentID string    `json:"document_id"`
	CaseID     string    `json:"case_id,omitempty"`
	FileName   string    `json:"file_name"`
	Summary    string    `json:"summary"`
	Vector     []float32 `json:"vector"`
	CreatedBy  string    `json:"created_by"`
}

// SimilarDocument 是相似文档检索接口返回的条目。
type SimilarDocument struct {
	DocumentID string  `json:"documentId"`
	CaseID     string  `json:"caseId,omitempty"`
	FileName   string  `json:"fileName"`
	Summary    string  `json:"summary"`
	Score      float64 `json:"similarity"`
}
