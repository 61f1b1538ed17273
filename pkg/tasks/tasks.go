// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// DocumentIndexTask represents an indexing job for a persisted document.
type DocumentIndexTask struct {
	DocumentID string `json:"document_id"`
	FileName   string `json:"file_name"`
	CreatedBy  string `json:"created_by"`
}
