package pipeline

import (
	"ai-lawyer-go/internal/model"
	"ai-lawyer-go/internal/repository"
	"ai-lawyer-go/pkg/es"
	"ai-lawyer-go/pkg/tasks"
	"context"
	"fmt"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type recordingIndex struct {
	indexed []model.IndexedDocument
	deleted []string
}

func (r *recordingIndex) IndexDocument(ctx context.Context, doc model.IndexedDocument) error {
	r.indexed = append(r.indexed, doc)
	return nil
}

func (r *recordingIndex) DeleteDocument(ctx context.Context, documentID string) error {
	r.deleted = append(r.deleted, documentID)
	return nil
}

func (r *recordingIndex) Search(ctx context.Context, vector []float32, filter es.SearchFilter) ([]model.SimilarDocument, error) {
	return nil, nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.Document{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestProcess_IndexesDocument(t *testing.T) {
	db := openTestDB(t)
	docRepo := repository.NewDocumentRepository(db)
	index := &recordingIndex{}
	p := NewProcessor(docRepo, index)

	caseID := "case-1"
	doc := &model.Document{
		ID:        "doc-1",
		CaseID:    &caseID,
		FileName:  "brief.pdf",
		Summary:   "- key point",
		Embedding: model.Vector{0.1, 0.2},
		CreatedBy: "user-1",
	}
	if err := docRepo.Create(doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}

	err := p.Process(context.Background(), tasks.DocumentIndexTask{DocumentID: "doc-1", FileName: "brief.pdf", CreatedBy: "user-1"})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(index.indexed) != 1 {
		t.Fatalf("expected one indexed document, got %d", len(index.indexed))
	}
	got := index.indexed[0]
	if got.DocumentID != "doc-1" || got.CaseID != "case-1" || got.CreatedBy != "user-1" {
		t.Fatalf("unexpected indexed document: %+v", got)
	}
	if len(got.Vector) != 2 {
		t.Fatalf("expected vector to be carried into the index, got %v", got.Vector)
	}
}

func TestProcess_SkipsMissingDocument(t *testing.T) {
	db := openTestDB(t)
	index := &recordingIndex{}
	p := NewProcessor(repository.NewDocumentRepository(db), index)

	err := p.Process(context.Background(), tasks.DocumentIndexTask{DocumentID: "ghost"})
	if err != nil {
		t.Fatalf("expected deleted document to be treated as done, got %v", err)
	}
	if len(index.indexed) != 0 {
		t.Fatalf("expected nothing indexed")
	}
}

func TestProcess_SkipsDocumentWithoutEmbedding(t *testing.T) {
	db := openTestDB(t)
	docRepo := repository.NewDocumentRepository(db)
	index := &recordingIndex{}
	p := NewProcessor(docRepo, index)

	doc := &model.Document{ID: "doc-1", FileName: "legacy.pdf", CreatedBy: "user-1"}
	if err := docRepo.Create(doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}

	if err := p.Process(context.Background(), tasks.DocumentIndexTask{DocumentID: "doc-1"}); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(index.indexed) != 0 {
		t.Fatalf("expected document without embedding to be skipped")
	}
}
