package service

import (
	"ai-lawyer-go/internal/model"
	"ai-lawyer-go/pkg/es"
	"ai-lawyer-go/pkg/llm"
	"ai-lawyer-go/pkg/tasks"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.Profile{}, &model.Case{}, &model.Document{}, &model.ChatMessage{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// recordingStore 记录对象存储的读写，供断言使用。
type recordingStore struct {
	objects map[string][]byte
	puts    []string
	removes []string
	putErr  error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{objects: map[string][]byte{}}
}

func (s *recordingStore) Put(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.objects[objectName] = data
	s.puts = append(s.puts, objectName)
	return nil
}

func (s *recordingStore) Get(ctx context.Context, objectName string) (io.ReadCloser, error) {
	data, ok := s.objects[objectName]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *recordingStore) Remove(ctx context.Context, objectName string) error {
	delete(s.objects, objectName)
	s.removes = append(s.removes, objectName)
	return nil
}

// fakeEmbedder 返回固定向量，可配置为失败。
type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

// fakeLLM 记录收到的消息序列并返回固定回复。
type fakeLLM struct {
	reply string
	err   error
	last  []llm.Message
}

func (f *fakeLLM) ChatCompletion(ctx context.Context, messages []llm.Message, gen *llm.GenerationParams) (string, error) {
	f.last = append([]llm.Message(nil), messages...)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) StreamChatMessages(ctx context.Context, messages []llm.Message, gen *llm.GenerationParams, writer llm.MessageWriter) error {
	f.last = append([]llm.Message(nil), messages...)
	if f.err != nil {
		return f.err
	}
	return writer.WriteMessage(1, []byte(f.reply))
}

// fakeIndex 记录索引操作并返回预设的检索结果。
type fakeIndex struct {
	indexed    []model.IndexedDocument
	deleted    []string
	results    []model.SimilarDocument
	lastFilter es.SearchFilter
}

func (f *fakeIndex) IndexDocument(ctx context.Context, doc model.IndexedDocument) error {
	f.indexed = append(f.indexed, doc)
	return nil
}

func (f *fakeIndex) DeleteDocument(ctx context.Context, documentID string) error {
	f.deleted = append(f.deleted, documentID)
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, vector []float32, filter es.SearchFilter) ([]model.SimilarDocument, error) {
	f.lastFilter = filter
	return f.results, nil
}

// fakeProducer 记录投递的索引任务。
type fakeProducer struct {
	produced []tasks.DocumentIndexTask
}

func (f *fakeProducer) ProduceIndexTask(task tasks.DocumentIndexTask) error {
	f.produced = append(f.produced, task)
	return nil
}

func seedProfile(t *testing.T, db *gorm.DB, id string) *model.Profile {
	t.Helper()
	p := &model.Profile{ID: id, Email: id + "@example.com", Role: "user"}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	return p
}

func seedCase(t *testing.T, db *gorm.DB, id, ownerID string) *model.Case {
	t.Helper()
	c := &model.Case{ID: id, Title: "Case " + id, Status: model.CaseStatusOpen, CreatedBy: ownerID}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed case: %v", err)
	}
	return c
}
