package service

import (
	"ai-lawyer-go/internal/apperr"
	"ai-lawyer-go/internal/model"
	"ai-lawyer-go/internal/repository"
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"gorm.io/gorm"
)

// makeDocx 在内存中构造一个最小的 DOCX 文件。
func makeDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	body := `<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
	for _, p := range paragraphs {
		body += `<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`
	}
	body += `</w:body></w:document>`
	if _, err := w.Write([]byte(body)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

type docServiceDeps struct {
	svc      DocumentService
	store    *recordingStore
	embedder *fakeEmbedder
	llm      *fakeLLM
	producer *fakeProducer
	index    *fakeIndex
	docRepo  repository.DocumentRepository
}

func newDocService(t *testing.T) (*docServiceDeps, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	deps := &docServiceDeps{
		store:    newRecordingStore(),
		embedder: &fakeEmbedder{vector: []float32{0.1, 0.2, 0.3}},
		llm:      &fakeLLM{reply: "- point one\n- point two\n- point three"},
		producer: &fakeProducer{},
		index:    &fakeIndex{},
		docRepo:  repository.NewDocumentRepository(db),
	}
	deps.svc = NewDocumentService(
		deps.docRepo,
		repository.NewCaseRepository(db),
		deps.store,
		deps.embedder,
		deps.llm,
		deps.producer,
		deps.index,
		IngestOptions{},
	)
	return deps, db
}

func TestIngest_RejectsUnsupportedType(t *testing.T) {
	deps, _ := newDocService(t)

	_, err := deps.svc.Ingest(context.Background(), "user-1", nil, "notes.txt", "text/plain", 10, bytes.NewReader([]byte("plain text")))
	if !apperr.Is(err, apperr.KindInvalid) {
		t.Fatalf("expected invalid error, got %v", err)
	}
	// 类型校验失败时不应有任何写入
	if len(deps.store.puts) != 0 {
		t.Fatalf("expected no object writes, got %v", deps.store.puts)
	}
}

func TestIngest_RejectsOversizedFile(t *testing.T) {
	deps, _ := newDocService(t)

	_, err := deps.svc.Ingest(context.Background(), "user-1", nil, "big.pdf", MIMEPDF, 11<<20, bytes.NewReader(nil))
	if !apperr.Is(err, apperr.KindInvalid) {
		t.Fatalf("expected invalid error, got %v", err)
	}
	if len(deps.store.puts) != 0 {
		t.Fatalf("expected no object writes, got %v", deps.store.puts)
	}
}

func TestIngest_ProcessesDocx(t *testing.T) {
	deps, db := newDocService(t)
	seedCase(t, db, "case-1", "user-1")

	data := makeDocx(t, "The plaintiff seeks damages.", "The defendant denies liability.")
	caseID := "case-1"
	doc, err := deps.svc.Ingest(context.Background(), "user-1", &caseID, "complaint.docx", MIMEDocx, int64(len(data)), bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if doc.Summary != deps.llm.reply {
		t.Fatalf("expected summary from model, got %q", doc.Summary)
	}
	if len(doc.Embedding) != 3 {
		t.Fatalf("expected embedding to be persisted, got %v", doc.Embedding)
	}
	if doc.Metadata.Words == 0 || doc.Metadata.Characters == 0 {
		t.Fatalf("expected metadata counts, got %+v", doc.Metadata)
	}
	if doc.Status != "processed" {
		t.Fatalf("expected status processed, got %q", doc.Status)
	}

	// 对象存储路径以所有者 ID 为前缀
	if len(deps.store.puts) != 1 {
		t.Fatalf("expected one object write, got %v", deps.store.puts)
	}
	if got := deps.store.puts[0]; got[:7] != "user-1/" {
		t.Fatalf("expected object name prefixed with owner, got %q", got)
	}

	// 索引任务已投递
	if len(deps.producer.produced) != 1 || deps.producer.produced[0].DocumentID != doc.ID {
		t.Fatalf("expected index task for %s, got %v", doc.ID, deps.producer.produced)
	}

	// 行已持久化
	stored, err := deps.docRepo.FindByID(doc.ID)
	if err != nil {
		t.Fatalf("find stored document: %v", err)
	}
	if stored.ContentText == "" {
		t.Fatalf("expected extracted text to be persisted")
	}
}

func TestIngest_EmbeddingFailureRollsBackObject(t *testing.T) {
	deps, _ := newDocService(t)
	deps.embedder.err = errors.New("model offline")

	data := makeDocx(t, "Some legal text.")
	_, err := deps.svc.Ingest(context.Background(), "user-1", nil, "brief.docx", MIMEDocx, int64(len(data)), bytes.NewReader(data))
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}

	// 已上传的对象必须被回滚
	if len(deps.store.puts) != 1 || len(deps.store.removes) != 1 {
		t.Fatalf("expected one put and one compensating remove, got puts=%v removes=%v", deps.store.puts, deps.store.removes)
	}

	// 不应留下任何文档记录
	docs, err := deps.docRepo.FindByOwner("user-1", nil)
	if err != nil {
		t.Fatalf("list documents: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no document rows, got %d", len(docs))
	}
}

func TestIngest_ForeignCaseReportedAsNotFound(t *testing.T) {
	deps, db := newDocService(t)
	seedCase(t, db, "case-1", "owner-1")

	data := makeDocx(t, "Text.")
	caseID := "case-1"
	_, err := deps.svc.Ingest(context.Background(), "intruder", &caseID, "doc.docx", MIMEDocx, int64(len(data)), bytes.NewReader(data))
	// 他人的案件与不存在的案件不可区分，避免暴露案件 ID 是否存在
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
	if got := apperr.HTTPStatus(err); got != http.StatusNotFound {
		t.Fatalf("HTTPStatus = %d, want 404", got)
	}
	if len(deps.store.puts) != 0 {
		t.Fatalf("expected no object writes, got %v", deps.store.puts)
	}
}

func TestLegacyUpload_ForeignCaseReportedAsNotFound(t *testing.T) {
	deps, db := newDocService(t)
	seedCase(t, db, "case-1", "owner-1")

	data := makeDocx(t, "Text.")
	caseID := "case-1"
	_, err := deps.svc.LegacyUpload(context.Background(), "intruder", &caseID, "doc.docx", MIMEDocx, int64(len(data)), bytes.NewReader(data))
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
	if len(deps.store.puts) != 0 {
		t.Fatalf("expected no object writes, got %v", deps.store.puts)
	}
}

func TestLegacyUpload_SkipsProcessing(t *testing.T) {
	deps, _ := newDocService(t)

	data := makeDocx(t, "Raw upload.")
	doc, err := deps.svc.LegacyUpload(context.Background(), "user-1", nil, "raw.docx", MIMEDocx, int64(len(data)), bytes.NewReader(data))
	if err != nil {
		t.Fatalf("legacy upload: %v", err)
	}

	if doc.ContentText != "Text extraction pending" {
		t.Fatalf("expected placeholder text, got %q", doc.ContentText)
	}
	if doc.Summary != "" || len(doc.Embedding) != 0 {
		t.Fatalf("expected no summary or embedding, got summary=%q embedding=%v", doc.Summary, doc.Embedding)
	}
	if deps.embedder.calls != 0 {
		t.Fatalf("expected embedder untouched, got %d calls", deps.embedder.calls)
	}
	if len(deps.producer.produced) != 0 {
		t.Fatalf("expected no index task, got %v", deps.producer.produced)
	}
}

func TestDownload_RejectsNonOwner(t *testing.T) {
	deps, _ := newDocService(t)

	doc := &model.Document{ID: "doc-1", FileName: "a.pdf", FilePath: "owner-1/a.pdf", CreatedBy: "owner-1"}
	if err := deps.docRepo.Create(doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}

	_, _, err := deps.svc.Download(context.Background(), "intruder", "doc-1")
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestDeleteDocument_RemovesRowAndObject(t *testing.T) {
	deps, _ := newDocService(t)

	doc := &model.Document{ID: "doc-1", FileName: "a.pdf", FilePath: "user-1/a.pdf", CreatedBy: "user-1"}
	if err := deps.docRepo.Create(doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}
	deps.store.objects[doc.FilePath] = []byte("pdf")

	if err := deps.svc.Delete(context.Background(), "user-1", "doc-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := deps.docRepo.FindByID("doc-1"); err == nil {
		t.Fatalf("expected row to be deleted")
	}
	if len(deps.store.removes) != 1 {
		t.Fatalf("expected object removal, got %v", deps.store.removes)
	}
	if len(deps.index.deleted) != 1 || deps.index.deleted[0] != "doc-1" {
		t.Fatalf("expected index entry removal, got %v", deps.index.deleted)
	}
}

func TestTruncate_DoesNotSplitRunes(t *testing.T) {
	// “原告” 每个字占 3 字节，上限 4 落在第二个字中间
	s := "原告" + strings.Repeat("x", 10)
	got := truncate(s, 4)
	if !utf8.ValidString(got) {
		t.Fatalf("truncate produced invalid UTF-8: %q", got)
	}
	if got != "原" {
		t.Fatalf("truncate = %q, want %q", got, "原")
	}

	// 边界恰好落在字符边界时不回退
	if got := truncate("abcdef", 3); got != "abc" {
		t.Fatalf("truncate = %q, want %q", got, "abc")
	}
	// 短于上限时原样返回
	if got := truncate("短", 10); got != "短" {
		t.Fatalf("truncate = %q, want %q", got, "短")
	}
}
