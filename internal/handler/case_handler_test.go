package handler

import (
	"ai-lawyer-go/internal/middleware"
	"ai-lawyer-go/internal/model"
	"ai-lawyer-go/internal/repository"
	"ai-lawyer-go/internal/service"
	"ai-lawyer-go/pkg/es"
	"ai-lawyer-go/pkg/storage"
	"ai-lawyer-go/pkg/token"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
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

// nopStore 满足 ObjectStore 但从不持有数据。
type nopStore struct{}

func (nopStore) Put(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	return nil
}

func (nopStore) Get(ctx context.Context, objectName string) (io.ReadCloser, error) {
	return nil, errors.New("not stored")
}

func (nopStore) Remove(ctx context.Context, objectName string) error { return nil }

// nopIndex 满足 es.Index 但不做任何事。
type nopIndex struct{}

func (nopIndex) IndexDocument(ctx context.Context, doc model.IndexedDocument) error { return nil }
func (nopIndex) DeleteDocument(ctx context.Context, documentID string) error        { return nil }
func (nopIndex) Search(ctx context.Context, vector []float32, filter es.SearchFilter) ([]model.SimilarDocument, error) {
	return nil, nil
}

var (
	_ storage.ObjectStore = nopStore{}
	_ es.Index            = nopIndex{}
)

func newTestRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := openTestDB(t)
	jwtManager := token.NewJWTManager("test-secret", 1, 7)
	userService := service.NewUserService(repository.NewProfileRepository(db), jwtManager)
	caseService := service.NewCaseService(repository.NewCaseRepository(db), repository.NewDocumentRepository(db), nopStore{}, nopIndex{})

	profile, err := userService.Register("lawyer@example.com", "str0ngpass", "Ada", "Lovelace")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	accessToken, err := jwtManager.GenerateToken(profile.ID, profile.Email, profile.Role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	r := gin.New()
	caseHandler := NewCaseHandler(caseService)
	cases := r.Group("/api/v1/cases")
	cases.Use(middleware.AuthMiddleware(jwtManager, userService, nil))
	{
		cases.GET("", caseHandler.List)
		cases.POST("", caseHandler.Create)
		cases.GET("/:id", caseHandler.Get)
		cases.DELETE("/:id", caseHandler.Delete)
	}
	return r, accessToken
}

func TestCreateCase_Unauthenticated(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cases", bytes.NewBufferString(`{"title":"Smith v. Jones"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestCreateCase_ReturnsCreatedWithOpenStatus(t *testing.T) {
	r, tok := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cases", bytes.NewBufferString(`{"title":"Smith v. Jones"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", w.Code, w.Body.String())
	}

	var created model.Case
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Status != model.CaseStatusOpen {
		t.Fatalf("status = %q, want %q", created.Status, model.CaseStatusOpen)
	}
	if created.Title != "Smith v. Jones" {
		t.Fatalf("title = %q", created.Title)
	}
}

func TestCreateCase_MissingTitle(t *testing.T) {
	r, tok := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cases", bytes.NewBufferString(`{"description":"no title"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body: %s", w.Code, w.Body.String())
	}
}

func TestGetCase_NotFound(t *testing.T) {
	r, tok := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cases/missing", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["error"] == "" {
		t.Fatalf("expected error field in body, got %s", w.Body.String())
	}
}

func TestListCases_ScopedToOwner(t *testing.T) {
	r, tok := newTestRouter(t)

	create := httptest.NewRequest(http.MethodPost, "/api/v1/cases", bytes.NewBufferString(`{"title":"Mine"}`))
	create.Header.Set("Content-Type", "application/json")
	create.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, create)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}

	list := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
	list.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, list)

	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var cases []model.Case
	if err := json.Unmarshal(w.Body.Bytes(), &cases); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(cases) != 1 || cases[0].Title != "Mine" {
		t.Fatalf("unexpected list: %+v", cases)
	}
}
