package service

import (
	"ai-lawyer-go/internal/apperr"
	"ai-lawyer-go/internal/model"
	"ai-lawyer-go/internal/repository"
	"ai-lawyer-go/pkg/embedding"
	"ai-lawyer-go/pkg/es"
	"ai-lawyer-go/pkg/llm"
	"ai-lawyer-go/pkg/log"
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const assistantSystemPrompt = `You are an AI Legal Assistant. You help users with legal questions, document analysis, and case research.
Be concise, accurate, and cite relevant laws and precedents when possible.
If you don't know something, say so rather than making up information.`

const assistantFallbackReply = "I apologize, but I am unable to generate a response at this time."

// ChatReply 是一次助手回复的结果。
type ChatReply struct {
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
}

// ChatService 接口定义了 AI 助手相关的业务操作。
type ChatService interface {
	SendMessage(ctx context.Context, userID string, caseID, documentID *string, message string) (*ChatReply, error)
	History(ctx context.Context, userID, caseID string) ([]model.ChatMessage, error)
	RelevantContext(ctx context.Context, userID, query string, caseID *string, limit int) ([]model.SimilarDocument, error)
	StreamMessage(ctx context.Context, userID string, caseID, documentID *string, message string, writer llm.MessageWriter) (*ChatReply, error)
}

// chatService 是 ChatService 接口的实现。
type chatService struct {
	chatRepo        repository.ChatRepository
	caseRepo        repository.CaseRepository
	embeddingClient embedding.Client
	llmClient       llm.Client
	index           es.Index
	temperature     float64
	maxTokens       int
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(
	chatRepo repository.ChatRepository,
	caseRepo repository.CaseRepository,
	embeddingClient embedding.Client,
	llmClient llm.Client,
	index es.Index,
	temperature float64,
	maxTokens int,
) ChatService {
	if temperature <= 0 {
		temperature = 0.3
	}
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	return &chatService{
		chatRepo:        chatRepo,
		caseRepo:        caseRepo,
		embeddingClient: embeddingClient,
		llmClient:       llmClient,
		index:           index,
		temperature:     temperature,
		maxTokens:       maxTokens,
	}
}

// checkCaseAccess 确认案件存在且属于当前用户。
func (s *chatService) checkCaseAccess(caseID, userID string) error {
	c, err := s.caseRepo.FindByID(caseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, "case not found")
		}
		return err
	}
	if c.CreatedBy != userID {
		return apperr.New(apperr.KindUnauthorized, "not the owner of this case")
	}
	return nil
}

// prepare 持久化用户消息并组装发送给模型的完整消息序列。
// 历史消息在用户消息落库之后重新加载，因此序列里包含这条刚写入的消息。
func (s *chatService) prepare(ctx context.Context, userID string, caseID, documentID *string, message string) (*model.ChatMessage, []llm.Message, error) {
	if strings.TrimSpace(message) == "" {
		return nil, nil, apperr.New(apperr.KindInvalid, "message is required")
	}
	if caseID != nil {
		if err := s.checkCaseAccess(*caseID, userID); err != nil {
			return nil, nil, err
		}
	}

	// 1. 保存用户消息
	userMsg := &model.ChatMessage{
		ID:         uuid.NewString(),
		CaseID:     caseID,
		DocumentID: documentID,
		UserID:     userID,
		Role:       model.RoleUser,
		Content:    message,
	}
	if err := s.chatRepo.Create(userMsg); err != nil {
		return nil, nil, err
	}

	// 2. 加载该案件下的历史消息作为上下文
	var history []model.ChatMessage
	if caseID != nil {
		var err error
		history, err = s.chatRepo.FindByCaseAndUser(*caseID, userID)
		if err != nil {
			return nil, nil, err
		}
	}

	// 3. 组装发送给模型的消息序列
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: model.RoleSystem, Content: assistantSystemPrompt})
	for _, msg := range history {
		messages = append(messages, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, llm.Message{Role: model.RoleUser, Content: message})

	return userMsg, messages, nil
}

// persistReply 保存助手回复并返回结果。
func (s *chatService) persistReply(userID string, caseID, documentID *string, reply string) (*ChatReply, error) {
	aiMsg := &model.ChatMessage{
		ID:         uuid.NewString(),
		CaseID:     caseID,
		DocumentID: documentID,
		UserID:     userID,
		Role:       model.RoleAssistant,
		Content:    reply,
	}
	if err := s.chatRepo.Create(aiMsg); err != nil {
		return nil, err
	}
	return &ChatReply{Message: reply, MessageID: aiMsg.ID}, nil
}

// SendMessage 处理一轮完整的对话：持久化用户消息、调用模型、持久化回复。
func (s *chatService) SendMessage(ctx context.Context, userID string, caseID, documentID *string, message string) (*ChatReply, error) {
	log.Infof("[ChatService] 收到用户消息, userID: %s", userID)

	_, messages, err := s.prepare(ctx, userID, caseID, documentID, message)
	if err != nil {
		return nil, err
	}

	// 调用模型生成回复
	params := &llm.GenerationParams{Temperature: &s.temperature, MaxTokens: &s.maxTokens}
	reply, err := s.llmClient.ChatCompletion(ctx, messages, params)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "failed to process your message", err)
	}
	if reply == "" {
		reply = assistantFallbackReply
	}

	return s.persistReply(userID, caseID, documentID, reply)
}

// StreamMessage 与 SendMessage 语义一致，但通过 writer 逐块推送模型输出。
// 完整回复在流结束后持久化。
func (s *chatService) StreamMessage(ctx context.Context, userID string, caseID, documentID *string, message string, writer llm.MessageWriter) (*ChatReply, error) {
	_, messages, err := s.prepare(ctx, userID, caseID, documentID, message)
	if err != nil {
		return nil, err
	}

	capture := &capturingWriter{inner: writer}
	params := &llm.GenerationParams{Temperature: &s.temperature, MaxTokens: &s.maxTokens}
	if err := s.llmClient.StreamChatMessages(ctx, messages, params, capture); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "failed to process your message", err)
	}

	reply := capture.builder.String()
	if reply == "" {
		reply = assistantFallbackReply
	}
	return s.persistReply(userID, caseID, documentID, reply)
}

// capturingWriter 在转发流式输出的同时累积完整回复。
type capturingWriter struct {
	inner   llm.MessageWriter
	builder strings.Builder
}

func (w *capturingWriter) WriteMessage(messageType int, data []byte) error {
	w.builder.Write(data)
	return w.inner.WriteMessage(messageType, data)
}

// History 按创建时间升序返回某案件下当前用户的全部消息。
func (s *chatService) History(ctx context.Context, userID, caseID string) ([]model.ChatMessage, error) {
	if caseID == "" {
		return nil, apperr.New(apperr.KindInvalid, "caseId is required")
	}
	return s.chatRepo.FindByCaseAndUser(caseID, userID)
}

// RelevantContext 将查询向量化后检索相关文档，供对话前置召回使用。
// 检索失败时返回空结果而不是错误。
func (s *chatService) RelevantContext(ctx context.Context, userID, query string, caseID *string, limit int) ([]model.SimilarDocument, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.New(apperr.KindInvalid, "query is required")
	}
	if limit <= 0 {
		limit = 3
	}

	vector, err := s.embeddingClient.CreateEmbedding(ctx, query)
	if err != nil {
		log.Errorf("[ChatService] 查询向量化失败: %v", err)
		return []model.SimilarDocument{}, nil
	}

	filter := es.SearchFilter{
		OwnerID:   userID,
		Threshold: DefaultSimilarityThreshold,
		Limit:     limit,
	}
	if caseID != nil {
		filter.CaseID = *caseID
	}
	results, err := s.index.Search(ctx, vector, filter)
	if err != nil {
		log.Errorf("[ChatService] 相关文档检索失败: %v", err)
		return []model.SimilarDocument{}, nil
	}
	return results, nil
}
