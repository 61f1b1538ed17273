package handler

import (
	"ai-lawyer-go/internal/service"
	"ai-lawyer-go/pkg/log"
	"ai-lawyer-go/pkg/token"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// ChatHandler 负责处理 AI 助手相关的 API 请求与 WebSocket 连接。
type ChatHandler struct {
	chatService service.ChatService
	userService service.UserService
	jwtManager  *token.JWTManager
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService, userService service.UserService, jwtManager *token.JWTManager) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		userService: userService,
		jwtManager:  jwtManager,
	}
}

// SendMessageRequest 定义了发送消息 API 的请求体结构。
type SendMessageRequest struct {
	Message    string  `json:"message" binding:"required"`
	CaseID     *string `json:"caseId"`
	DocumentID *string `json:"documentId"`
}

// Send 处理一轮对话请求。
func (h *ChatHandler) Send(c *gin.Context) {
	profile := currentUser(c)

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	reply, err := h.chatService.SendMessage(c.Request.Context(), profile.ID, req.CaseID, req.DocumentID, req.Message)
	if err != nil {
		log.Errorf("Chat send failed, user: %s, error: %v", profile.ID, err)
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// History 返回某案件下当前用户的全部消息。
func (h *ChatHandler) History(c *gin.Context) {
	profile := currentUser(c)

	messages, err := h.chatService.History(c.Request.Context(), profile.ID, c.Query("caseId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// Context 返回与查询语义相关的文档片段。
func (h *ChatHandler) Context(c *gin.Context) {
	profile := currentUser(c)

	var caseID *string
	if v := c.Query("caseId"); v != "" {
		caseID = &v
	}
	results, err := h.chatService.RelevantContext(c.Request.Context(), profile.ID, c.Query("query"), caseID, queryInt(c, "limit", 0))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// wsPayload 是 WebSocket 消息的统一格式。
type wsPayload struct {
	Message    string  `json:"message"`
	CaseID     *string `json:"caseId"`
	DocumentID *string `json:"documentId"`
}

// chunkWriter 将模型输出的文本片段封装为 {"chunk": ...} 帧后写入连接。
type chunkWriter struct {
	conn *websocket.Conn
}

func (w *chunkWriter) WriteMessage(messageType int, data []byte) error {
	frame, err := json.Marshal(map[string]string{"chunk": string(data)})
	if err != nil {
		return err
	}
	return w.conn.WriteMessage(messageType, frame)
}

// HandleWS 处理一个传入的 WebSocket 连接，token 通过路径参数传递。
func (h *ChatHandler) HandleWS(c *gin.Context) {
	tokenString := c.Param("token")
	claims, err := h.jwtManager.VerifyToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	profile, err := h.userService.GetProfile(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("WebSocket 连接已建立，用户: %s", profile.Email)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		var payload wsPayload
		if err := json.Unmarshal(message, &payload); err != nil {
			// 非 JSON 输入按纯文本消息处理
			payload = wsPayload{Message: string(message)}
		}

		reply, err := h.chatService.StreamMessage(c.Request.Context(), profile.ID, payload.CaseID, payload.DocumentID, payload.Message, &chunkWriter{conn: conn})
		if err != nil {
			log.Errorf("处理流式响应失败: %v", err)
			errResp := map[string]string{"error": "failed to process your message"}
			b, _ := json.Marshal(errResp)
			_ = conn.WriteMessage(websocket.TextMessage, b)
			continue
		}

		// 流结束后发送完成通知，携带已持久化的消息 ID
		done := map[string]string{"type": "completion", "messageId": reply.MessageID}
		b, _ := json.Marshal(done)
		_ = conn.WriteMessage(websocket.TextMessage, b)
	}
}
