// Package main 是应用程序的入口点。
package main

import (
	"ai-lawyer-go/internal/config"
	"ai-lawyer-go/internal/handler"
	"ai-lawyer-go/internal/middleware"
	"ai-lawyer-go/internal/model"
	"ai-lawyer-go/internal/pipeline"
	"ai-lawyer-go/internal/repository"
	"ai-lawyer-go/internal/service"
	"ai-lawyer-go/pkg/database"
	"ai-lawyer-go/pkg/embedding"
	"ai-lawyer-go/pkg/es"
	"ai-lawyer-go/pkg/kafka"
	"ai-lawyer-go/pkg/llm"
	"ai-lawyer-go/pkg/log"
	"ai-lawyer-go/pkg/storage"
	"ai-lawyer-go/pkg/token"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis、对象存储和搜索索引
	database.InitMySQL(cfg.Database.MySQL.DSN)
	if err := database.DB.AutoMigrate(&model.Profile{}, &model.Case{}, &model.Document{}, &model.ChatMessage{}); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)

	store, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		log.Fatalf("MinIO 初始化失败: %v", err)
	}

	if err := es.InitES(cfg.Elasticsearch, cfg.Embedding.Dimensions); err != nil {
		log.Fatalf("es 初始化失败: %v", err)
	}
	searchIndex := es.NewIndex(es.ESClient, cfg.Elasticsearch.IndexName)

	producer := kafka.NewProducer(cfg.Kafka)

	// 4. 初始化 Repository
	profileRepo := repository.NewProfileRepository(database.DB)
	caseRepo := repository.NewCaseRepository(database.DB)
	docRepo := repository.NewDocumentRepository(database.DB)
	chatRepo := repository.NewChatRepository(database.DB)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	embeddingClient := embedding.NewClient(cfg.Embedding)
	llmClient := llm.NewClient(cfg.LLM)

	userService := service.NewUserService(profileRepo, jwtManager)
	caseService := service.NewCaseService(caseRepo, docRepo, store, searchIndex)
	documentService := service.NewDocumentService(docRepo, caseRepo, store, embeddingClient, llmClient, producer, searchIndex, service.IngestOptions{
		MaxFileSize:       cfg.Upload.MaxFileSize,
		SummaryInputChars: cfg.Chat.SummaryInputChars,
		Temperature:       cfg.Chat.Temperature,
	})
	similarityService := service.NewSimilarityService(docRepo, searchIndex)
	chatService := service.NewChatService(chatRepo, caseRepo, embeddingClient, llmClient, searchIndex, cfg.Chat.Temperature, cfg.Chat.MaxTokens)

	// 6. 初始化索引处理管道 (Processor)
	processor := pipeline.NewProcessor(docRepo, searchIndex)

	// 7. 启动后台 Kafka 消费者
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery())

	authHandler := handler.NewAuthHandler(userService)
	caseHandler := handler.NewCaseHandler(caseService)
	documentHandler := handler.NewDocumentHandler(documentService)
	similarHandler := handler.NewSimilarHandler(similarityService)
	chatHandler := handler.NewChatHandler(chatService, userService, jwtManager)

	authRequired := middleware.AuthMiddleware(jwtManager, userService, database.RDB)

	// 9. 注册路由
	apiV1 := r.Group("/api/v1")
	{
		// Auth 路由组
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)

			authed := auth.Group("/")
			authed.Use(authRequired)
			{
				authed.POST("/logout", authHandler.Logout)
				authed.GET("/me", authHandler.Me)
			}
		}

		// Case 路由组，需要认证
		cases := apiV1.Group("/cases")
		cases.Use(authRequired)
		{
			cases.GET("", caseHandler.List)
			cases.POST("", caseHandler.Create)
			cases.GET("/:id", caseHandler.Get)
			cases.PUT("/:id", caseHandler.Update)
			cases.DELETE("/:id", caseHandler.Delete)
		}

		// Document 路由组，需要认证
		documents := apiV1.Group("/documents")
		documents.Use(authRequired)
		{
			documents.POST("", documentHandler.Upload)
			documents.GET("", documentHandler.List)
			documents.GET("/:id", documentHandler.Download)
			documents.DELETE("/:id", documentHandler.Delete)
		}

		// 旧版上传入口，保留兼容
		upload := apiV1.Group("/upload")
		upload.Use(authRequired)
		{
			upload.POST("", documentHandler.LegacyUpload)
		}

		// 相似案例检索
		similar := apiV1.Group("/similar-cases")
		similar.Use(authRequired)
		{
			similar.GET("", similarHandler.Find)
		}

		// Chat 路由组
		chat := apiV1.Group("/chat")
		chat.Use(authRequired)
		{
			chat.POST("", chatHandler.Send)
			chat.GET("", chatHandler.History)
			chat.GET("/context", chatHandler.Context)
		}
		// WebSocket 连接通过路径中的 token 自行认证
		apiV1.GET("/chat/ws/:token", chatHandler.HandleWS)

		// 管理员路由组，需要同时通过认证和角色校验两个中间件
		admin := apiV1.Group("/admin")
		admin.Use(authRequired, middleware.RequireRole("admin"))
		{
			admin.GET("/profiles", authHandler.ListProfiles)
		}
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}
