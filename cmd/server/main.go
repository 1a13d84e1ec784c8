package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"k8s.io/klog/v2"

	"github.com/greendental/backend/config"
	"github.com/greendental/backend/internal/eventbus"
	"github.com/greendental/backend/internal/flows"
	"github.com/greendental/backend/internal/handler"
	"github.com/greendental/backend/internal/pkg/database"
	"github.com/greendental/backend/internal/pkg/flow"
	"github.com/greendental/backend/internal/pkg/llm"
	"github.com/greendental/backend/internal/repository"
	"github.com/greendental/backend/internal/router"
	"github.com/greendental/backend/internal/service"
	"github.com/greendental/backend/internal/service/orchestrator"
	"github.com/greendental/backend/internal/subscriber"
)

func main() {
	// 初始化 klog
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	klog.V(6).Info("服务启动中...")

	cfg := config.GetConfig()
	ctx := context.Background()

	// 初始化数据库
	db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 初始化 Repository
	apiKeyRepo := repository.NewAPIKeyRepository(db)
	usageRepo := repository.NewFlowUsageRepository(db)

	// 初始化 Service
	apiKeyService := service.NewAPIKeyService(apiKeyRepo)
	usageService := service.NewFlowUsageService(usageRepo)

	// 模型池：数据库中的 API Key 优先，配置文件中的模型兜底
	var defaultModel *llm.PooledModel
	if cfg.LLM.APIKey != "" {
		chatModel, err := llm.NewChatModel(ctx, cfg.LLM)
		if err != nil {
			log.Fatalf("Failed to create default chat model: %v", err)
		}
		defaultModel = &llm.PooledModel{BaseChatModel: chatModel, APIKeyName: cfg.LLM.Model, ModelName: cfg.LLM.Model}
	} else {
		klog.Warning("未配置默认模型，文本类 flow 仅使用模型池中的 API Key")
	}
	provider := llm.NewModelProvider(apiKeyService, defaultModel, llm.OpenAIFactory(cfg.LLM.MaxTokens))

	runtime := &flow.Runtime{
		Text:    llm.NewProxyChatModel(provider, cfg.Flow.RateLimitCooldown),
		Env:     flows.NewEnv(cfg.Clinic),
		Timeout: cfg.Flow.Timeout,
	}
	if cfg.Vision.APIKey != "" {
		vision, err := llm.NewGeminiChatModel(ctx, cfg.Vision)
		if err != nil {
			log.Fatalf("Failed to create vision model: %v", err)
		}
		runtime.Vision = vision
	} else {
		klog.Warning("未配置 Gemini API Key，微笑设计预览不可用")
	}

	registry, err := flows.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to register flows: %v", err)
	}

	// 调用事件：成功调用记录用量
	bus := eventbus.NewFlowEventBus()
	subscriber.NewFlowEventSubscriber(usageService).Register(bus)

	flowService := service.NewFlowService(registry, runtime, bus)

	// 限制并发，避免打爆 LLM 配额
	var o *orchestrator.Orchestrator
	if cfg.Flow.MaxConcurrency > 0 {
		o, err = orchestrator.NewOrchestrator(cfg.Flow.MaxConcurrency, cfg.Flow.MaxQueued)
		if err != nil {
			log.Fatalf("Failed to create orchestrator: %v", err)
		}
		flowService.SetOrchestrator(o)
	}

	// 初始化 Handler
	flowHandler := handler.NewFlowHandler(flowService, cfg.Server.MaxBodyBytes)
	apiKeyHandler := handler.NewAPIKeyHandler(apiKeyService)
	usageHandler := handler.NewUsageHandler(usageService)
	clinicHandler := handler.NewClinicHandler(cfg.Clinic)

	// 设置路由
	r := router.Setup(cfg, flowHandler, apiKeyHandler, usageHandler, clinicHandler)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server starting on port %s with %d flows...", cfg.Server.Port, registry.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-sigCtx.Done()
	klog.V(6).Info("收到退出信号，开始关闭服务...")

	// 先停止接收请求并等待处理中的请求，再等待排队中的模型调用
	grace := cfg.Flow.Timeout + 10*time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		klog.Errorf("Server shutdown: %v", err)
	}
	if o != nil {
		o.Stop(grace)
	}
	klog.V(6).Info("服务已退出")
}
