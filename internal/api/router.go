// internal/api/router.go
package api

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/MiyabiWorks/NovelEngine/internal/config"
	"github.com/MiyabiWorks/NovelEngine/internal/di"
	"github.com/MiyabiWorks/NovelEngine/internal/services"
)

// SetupRouter 配置HTTP路由
func SetupRouter(cfg *config.Config) (*gin.Engine, error) {
	container := di.GetContainer()

	// 只从容器获取服务，不再创建新实例
	engineService, ok := container.Get("engine").(*services.EngineService)
	if !ok {
		return nil, fmt.Errorf("叙事引擎未正确初始化")
	}

	stateService, ok := container.Get("state").(*services.StateService)
	if !ok {
		return nil, fmt.Errorf("会话状态服务未正确初始化")
	}

	scriptService, ok := container.Get("script").(*services.ScriptService)
	if !ok {
		return nil, fmt.Errorf("脚本服务未正确初始化")
	}

	saveService, ok := container.Get("saves").(*services.SaveService)
	if !ok {
		return nil, fmt.Errorf("存档服务未正确初始化")
	}

	exportService, ok := container.Get("export").(*services.ExportService)
	if !ok {
		return nil, fmt.Errorf("导出服务未正确初始化")
	}

	audioService, ok := container.Get("audio").(*services.AudioService)
	if !ok {
		return nil, fmt.Errorf("音频服务未正确初始化")
	}

	handler := NewHandler(
		engineService,
		stateService,
		scriptService,
		saveService,
		exportService,
	)

	// 音频指令经由 WebSocket 推送给表现层
	audioService.SetSink(func(cue services.AudioCue) {
		handler.WSManager.Broadcast("audio_cue", cue)
	})

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// 启用CORS
	r.Use(corsMiddleware())

	// HTML模板（表现层页面，可选）
	templatesGlob := filepath.Join(cfg.TemplatesDir, "*.html")
	if matches, err := filepath.Glob(templatesGlob); err == nil && len(matches) > 0 {
		r.LoadHTMLGlob(templatesGlob)
		r.GET("/", handler.IndexPage)
	}

	// 资源引用按不透明路径直接回传给表现层
	if _, err := os.Stat(cfg.ContentDir); err == nil {
		r.Static("/content", cfg.ContentDir)
	}

	// WebSocket 支持
	r.GET("/ws/game", handler.GameWebSocket)

	// ===============================
	// API路由组
	// ===============================
	api := r.Group("/api")
	{
		// 会话操作
		gameGroup := api.Group("/game")
		{
			gameGroup.GET("/status", handler.GetGameStatus)
			gameGroup.POST("/new", handler.StartNewGame)
			gameGroup.POST("/continue", handler.ContinueGame)
			gameGroup.POST("/advance", handler.AdvanceGame)
			gameGroup.POST("/choice", handler.MakeChoice)
			gameGroup.POST("/pause", handler.PauseGame)
			gameGroup.POST("/resume", handler.ResumeGame)
		}

		// 存档
		saveGroup := api.Group("/save")
		{
			saveGroup.GET("", handler.GetSaveInfo)
			saveGroup.POST("", handler.SaveGame)
			saveGroup.DELETE("", handler.DeleteSave)
		}

		// 设置
		settingsGroup := api.Group("/settings")
		{
			settingsGroup.GET("", handler.GetSettings)
			settingsGroup.POST("", handler.UpdateSettings)
		}

		// 内容
		api.GET("/characters", handler.GetCharacters)
		api.GET("/characters/:id", handler.GetCharacter)
		api.GET("/scenes/:id", handler.GetScene)
		api.GET("/content/info", handler.GetContentInfo)

		// 导出
		api.POST("/export", handler.ExportTranscript)
	}

	return r, nil
}
