// internal/app/app.go
package app

import (
	"fmt"

	"github.com/MiyabiWorks/NovelEngine/internal/config"
	"github.com/MiyabiWorks/NovelEngine/internal/di"
	"github.com/MiyabiWorks/NovelEngine/internal/services"
	"github.com/MiyabiWorks/NovelEngine/internal/utils"
)

// InitServices 组合根：按依赖顺序构造所有服务并注册到容器
// 之后的代码只从容器获取服务，不再创建新实例
func InitServices(cfg *config.Config) error {
	container := di.GetContainer()
	logger := utils.GetLogger()

	// 1. 脚本仓库（无依赖）
	scriptService, err := services.NewScriptService(cfg.ContentDir)
	if err != nil {
		return fmt.Errorf("初始化脚本服务失败: %w", err)
	}
	container.Register("script", scriptService)

	// 预加载角色表，缺失时降级为空表
	characters := scriptService.LoadCharacters()
	logger.Infof("角色元数据加载完成: %d 个角色", len(characters))

	// 2. 会话状态（无依赖）
	stateService := services.NewStateService()
	container.Register("state", stateService)

	// 3. 持久化网关
	saveService, err := services.NewSaveService(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("初始化存档服务失败: %w", err)
	}
	container.Register("saves", saveService)

	// 4. 音频协作者（指令接收端由 WebSocket 层注册）
	audioService := services.NewAudioService()
	container.Register("audio", audioService)

	// 5. 入口场景：清单可以覆盖环境变量的默认值
	entryScene := cfg.EntryScene
	if manifest, err := scriptService.LoadManifest(); err != nil {
		logger.Warnf("加载内容清单失败: %v", err)
	} else if manifest != nil {
		container.Register("manifest", manifest)
		if manifest.EntryScene != "" {
			entryScene = manifest.EntryScene
		}
		logger.Infof("内容清单加载完成: %s (%d 章)", manifest.Title, len(manifest.Chapters))
	}

	// 6. 叙事引擎
	engineService := services.NewEngineService(
		scriptService, stateService, saveService, audioService, entryScene)
	container.Register("engine", engineService)

	// 7. 转写导出
	exportService, err := services.NewExportService(stateService, scriptService, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("初始化导出服务失败: %w", err)
	}
	container.Register("export", exportService)

	return nil
}
