// internal/services/save_service.go
package services

import (
	"fmt"
	"sync/atomic"
	"time"

	apperrors "github.com/MiyabiWorks/NovelEngine/internal/errors"
	"github.com/MiyabiWorks/NovelEngine/internal/models"
	"github.com/MiyabiWorks/NovelEngine/internal/storage"
	"github.com/MiyabiWorks/NovelEngine/internal/utils"
)

// 存档使用的逻辑键：唯一的自动存档槽位和独立的设置
const (
	savesDir     = "saves"
	settingsDir  = "settings"
	autosaveFile = "autosave.json"
	settingsFile = "settings.json"
)

// SaveService 负责会话状态的序列化和反序列化
// 写入是原子的；同一时刻只允许一个写请求在途，后来者被拒绝而不是交错
type SaveService struct {
	Storage *storage.FileStorage

	// 写入在途标志，0=空闲，1=写入中
	writing int32
}

// NewSaveService 创建存档服务
func NewSaveService(dataDir string) (*SaveService, error) {
	if dataDir == "" {
		dataDir = "data"
	}

	fileStorage, err := storage.NewFileStorage(dataDir)
	if err != nil {
		return nil, fmt.Errorf("创建存档存储失败: %w", err)
	}

	return &SaveService{
		Storage: fileStorage,
	}, nil
}

// SaveGame 把状态快照连同时间戳和版本标签写入自动存档
// 错误以返回值报告，不会向调用方抛出；已有写入在途时拒绝本次请求
func (s *SaveService) SaveGame(state models.GameState) error {
	if !atomic.CompareAndSwapInt32(&s.writing, 0, 1) {
		return apperrors.NewPersistenceError("存档写入进行中，本次请求被拒绝", nil)
	}
	defer atomic.StoreInt32(&s.writing, 0)

	saveData := models.SaveData{
		GameState: state,
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   models.SaveVersion,
	}

	if err := s.Storage.SaveJSONFile(savesDir, autosaveFile, saveData); err != nil {
		utils.GetLogger().Errorf("保存游戏失败: %v", err)
		return apperrors.NewPersistenceError("保存游戏失败", err)
	}

	return nil
}

// LoadGame 读取自动存档
// 存档不存在返回 (nil, nil)，调用方据此报告"没有存档"；读取或解析失败返回持久化错误
func (s *SaveService) LoadGame() (*models.SaveData, error) {
	if !s.Storage.FileExists(savesDir, autosaveFile) {
		return nil, nil
	}

	var saveData models.SaveData
	if err := s.Storage.LoadJSONFile(savesDir, autosaveFile, &saveData); err != nil {
		utils.GetLogger().Errorf("加载存档失败: %v", err)
		return nil, apperrors.NewPersistenceError("加载存档失败", err)
	}

	return &saveData, nil
}

// HasSave 检查自动存档是否存在，供主菜单的"继续游戏"按钮使用
func (s *SaveService) HasSave() bool {
	return s.Storage.FileExists(savesDir, autosaveFile)
}

// DeleteSave 删除自动存档
// 幂等：存档不存在时同样成功
func (s *SaveService) DeleteSave() error {
	if err := s.Storage.DeleteFile(savesDir, autosaveFile); err != nil {
		return apperrors.NewPersistenceError("删除存档失败", err)
	}
	return nil
}

// SaveSettings 保存设置，与游戏存档互相独立
func (s *SaveService) SaveSettings(settings models.GameSettings) error {
	settingsData := models.SettingsData{
		GameSettings: settings,
		Timestamp:    time.Now().Format(time.RFC3339),
	}

	if err := s.Storage.SaveJSONFile(settingsDir, settingsFile, settingsData); err != nil {
		utils.GetLogger().Errorf("保存设置失败: %v", err)
		return apperrors.NewPersistenceError("保存设置失败", err)
	}

	return nil
}

// LoadSettings 读取设置
// 任何失败都降级为硬编码的默认设置，设置永远可恢复
func (s *SaveService) LoadSettings() models.GameSettings {
	var settingsData models.SettingsData
	if err := s.Storage.LoadJSONFile(settingsDir, settingsFile, &settingsData); err != nil {
		utils.GetLogger().Warnf("加载设置失败，使用默认设置: %v", err)
		return models.DefaultSettings()
	}

	return settingsData.GameSettings
}
