// internal/services/script_service.go
package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	apperrors "github.com/MiyabiWorks/NovelEngine/internal/errors"
	"github.com/MiyabiWorks/NovelEngine/internal/models"
	"github.com/MiyabiWorks/NovelEngine/internal/storage"
	"github.com/MiyabiWorks/NovelEngine/internal/utils"
)

// DefaultChapter 不含分隔符的场景ID归属的默认章节
const DefaultChapter = "chapter1"

// ScriptService 脚本仓库：把场景ID解析为规范的场景数据，把角色ID解析为元数据
// 只返回数据，不修改会话状态
type ScriptService struct {
	ContentDir string
	Storage    *storage.FileStorage

	charactersOnce sync.Once
	characters     map[string]models.CharacterData
}

// NewScriptService 创建脚本服务
func NewScriptService(contentDir string) (*ScriptService, error) {
	if contentDir == "" {
		contentDir = "content"
	}

	fileStorage, err := storage.NewFileStorage(contentDir)
	if err != nil {
		return nil, fmt.Errorf("创建内容存储失败: %w", err)
	}

	return &ScriptService{
		ContentDir: contentDir,
		Storage:    fileStorage,
		characters: make(map[string]models.CharacterData),
	}, nil
}

// ResolveScenePath 解析场景ID到内容路径
// 含分隔符的ID在第一个下划线处拆为章节段和场景段；否则归入默认章节
// 例如 "chapter2_scene05" -> chapter2/scene05.json，"intro" -> chapter1/intro.json
func ResolveScenePath(sceneID string) (chapter, filename string) {
	if strings.Contains(sceneID, "_") {
		parts := strings.SplitN(sceneID, "_", 2)
		return parts[0], parts[1] + ".json"
	}
	return DefaultChapter, sceneID + ".json"
}

// LoadScene 加载并规范化一个场景
func (s *ScriptService) LoadScene(sceneID string) (*models.Scene, error) {
	if strings.TrimSpace(sceneID) == "" {
		return nil, apperrors.NewValidationError("场景ID不能为空", nil)
	}

	chapter, filename := ResolveScenePath(sceneID)

	if !s.Storage.FileExists(chapter, filename) {
		return nil, apperrors.NewNotFoundError(
			fmt.Sprintf("场景不存在: %s", sceneID), nil)
	}

	content, err := s.Storage.LoadTextFile(chapter, filename)
	if err != nil {
		return nil, apperrors.NewNotFoundError(
			fmt.Sprintf("读取场景失败: %s", sceneID), err)
	}

	scene, err := s.normalizeScene(sceneID, content)
	if err != nil {
		return nil, err
	}

	return scene, nil
}

// normalizeScene 把两种存盘格式规范化为统一的内存表示
// 新格式：{scene: {...}, script: [...]}；旧格式：直接匹配 Scene 结构
func (s *ScriptService) normalizeScene(sceneID string, content []byte) (*models.Scene, error) {
	var rawFile models.RawSceneFile
	if err := json.Unmarshal(content, &rawFile); err == nil &&
		rawFile.Scene != nil && rawFile.Script != nil {
		scene := &models.Scene{
			ID:         rawFile.Scene.ID,
			Title:      rawFile.Scene.Title,
			Background: rawFile.Scene.Background,
			Music:      rawFile.Scene.Music,
			Events:     convertScriptToEvents(rawFile.Script),
		}
		return scene, nil
	}

	var scene models.Scene
	if err := json.Unmarshal(content, &scene); err != nil {
		return nil, apperrors.NewMalformedContentError(
			fmt.Sprintf("场景内容格式错误: %s", sceneID), err)
	}

	if scene.ID == "" {
		scene.ID = sceneID
	}

	return &scene, nil
}

// convertScriptToEvents 把新格式脚本列表逐条映射为规范事件
// 不识别的条目类型转换为旁白对话事件，这是有损但安全的降级，不算失败
func convertScriptToEvents(script []models.RawScriptItem) []models.SceneEvent {
	events := make([]models.SceneEvent, 0, len(script))

	for _, item := range script {
		switch item.Type {
		case "dialogue":
			events = append(events, models.SceneEvent{
				Type:    models.EventDialogue,
				Speaker: item.Speaker,
				Text:    item.Text,
			})
		case "choice":
			choices := make([]models.Choice, 0, len(item.Options))
			for i, option := range item.Options {
				choices = append(choices, models.Choice{
					ID:        fmt.Sprintf("choice_%d", i),
					Text:      option.Text,
					NextScene: option.NextScene,
				})
			}
			events = append(events, models.SceneEvent{
				Type:    models.EventChoice,
				Choices: choices,
			})
		case "character_show":
			events = append(events, models.SceneEvent{
				Type:      models.EventShowCharacter,
				Character: item.Character,
				Position:  item.Position,
			})
		case "character_hide":
			events = append(events, models.SceneEvent{
				Type:      models.EventHideCharacter,
				Character: item.Character,
			})
		case "background":
			events = append(events, models.SceneEvent{
				Type:       models.EventChangeBackground,
				Background: item.Asset,
			})
		case "sound_effect":
			events = append(events, models.SceneEvent{
				Type: models.EventPlaySfx,
				Sfx:  item.Asset,
			})
		default:
			// 结构化格式没有 end 条目类型，end 同样走这条降级路径；
			// 终止播放只能由旧格式的 end 事件表达
			events = append(events, models.SceneEvent{
				Type:    models.EventDialogue,
				Speaker: "narrator",
				Text:    item.Text,
			})
		}
	}

	return events
}

// LoadCharacters 加载角色元数据映射
// 兼容两种容器格式：按ID索引的对象，或各自带ID的记录数组
// 读取失败时返回空映射而不是报错，缺失的角色在查找时降级为ID作为名称
func (s *ScriptService) LoadCharacters() map[string]models.CharacterData {
	s.charactersOnce.Do(func() {
		logger := utils.GetLogger()

		content, err := s.Storage.LoadTextFile("", "characters.json")
		if err != nil {
			logger.Warnf("加载角色数据失败: %v", err)
			return
		}

		// 对象格式：{"characters": {<id>: {...}}}
		var file models.CharacterFile
		if err := json.Unmarshal(content, &file); err == nil && file.Characters != nil {
			for id, char := range file.Characters {
				char.ID = id
				s.characters[id] = char
			}
			return
		}

		// 数组格式（向后兼容）
		var list []models.CharacterData
		if err := json.Unmarshal(content, &list); err == nil {
			for _, char := range list {
				s.characters[char.ID] = char
			}
			return
		}

		logger.Warnf("角色数据格式无法识别，使用空角色表")
	})

	return s.characters
}

// GetCharacterInfo 按ID查找角色元数据
// 未知ID降级为原始ID作为名称、默认颜色，不报错
func (s *ScriptService) GetCharacterInfo(characterID string) models.CharacterData {
	characters := s.LoadCharacters()
	if char, ok := characters[characterID]; ok {
		return char
	}
	return models.FallbackCharacter(characterID)
}

// LoadManifest 加载内容包清单（content/manifest.yaml）
// 清单缺失不是错误，返回 nil
func (s *ScriptService) LoadManifest() (*models.ContentManifest, error) {
	manifestPath := filepath.Join(s.ContentDir, "manifest.yaml")

	content, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.NewPersistenceError("读取内容清单失败", err)
	}

	var manifest models.ContentManifest
	if err := yaml.Unmarshal(content, &manifest); err != nil {
		return nil, apperrors.NewMalformedContentError("内容清单格式错误", err)
	}

	return &manifest, nil
}
