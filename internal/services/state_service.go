// internal/services/state_service.go
package services

import (
	"sync"
	"time"

	"github.com/MiyabiWorks/NovelEngine/internal/models"
)

// 对话历史保留上限，超出后丢弃最早的行
const maxHistoryLines = 500

// DialogueLine 对话历史中的一行，供转写导出使用
// 不参与存档持久化
type DialogueLine struct {
	Speaker string    `json:"speaker"`
	Text    string    `json:"text"`
	SceneID string    `json:"scene_id"`
	Time    time.Time `json:"time"`
}

// StateService 持有会话状态快照，是引擎和表现层之间的唯一共享可变记录
// 写入者只有叙事引擎；表现层（HTTP/WebSocket）通过订阅或快照只读
type StateService struct {
	mutex sync.RWMutex
	state *models.GameState

	history []DialogueLine

	// 订阅状态更新的通道
	subscribers map[chan models.GameState]bool
}

// NewStateService 创建带默认状态的会话状态服务
func NewStateService() *StateService {
	return &StateService{
		state:       models.NewGameState(),
		subscribers: make(map[chan models.GameState]bool),
	}
}

// Snapshot 返回当前状态的深拷贝
func (s *StateService) Snapshot() models.GameState {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return copyState(s.state)
}

// copyState 深拷贝状态，切片不共享底层数组
// 空切片保持非nil，序列化后是 [] 而不是 null
func copyState(src *models.GameState) models.GameState {
	dst := *src
	dst.CurrentChoices = append([]models.Choice{}, src.CurrentChoices...)
	dst.Characters = append([]string{}, src.Characters...)
	dst.Progress.CompletedScenes = append([]string{}, src.Progress.CompletedScenes...)
	dst.Progress.UnlockedContent = append([]string{}, src.Progress.UnlockedContent...)
	return dst
}

// Subscribe 订阅状态更新
// 返回的通道带缓冲，推送是非阻塞的：订阅者来不及消费时丢弃中间快照
func (s *StateService) Subscribe() chan models.GameState {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	subscriber := make(chan models.GameState, 16)
	s.subscribers[subscriber] = true

	// 立即发送当前状态
	subscriber <- copyState(s.state)

	return subscriber
}

// Unsubscribe 取消订阅
func (s *StateService) Unsubscribe(subscriber chan models.GameState) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.subscribers[subscriber]; ok {
		delete(s.subscribers, subscriber)
		close(subscriber)
	}
}

// notifyLocked 通知所有订阅者，调用方必须持有写锁
func (s *StateService) notifyLocked() {
	snapshot := copyState(s.state)
	for subscriber := range s.subscribers {
		select {
		case subscriber <- snapshot:
		default:
		}
	}
}

// SetDialogue 设置当前对话文本和说话者，并记入对话历史
func (s *StateService) SetDialogue(text, speaker string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.state.CurrentDialogue = text
	s.state.CurrentSpeaker = speaker

	s.history = append(s.history, DialogueLine{
		Speaker: speaker,
		Text:    text,
		SceneID: s.state.CurrentScene,
		Time:    time.Now(),
	})
	if len(s.history) > maxHistoryLines {
		s.history = s.history[len(s.history)-maxHistoryLines:]
	}

	s.notifyLocked()
}

// SetChoices 设置当前选择列表
func (s *StateService) SetChoices(choices []models.Choice) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.state.CurrentChoices = append([]models.Choice{}, choices...)
	s.notifyLocked()
}

// ClearChoices 清空选择列表
func (s *StateService) ClearChoices() {
	s.SetChoices(nil)
}

// ShowCharacter 把角色加入在场列表，已在场则不重复
func (s *StateService) ShowCharacter(characterID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, id := range s.state.Characters {
		if id == characterID {
			return
		}
	}
	s.state.Characters = append(s.state.Characters, characterID)
	s.notifyLocked()
}

// HideCharacter 把角色移出在场列表，不在场则无操作
func (s *StateService) HideCharacter(characterID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i, id := range s.state.Characters {
		if id == characterID {
			s.state.Characters = append(s.state.Characters[:i], s.state.Characters[i+1:]...)
			s.notifyLocked()
			return
		}
	}
}

// SetBackground 设置背景
func (s *StateService) SetBackground(background string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.state.Background = background
	s.notifyLocked()
}

// SetScenePosition 设置当前场景ID和事件位置
func (s *StateService) SetScenePosition(sceneID string, eventIndex int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.state.CurrentScene = sceneID
	s.state.CurrentEventIndex = eventIndex
	s.notifyLocked()
}

// SetEventIndex 只更新事件位置
func (s *StateService) SetEventIndex(eventIndex int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.state.CurrentEventIndex = eventIndex
	s.notifyLocked()
}

// SetPlaying 设置播放标志
func (s *StateService) SetPlaying(playing bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.state.IsPlaying = playing
	s.notifyLocked()
}

// SetPaused 设置暂停标志
func (s *StateService) SetPaused(paused bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.state.IsPaused = paused
	s.notifyLocked()
}

// SetLoading 设置加载标志
func (s *StateService) SetLoading(loading bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.state.IsLoading = loading
	s.notifyLocked()
}

// UpdateSettings 整体替换设置
func (s *StateService) UpdateSettings(settings models.GameSettings) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.state.Settings = settings
	s.notifyLocked()
}

// Settings 返回当前设置的副本
func (s *StateService) Settings() models.GameSettings {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.state.Settings
}

// MarkSceneCompleted 把场景记入已完成集合，已存在则不重复
func (s *StateService) MarkSceneCompleted(sceneID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, id := range s.state.Progress.CompletedScenes {
		if id == sceneID {
			return
		}
	}
	s.state.Progress.CompletedScenes = append(s.state.Progress.CompletedScenes, sceneID)
	s.notifyLocked()
}

// UpdateProgress 更新进度记录中的游玩时间和存档时间戳
func (s *StateService) UpdateProgress(playTime, lastSaveTime int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.state.Progress.PlayTime = playTime
	s.state.Progress.LastSaveTime = lastSaveTime
	s.notifyLocked()
}

// ApplySave 用存档恢复进度相关字段
// 对话/说话者/选择不从存档恢复，由引擎重新进入场景时重新推导
func (s *StateService) ApplySave(save *models.SaveData) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.state.CurrentScene = save.CurrentScene
	s.state.CurrentEventIndex = save.CurrentEventIndex
	s.state.Characters = append([]string(nil), save.Characters...)
	s.state.Background = save.Background
	s.state.Progress = save.Progress
	s.state.IsPlaying = true
	s.notifyLocked()
}

// Reset 恢复到默认状态，设置保留
func (s *StateService) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	settings := s.state.Settings
	s.state = models.NewGameState()
	s.state.Settings = settings
	s.history = nil
	s.notifyLocked()
}

// History 返回对话历史的副本
func (s *StateService) History() []DialogueLine {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return append([]DialogueLine(nil), s.history...)
}
