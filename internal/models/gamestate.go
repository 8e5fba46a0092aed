// internal/models/gamestate.go
package models

// SaveVersion 存档格式版本标签
const SaveVersion = "1.0.0"

// GameState 会话状态：玩家可见、可持久化的单一快照
// 唯一的写入者是叙事引擎；表现层和持久化层只读
type GameState struct {
	CurrentScene      string       `json:"currentScene"`
	CurrentEventIndex int          `json:"currentEventIndex"`
	CurrentDialogue   string       `json:"currentDialogue"`
	CurrentSpeaker    string       `json:"currentSpeaker"`
	CurrentChoices    []Choice     `json:"currentChoices"`
	Background        string       `json:"background"`
	Characters        []string     `json:"characters"` // 在场角色ID，有序且无重复
	IsPlaying         bool         `json:"isPlaying"`
	IsPaused          bool         `json:"isPaused"`
	IsLoading         bool         `json:"isLoading"`
	Settings          GameSettings `json:"settings"`
	Progress          GameProgress `json:"progress"`
}

// GameSettings 玩家设置，独立于游戏进度持久化
type GameSettings struct {
	Volume  VolumeSettings  `json:"volume"`
	Display DisplaySettings `json:"display"`
}

// VolumeSettings 音量设置，取值范围 [0,1]
type VolumeSettings struct {
	Master float64 `json:"master"`
	Music  float64 `json:"music"`
	Sfx    float64 `json:"sfx"`
}

// DisplaySettings 显示设置
type DisplaySettings struct {
	Fullscreen bool `json:"fullscreen"`
	TextSpeed  int  `json:"textSpeed"`
}

// GameProgress 游戏进度记录
type GameProgress struct {
	CompletedScenes []string `json:"completedScenes"`
	UnlockedContent []string `json:"unlockedContent"`
	PlayTime        int64    `json:"playTime"` // 累计游玩秒数
	LastSaveTime    int64    `json:"lastSaveTime"`
}

// SaveData 自动存档的磁盘格式：状态快照加上时间戳和版本标签
// 读取方应容忍未知的额外字段
type SaveData struct {
	GameState
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// SettingsData 设置的磁盘格式
type SettingsData struct {
	GameSettings
	Timestamp string `json:"timestamp"`
}

// DefaultSettings 返回硬编码的默认设置
// 设置加载失败时必须降级到这组值，设置永远不能处于不可恢复状态
func DefaultSettings() GameSettings {
	return GameSettings{
		Volume: VolumeSettings{
			Master: 0.8,
			Music:  0.7,
			Sfx:    0.8,
		},
		Display: DisplaySettings{
			Fullscreen: false,
			TextSpeed:  50,
		},
	}
}

// NewGameState 创建带默认值的初始会话状态
func NewGameState() *GameState {
	return &GameState{
		CurrentScene:      "scene01",
		CurrentEventIndex: 0,
		CurrentDialogue:   "",
		CurrentSpeaker:    "",
		CurrentChoices:    []Choice{},
		Background:        "",
		Characters:        []string{},
		IsPlaying:         false,
		IsPaused:          false,
		IsLoading:         false,
		Settings:          DefaultSettings(),
		Progress: GameProgress{
			CompletedScenes: []string{},
			UnlockedContent: []string{},
			PlayTime:        0,
			LastSaveTime:    0,
		},
	}
}
