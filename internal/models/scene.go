// internal/models/scene.go
package models

// EventType 场景事件类型
type EventType string

const (
	EventDialogue         EventType = "dialogue"
	EventChoice           EventType = "choice"
	EventShowCharacter    EventType = "showCharacter"
	EventHideCharacter    EventType = "hideCharacter"
	EventChangeBackground EventType = "changeBackground"
	EventPlayMusic        EventType = "playMusic"
	EventPlaySfx          EventType = "playSfx"
	EventEnd              EventType = "end"
)

// Scene 表示一个完整的场景：一段共享背景/音乐上下文的有序事件脚本
// 加载后不可变，场景切换时整体替换
type Scene struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Background string       `json:"background,omitempty"`
	Music      string       `json:"music,omitempty"`
	Events     []SceneEvent `json:"events"`
}

// SceneEvent 场景中的一条类型化指令
// 每种类型只使用与其相关的字段
type SceneEvent struct {
	Type    EventType `json:"type"`
	Speaker string    `json:"speaker,omitempty"`
	Text    string    `json:"text,omitempty"`
	// dialogue 事件可以附带一次背景切换，在对话显示前立即生效
	BackgroundChange string   `json:"backgroundChange,omitempty"`
	Character        string   `json:"character,omitempty"`
	Position         string   `json:"position,omitempty"` // left, center, right
	Background       string   `json:"background,omitempty"`
	Music            string   `json:"music,omitempty"`
	Sfx              string   `json:"sfx,omitempty"`
	Choices          []Choice `json:"choices,omitempty"`
	NextScene        string   `json:"nextScene,omitempty"`
}

// Choice 选择事件中的一个选项
// ID 在同一事件内唯一；NextScene 为空表示继续当前场景
type Choice struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	NextScene string `json:"nextScene,omitempty"`
	Condition string `json:"condition,omitempty"`
}

// RawSceneFile 结构化存盘格式（新格式）：场景元数据 + 独立的脚本列表
// 旧格式直接匹配 Scene 结构，按原样使用
type RawSceneFile struct {
	Scene  *RawSceneMeta   `json:"scene"`
	Script []RawScriptItem `json:"script"`
}

// RawSceneMeta 新格式中嵌套的场景元数据
type RawSceneMeta struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Background string `json:"background,omitempty"`
	Music      string `json:"music,omitempty"`
}

// RawScriptItem 新格式脚本列表中的一项
// 类型表见 ScriptService.convertScriptToEvents
type RawScriptItem struct {
	Type      string            `json:"type"`
	Speaker   string            `json:"speaker,omitempty"`
	Text      string            `json:"text,omitempty"`
	Character string            `json:"character,omitempty"`
	Position  string            `json:"position,omitempty"`
	Asset     string            `json:"asset,omitempty"`
	Options   []RawScriptOption `json:"options,omitempty"`
}

// RawScriptOption 新格式选择项
type RawScriptOption struct {
	Text      string `json:"text"`
	NextScene string `json:"next_scene,omitempty"`
}

// ContentManifest 内容包清单（content/manifest.yaml）
// 缺失时不报错，使用默认入口场景
type ContentManifest struct {
	Title      string   `yaml:"title"`
	Version    string   `yaml:"version"`
	EntryScene string   `yaml:"entry_scene"`
	Chapters   []string `yaml:"chapters"`
}
