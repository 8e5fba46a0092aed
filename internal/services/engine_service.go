// internal/services/engine_service.go
package services

import (
	"fmt"
	"sync"
	"time"

	apperrors "github.com/MiyabiWorks/NovelEngine/internal/errors"
	"github.com/MiyabiWorks/NovelEngine/internal/models"
	"github.com/MiyabiWorks/NovelEngine/internal/utils"
)

// EngineState 引擎级状态（与场景无关）
type EngineState string

const (
	EngineUninitialized EngineState = "uninitialized"
	EngineInitialized   EngineState = "initialized"
	EnginePlaying       EngineState = "playing"
	EnginePaused        EngineState = "paused"
	// Ended 只能由 end 事件到达，对本轮游玩是终态，离开需要重新开始游戏
	EngineEnded EngineState = "ended"
)

// EngineService 叙事引擎：把事件逐条解释为会话状态变更，
// 把玩家选择解析为同场景继续或场景跳转
// 会话状态的唯一写入者；互斥锁保证变更路径不被重入
type EngineService struct {
	Script *ScriptService
	State  *StateService
	Saves  *SaveService
	Audio  AudioPlayer

	// 新游戏的入口场景ID
	EntryScene string

	mutex       sync.Mutex
	engineState EngineState
	scene       *models.Scene
	cursor      *EventCursor

	// 每次进入场景后只触发一次场景结束自动存档
	sceneEndSaved bool

	sessionStart time.Time
	basePlayTime int64
}

// NewEngineService 创建叙事引擎
func NewEngineService(script *ScriptService, state *StateService, saves *SaveService, audio AudioPlayer, entryScene string) *EngineService {
	if entryScene == "" {
		entryScene = "chapter1_scene01"
	}

	return &EngineService{
		Script:      script,
		State:       state,
		Saves:       saves,
		Audio:       audio,
		EntryScene:  entryScene,
		engineState: EngineUninitialized,
	}
}

// EngineStatus 返回当前引擎状态
func (e *EngineService) EngineStatus() EngineState {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.engineState
}

// Initialize 初始化引擎：加载设置并把音量推送给音频协作者
// 必须在第一个事件执行前恰好完成一次；重复调用无操作
func (e *EngineService) Initialize() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.initializeLocked()
}

func (e *EngineService) initializeLocked() error {
	if e.engineState != EngineUninitialized {
		return nil
	}

	settings := e.Saves.LoadSettings()
	e.State.UpdateSettings(settings)

	e.pushVolumes(settings)

	e.engineState = EngineInitialized
	utils.GetLogger().Infof("叙事引擎初始化完成")
	return nil
}

// pushVolumes 把音量设置推送给音频协作者，失败只记日志
func (e *EngineService) pushVolumes(settings models.GameSettings) {
	e.logAudioErr("set_master_volume", e.Audio.SetMasterVolume(settings.Volume.Master))
	e.logAudioErr("set_music_volume", e.Audio.SetMusicVolume(settings.Volume.Music))
	e.logAudioErr("set_sfx_volume", e.Audio.SetSfxVolume(settings.Volume.Sfx))
}

// logAudioErr 音频协作者失败不中断叙事，只记录
func (e *EngineService) logAudioErr(op string, err error) {
	if err != nil {
		utils.GetLogger().Warnf("音频协作者操作失败 %s: %v", op, err)
	}
}

// StartNewGame 重置全部会话状态和进度（设置保留），加载入口场景
func (e *EngineService) StartNewGame() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if err := e.initializeLocked(); err != nil {
		return err
	}

	e.State.Reset()
	e.basePlayTime = 0
	e.sessionStart = time.Now()

	if err := e.loadSceneLocked(e.EntryScene); err != nil {
		return err
	}

	e.engineState = EnginePlaying
	e.State.SetPlaying(true)
	e.State.SetPaused(false)

	utils.GetLogger().Infof("开始新游戏: %s", e.EntryScene)
	return nil
}

// ContinueGame 从自动存档恢复会话，重新加载场景并跳回存档位置
// 跳转失败（位置越界，比如存档后场景内容变了）时停在场景开头，不崩溃
func (e *EngineService) ContinueGame() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if err := e.initializeLocked(); err != nil {
		return err
	}

	save, err := e.Saves.LoadGame()
	if err != nil {
		return err
	}
	if save == nil {
		return apperrors.NewNotFoundError("没有存档", nil)
	}

	e.State.ApplySave(save)
	e.basePlayTime = save.Progress.PlayTime
	e.sessionStart = time.Now()

	if err := e.loadSceneLocked(save.CurrentScene); err != nil {
		return err
	}

	// 跳回存档位置；加载已经把游标归零并执行了第一个事件
	if idx := save.CurrentEventIndex; idx > 0 {
		if event := e.cursor.JumpTo(idx); event != nil {
			e.State.SetEventIndex(e.cursor.Index())
			e.executeEvent(event)
		} else if e.cursor.Index() == idx {
			// 跳到了场景结尾位置，没有当前事件
			e.State.SetEventIndex(idx)
		}
	}

	e.engineState = EnginePlaying
	e.State.SetPlaying(true)
	e.State.SetPaused(false)

	utils.GetLogger().Infof("从存档继续游戏: %s@%d", save.CurrentScene, save.CurrentEventIndex)
	return nil
}

// LoadScene 整体加载一个场景并同步执行它的第一个事件
func (e *EngineService) LoadScene(sceneID string) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.loadSceneLocked(sceneID)
}

func (e *EngineService) loadSceneLocked(sceneID string) error {
	e.State.SetLoading(true)
	defer e.State.SetLoading(false)

	scene, err := e.Script.LoadScene(sceneID)
	if err != nil {
		return err
	}

	e.scene = scene
	e.cursor = NewEventCursor(scene.Events)
	e.sceneEndSaved = false

	e.State.SetScenePosition(sceneID, 0)

	// 场景声明的默认背景，可能立即被第一个事件覆盖
	if scene.Background != "" {
		e.State.SetBackground(scene.Background)
	}

	if scene.Music != "" {
		e.logAudioErr("play_music", e.Audio.PlayMusic(scene.Music, true))
	}

	// 进入场景总是同步执行位置0的事件，场景从不停在第一个事件之前
	if event := e.cursor.Current(); event != nil {
		e.executeEvent(event)
	} else {
		return e.handleSceneEndLocked()
	}

	return nil
}

// executeEvent 按事件类型解释一个事件，每个事件恰好命中一个分支
func (e *EngineService) executeEvent(event *models.SceneEvent) {
	switch event.Type {
	case models.EventDialogue:
		// 对话事件可以携带一次背景切换，在对话显示之前生效
		if event.BackgroundChange != "" {
			e.State.SetBackground(event.BackgroundChange)
		}
		speaker := event.Speaker
		if speaker == "" {
			speaker = "narrator"
		}
		e.State.SetDialogue(event.Text, speaker)

	case models.EventChoice:
		e.State.SetChoices(event.Choices)

	case models.EventShowCharacter:
		if event.Character != "" {
			e.State.ShowCharacter(event.Character)
		}

	case models.EventHideCharacter:
		if event.Character != "" {
			e.State.HideCharacter(event.Character)
		}

	case models.EventChangeBackground:
		if event.Background != "" {
			e.State.SetBackground(event.Background)
		}

	case models.EventPlayMusic:
		if event.Music != "" {
			e.logAudioErr("play_music", e.Audio.PlayMusic(event.Music, true))
		}

	case models.EventPlaySfx:
		if event.Sfx != "" {
			e.logAudioErr("play_sfx", e.Audio.PlaySfx(event.Sfx))
		}

	case models.EventEnd:
		// end 事件是本轮游玩的终态，本身不触发存档
		e.State.SetPlaying(false)
		e.engineState = EngineEnded
		utils.GetLogger().Infof("游戏结束于场景: %s", e.scene.ID)

	default:
		utils.GetLogger().Warnf("未知事件类型: %s", event.Type)
	}
}

// NextEvent 推进到下一个事件
// 仅在 Playing 状态下生效；游标耗尽走场景结束策略（自动存档，状态保持 Playing）
// 事件耗尽不等价于 end 事件，只有 end 会把引擎置为 Ended
func (e *EngineService) NextEvent() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.engineState != EnginePlaying {
		return nil
	}
	if e.cursor == nil {
		return nil
	}

	event := e.cursor.Advance()
	e.State.SetEventIndex(e.cursor.Index())

	if event != nil {
		e.executeEvent(event)
		return nil
	}

	return e.handleSceneEndLocked()
}

// handleSceneEndLocked 场景结束策略：触发一次自动存档然后停下
// 不会自动加载下一个场景——只有 end 事件或显式的选择目标能切换场景
func (e *EngineService) handleSceneEndLocked() error {
	if e.sceneEndSaved {
		return nil
	}
	e.sceneEndSaved = true

	if e.scene != nil {
		e.State.MarkSceneCompleted(e.scene.ID)
	}

	e.updateProgressLocked()

	if err := e.Saves.SaveGame(e.State.Snapshot()); err != nil {
		utils.GetLogger().Errorf("场景结束自动存档失败: %v", err)
		return err
	}

	utils.GetLogger().Infof("场景结束，已自动存档")
	return nil
}

// MakeChoice 解析玩家选择
// 找不到选项时静默失败，状态不变；带目标场景的选项整体加载目标场景，
// 否则从下一个事件继续当前场景；两条路径之后都清空选择列表
func (e *EngineService) MakeChoice(choiceID string) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	current := e.currentChoiceEventLocked()
	if current == nil {
		return nil
	}

	var choice *models.Choice
	for i := range current.Choices {
		if current.Choices[i].ID == choiceID {
			choice = &current.Choices[i]
			break
		}
	}
	if choice == nil {
		return nil
	}

	if choice.NextScene != "" {
		if err := e.loadSceneLocked(choice.NextScene); err != nil {
			return err
		}
		e.State.ClearChoices()
		return nil
	}

	// 没有目标场景：清空选择并推进一个事件
	event := e.cursor.Advance()
	e.State.SetEventIndex(e.cursor.Index())

	if event != nil {
		e.executeEvent(event)
	} else if err := e.handleSceneEndLocked(); err != nil {
		return err
	}

	e.State.ClearChoices()
	return nil
}

// currentChoiceEventLocked 返回当前的选择事件，当前事件不是选择时返回 nil
func (e *EngineService) currentChoiceEventLocked() *models.SceneEvent {
	if e.cursor == nil {
		return nil
	}
	event := e.cursor.Current()
	if event == nil || event.Type != models.EventChoice {
		return nil
	}
	return event
}

// Pause 暂停游玩，暂停音乐播放，但不改变会话状态内容
func (e *EngineService) Pause() {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.engineState != EnginePlaying {
		return
	}

	e.engineState = EnginePaused
	e.State.SetPaused(true)
	e.logAudioErr("pause_music", e.Audio.PauseMusic())
}

// Resume 从暂停恢复
func (e *EngineService) Resume() {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.engineState != EnginePaused {
		return
	}

	e.engineState = EnginePlaying
	e.State.SetPaused(false)
	e.logAudioErr("resume_music", e.Audio.ResumeMusic())
}

// SaveGame 手动存档：刷新进度记录后写入自动存档槽位
func (e *EngineService) SaveGame() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.updateProgressLocked()
	return e.Saves.SaveGame(e.State.Snapshot())
}

// updateProgressLocked 刷新累计游玩时间和存档时间戳
func (e *EngineService) updateProgressLocked() {
	playTime := e.basePlayTime
	if !e.sessionStart.IsZero() {
		playTime += int64(time.Since(e.sessionStart).Seconds())
	}
	e.State.UpdateProgress(playTime, time.Now().Unix())
}

// UpdateSettings 更新设置：写入会话状态、推送音量、独立持久化
func (e *EngineService) UpdateSettings(settings models.GameSettings) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if err := validateSettings(settings); err != nil {
		return err
	}

	e.State.UpdateSettings(settings)
	e.pushVolumes(settings)

	return e.Saves.SaveSettings(settings)
}

// validateSettings 校验音量范围 [0,1] 和文字速度范围 [0,100]
func validateSettings(settings models.GameSettings) error {
	volumes := []float64{settings.Volume.Master, settings.Volume.Music, settings.Volume.Sfx}
	for _, v := range volumes {
		if v < 0 || v > 1 {
			return apperrors.NewValidationError(
				fmt.Sprintf("音量必须在 [0,1] 范围内: %v", v), nil)
		}
	}

	if speed := settings.Display.TextSpeed; speed < 0 || speed > 100 {
		return apperrors.NewValidationError(
			fmt.Sprintf("文字速度必须在 [0,100] 范围内: %d", speed), nil)
	}

	return nil
}

// SceneProgress 返回当前场景内的位置信息
func (e *EngineService) SceneProgress() CursorProgress {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.cursor == nil {
		return CursorProgress{}
	}
	return e.cursor.Progress()
}

// CurrentScene 返回当前场景，未加载时为 nil
func (e *EngineService) CurrentScene() *models.Scene {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.scene
}
