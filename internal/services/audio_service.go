// internal/services/audio_service.go
package services

import (
	"sync"
	"time"

	"github.com/MiyabiWorks/NovelEngine/internal/utils"
)

// AudioPlayer 音频协作者契约
// 实际的混音/淡入淡出在外部表现进程中完成，引擎只下发指令
// 引擎不检查音频状态，失败只用于日志
type AudioPlayer interface {
	PlayMusic(track string, fadeIn bool) error
	StopMusic() error
	PauseMusic() error
	ResumeMusic() error
	PlaySfx(ref string) error
	SetMasterVolume(volume float64) error
	SetMusicVolume(volume float64) error
	SetSfxVolume(volume float64) error
}

// AudioCue 下发给表现层的音频指令
type AudioCue struct {
	Action    string  `json:"action"` // play_music, stop_music, pause_music, resume_music, play_sfx, set_volume
	Track     string  `json:"track,omitempty"`
	FadeIn    bool    `json:"fade_in,omitempty"`
	Channel   string  `json:"channel,omitempty"` // master, music, sfx
	Volume    float64 `json:"volume,omitempty"`
	Timestamp string  `json:"timestamp"`
}

// CueSink 音频指令的接收端，由表现层桥接（WebSocket推送）注册
type CueSink func(cue AudioCue)

// AudioService 默认音频协作者：把指令推给已注册的接收端
// 没有接收端时只记录日志，不影响叙事推进
type AudioService struct {
	mutex sync.RWMutex
	sink  CueSink
}

// NewAudioService 创建音频服务
func NewAudioService() *AudioService {
	return &AudioService{}
}

// SetSink 注册指令接收端
func (s *AudioService) SetSink(sink CueSink) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.sink = sink
}

func (s *AudioService) emit(cue AudioCue) error {
	cue.Timestamp = time.Now().Format(time.RFC3339)

	s.mutex.RLock()
	sink := s.sink
	s.mutex.RUnlock()

	if sink == nil {
		utils.GetLogger().Debugf("音频指令无接收端: %s %s", cue.Action, cue.Track)
		return nil
	}

	sink(cue)
	return nil
}

// PlayMusic 请求播放背景音乐
func (s *AudioService) PlayMusic(track string, fadeIn bool) error {
	return s.emit(AudioCue{Action: "play_music", Track: track, FadeIn: fadeIn})
}

// StopMusic 请求停止背景音乐
func (s *AudioService) StopMusic() error {
	return s.emit(AudioCue{Action: "stop_music"})
}

// PauseMusic 请求暂停背景音乐
func (s *AudioService) PauseMusic() error {
	return s.emit(AudioCue{Action: "pause_music"})
}

// ResumeMusic 请求恢复背景音乐
func (s *AudioService) ResumeMusic() error {
	return s.emit(AudioCue{Action: "resume_music"})
}

// PlaySfx 请求播放一次性音效
func (s *AudioService) PlaySfx(ref string) error {
	return s.emit(AudioCue{Action: "play_sfx", Track: ref})
}

// SetMasterVolume 设置主音量
func (s *AudioService) SetMasterVolume(volume float64) error {
	return s.emit(AudioCue{Action: "set_volume", Channel: "master", Volume: clampVolume(volume)})
}

// SetMusicVolume 设置音乐音量
func (s *AudioService) SetMusicVolume(volume float64) error {
	return s.emit(AudioCue{Action: "set_volume", Channel: "music", Volume: clampVolume(volume)})
}

// SetSfxVolume 设置音效音量
func (s *AudioService) SetSfxVolume(volume float64) error {
	return s.emit(AudioCue{Action: "set_volume", Channel: "sfx", Volume: clampVolume(volume)})
}

// clampVolume 把音量限制在 [0,1]
func clampVolume(volume float64) float64 {
	if volume < 0 {
		return 0
	}
	if volume > 1 {
		return 1
	}
	return volume
}
