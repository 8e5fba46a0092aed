// internal/services/cursor.go
package services

import (
	"github.com/MiyabiWorks/NovelEngine/internal/models"
)

// CursorProgress 当前场景内的位置信息，用于存档和UI
type CursorProgress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// EventCursor 跟踪当前场景事件序列中的位置
// 不变量：0 <= index <= len(events)，index == len 表示场景结束（无当前事件）
type EventCursor struct {
	events []models.SceneEvent
	index  int
}

// NewEventCursor 为一个场景的事件序列创建游标，位置归零
func NewEventCursor(events []models.SceneEvent) *EventCursor {
	return &EventCursor{
		events: events,
		index:  0,
	}
}

// Current 返回当前事件；到达场景结尾时返回 nil
func (c *EventCursor) Current() *models.SceneEvent {
	if c.index >= len(c.events) {
		return nil
	}
	return &c.events[c.index]
}

// Advance 前进一步并返回新的当前事件；越过结尾返回 nil
func (c *EventCursor) Advance() *models.SceneEvent {
	if c.index < len(c.events) {
		c.index++
	}
	return c.Current()
}

// JumpTo 跳转到指定位置
// 越界时静默失败：不改变位置，返回 nil；index == len 合法，表示场景结束
func (c *EventCursor) JumpTo(index int) *models.SceneEvent {
	if index < 0 || index > len(c.events) {
		return nil
	}
	c.index = index
	return c.Current()
}

// Index 返回当前位置
func (c *EventCursor) Index() int {
	return c.index
}

// AtEnd 是否已到达场景结尾
func (c *EventCursor) AtEnd() bool {
	return c.index >= len(c.events)
}

// Progress 返回 {当前位置, 总事件数}
func (c *EventCursor) Progress() CursorProgress {
	return CursorProgress{
		Current: c.index,
		Total:   len(c.events),
	}
}

// Reset 位置归零，每次加载新场景时调用
func (c *EventCursor) Reset() {
	c.index = 0
}
