// internal/services/cursor_test.go
package services

import (
	"testing"

	"github.com/MiyabiWorks/NovelEngine/internal/models"
)

func makeEvents(n int) []models.SceneEvent {
	events := make([]models.SceneEvent, n)
	for i := range events {
		events[i] = models.SceneEvent{Type: models.EventDialogue, Text: "line"}
	}
	return events
}

// TestCursorInitialPosition 新游标位置应为0且返回第一个事件
func TestCursorInitialPosition(t *testing.T) {
	cursor := NewEventCursor(makeEvents(3))

	if cursor.Index() != 0 {
		t.Fatalf("新游标位置应为0，实际为 %d", cursor.Index())
	}

	if cursor.Current() == nil {
		t.Fatal("新游标应返回第一个事件")
	}
}

// TestCursorAdvance 前进应逐个返回事件，越过结尾返回nil
func TestCursorAdvance(t *testing.T) {
	cursor := NewEventCursor(makeEvents(2))

	if event := cursor.Advance(); event == nil {
		t.Fatal("前进到第二个事件不应返回nil")
	}

	if event := cursor.Advance(); event != nil {
		t.Fatal("越过最后一个事件应返回nil")
	}

	if cursor.Index() != 2 {
		t.Fatalf("游标应停在结尾位置2，实际为 %d", cursor.Index())
	}

	// 到达结尾后继续前进不应越界
	cursor.Advance()
	if cursor.Index() != 2 {
		t.Fatalf("结尾处继续前进位置不应改变，实际为 %d", cursor.Index())
	}

	if !cursor.AtEnd() {
		t.Fatal("游标应报告已到达场景结尾")
	}
}

// TestCursorJumpToOutOfRange 越界跳转应静默失败且不改变位置
func TestCursorJumpToOutOfRange(t *testing.T) {
	cursor := NewEventCursor(makeEvents(3))
	cursor.Advance()

	if event := cursor.JumpTo(-1); event != nil {
		t.Fatal("跳转到负数位置应返回nil")
	}
	if cursor.Index() != 1 {
		t.Fatalf("越界跳转后位置应保持1，实际为 %d", cursor.Index())
	}

	if event := cursor.JumpTo(4); event != nil {
		t.Fatal("跳转越过结尾应返回nil")
	}
	if cursor.Index() != 1 {
		t.Fatalf("越界跳转后位置应保持1，实际为 %d", cursor.Index())
	}
}

// TestCursorJumpToEnd 跳转到len是合法的，表示场景结束
func TestCursorJumpToEnd(t *testing.T) {
	cursor := NewEventCursor(makeEvents(3))

	if event := cursor.JumpTo(3); event != nil {
		t.Fatal("跳转到结尾位置没有当前事件，应返回nil")
	}
	if cursor.Index() != 3 {
		t.Fatalf("跳转到结尾位置应生效，实际为 %d", cursor.Index())
	}
	if !cursor.AtEnd() {
		t.Fatal("结尾位置应报告场景结束")
	}
}

// TestCursorProgress 进度应报告当前位置和总数
func TestCursorProgress(t *testing.T) {
	cursor := NewEventCursor(makeEvents(5))
	cursor.Advance()
	cursor.Advance()

	progress := cursor.Progress()
	if progress.Current != 2 || progress.Total != 5 {
		t.Fatalf("进度应为 {2, 5}，实际为 {%d, %d}", progress.Current, progress.Total)
	}
}

// TestCursorReset 重置应把位置归零
func TestCursorReset(t *testing.T) {
	cursor := NewEventCursor(makeEvents(3))
	cursor.Advance()
	cursor.Reset()

	if cursor.Index() != 0 {
		t.Fatalf("重置后位置应为0，实际为 %d", cursor.Index())
	}
}

// TestCursorEmptyScene 空事件序列立即处于结尾
func TestCursorEmptyScene(t *testing.T) {
	cursor := NewEventCursor(nil)

	if cursor.Current() != nil {
		t.Fatal("空场景不应有当前事件")
	}
	if !cursor.AtEnd() {
		t.Fatal("空场景应立即处于结尾")
	}
}
