// internal/errors/errors_test.go
package errors

import (
	"errors"
	"fmt"
	"testing"
)

// TestErrorTypeCheckers 类型检查辅助函数应识别对应的错误类型
func TestErrorTypeCheckers(t *testing.T) {
	tests := []struct {
		err     error
		checker func(error) bool
		name    string
	}{
		{NewNotFoundError("场景不存在", nil), IsNotFoundError, "not_found"},
		{NewMalformedContentError("内容格式错误", nil), IsMalformedContentError, "malformed_content"},
		{NewPersistenceError("存档写入失败", nil), IsPersistenceError, "persistence_failure"},
		{NewCollaboratorError("音频协作者失败", nil), IsCollaboratorError, "collaborator_failure"},
		{NewValidationError("音量越界", nil), IsValidationError, "validation_error"},
	}

	for _, tt := range tests {
		if !tt.checker(tt.err) {
			t.Errorf("%s 类型检查应通过: %v", tt.name, tt.err)
		}
	}

	if IsNotFoundError(NewValidationError("其他类型", nil)) {
		t.Error("类型检查不应误报其他类型")
	}
	if IsNotFoundError(errors.New("普通错误")) {
		t.Error("类型检查不应匹配普通错误")
	}
}

// TestErrorUnwrap 错误链应可以解开到原始错误
func TestErrorUnwrap(t *testing.T) {
	original := errors.New("磁盘已满")
	wrapped := NewPersistenceError("保存游戏失败", original)

	if !errors.Is(wrapped, original) {
		t.Fatal("包装后的错误应保留原始错误链")
	}
}

// TestErrorTypeSurvivesWrapping 经过fmt包装后类型检查仍然有效
func TestErrorTypeSurvivesWrapping(t *testing.T) {
	err := NewNotFoundError("场景不存在", nil)
	wrapped := fmt.Errorf("加载失败: %w", err)

	if !IsNotFoundError(wrapped) {
		t.Fatal("类型检查应穿透fmt包装")
	}
}

// TestWrapErrorPreservesType WrapError不应改变已有AppError的类型
func TestWrapErrorPreservesType(t *testing.T) {
	inner := NewNotFoundError("场景不存在", nil)
	wrapped := WrapError(inner, "继续游戏失败", ErrorTypePersistence)

	if !IsNotFoundError(wrapped) {
		t.Fatalf("包装已有AppError应保留原类型: %v", wrapped)
	}
}

// TestErrorCode 错误代码应与类型对应
func TestErrorCode(t *testing.T) {
	err := NewValidationError("音量越界", nil)
	if err.Code != "VALIDATION_ERROR" {
		t.Fatalf("错误代码不符: %s", err.Code)
	}
}
