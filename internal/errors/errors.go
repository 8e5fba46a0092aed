// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// ErrorType 定义错误类型
type ErrorType string

const (
	// 引擎错误分类
	ErrorTypeNotFound         ErrorType = "not_found"            // 场景/角色ID无法解析
	ErrorTypeMalformedContent ErrorType = "malformed_content"    // 内容规范化时遇到意外结构
	ErrorTypePersistence      ErrorType = "persistence_failure"  // 存档/设置读写失败
	ErrorTypeCollaborator     ErrorType = "collaborator_failure" // 音频等外部协作者失败，非致命
	ErrorTypeValidation       ErrorType = "validation_error"
)

// AppError 应用程序错误结构
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	Code    string // 用户友好的错误代码
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap 实现错误链接
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError 创建新的 AppError
func NewAppError(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     originalError,
		Code:    generateErrorCode(errType),
	}
}

// NewNotFoundError 创建未找到错误
func NewNotFoundError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, originalError)
}

// NewMalformedContentError 创建内容格式错误
func NewMalformedContentError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeMalformedContent, message, originalError)
}

// NewPersistenceError 创建持久化错误
func NewPersistenceError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypePersistence, message, originalError)
}

// NewCollaboratorError 创建协作者错误
func NewCollaboratorError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeCollaborator, message, originalError)
}

// NewValidationError 创建验证错误
func NewValidationError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeValidation, message, originalError)
}

// IsNotFoundError 检查是否为未找到错误
func IsNotFoundError(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsMalformedContentError 检查是否为内容格式错误
func IsMalformedContentError(err error) bool {
	return isType(err, ErrorTypeMalformedContent)
}

// IsPersistenceError 检查是否为持久化错误
func IsPersistenceError(err error) bool {
	return isType(err, ErrorTypePersistence)
}

// IsCollaboratorError 检查是否为协作者错误
func IsCollaboratorError(err error) bool {
	return isType(err, ErrorTypeCollaborator)
}

// IsValidationError 检查是否为验证错误
func IsValidationError(err error) bool {
	return isType(err, ErrorTypeValidation)
}

func isType(err error, errType ErrorType) bool {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type == errType
	}
	return false
}

// generateErrorCode 根据错误类型生成错误代码
func generateErrorCode(errType ErrorType) string {
	switch errType {
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeMalformedContent:
		return "MALFORMED_CONTENT"
	case ErrorTypePersistence:
		return "PERSISTENCE_FAILURE"
	case ErrorTypeCollaborator:
		return "COLLABORATOR_FAILURE"
	case ErrorTypeValidation:
		return "VALIDATION_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

// WrapError 包装现有错误
func WrapError(err error, message string, errType ErrorType) error {
	if err == nil {
		return nil
	}

	var appError *AppError
	if errors.As(err, &appError) {
		// 如果已经是 AppError，只更新消息
		return &AppError{
			Type:    appError.Type,
			Message: fmt.Sprintf("%s: %s", message, appError.Message),
			Err:     appError,
			Code:    appError.Code,
		}
	}

	// 否则创建新的 AppError
	return NewAppError(errType, message, err)
}
