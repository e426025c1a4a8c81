package errors

import (
	"github.com/go-kratos/kratos/v2/errors"
)

// 错误原因（reason），跨服务保持一致
const (
	ReasonBadRequest           = "BAD_REQUEST"
	ReasonValidationFailed     = "VALIDATION_FAILED"
	ReasonNotFound             = "NOT_FOUND"
	ReasonConversationNotFound = "CONVERSATION_NOT_FOUND"
	ReasonSessionNotFound      = "SESSION_NOT_FOUND"
	ReasonInvalidEventType     = "INVALID_EVENT_TYPE"
	ReasonStorageUnavailable   = "STORAGE_UNAVAILABLE"
	ReasonRemoteUnavailable    = "REMOTE_UNAVAILABLE"
	ReasonInternal             = "INTERNAL_SERVER_ERROR"
)

// Common errors
var (
	ErrBadRequest          = errors.BadRequest(ReasonBadRequest, "Bad request")
	ErrNotFound            = errors.NotFound(ReasonNotFound, "Resource not found")
	ErrInternalServerError = errors.InternalServer(ReasonInternal, "Internal server error")
	ErrServiceUnavailable  = errors.ServiceUnavailable(ReasonStorageUnavailable, "Service unavailable")
)

// NewBadRequest creates a new bad request error.
func NewBadRequest(reason, message string) *errors.Error {
	return errors.BadRequest(reason, message)
}

// NewNotFound creates a new not found error.
func NewNotFound(reason, message string) *errors.Error {
	return errors.NotFound(reason, message)
}

// NewServiceUnavailable creates a new service unavailable error.
func NewServiceUnavailable(reason, message string) *errors.Error {
	return errors.ServiceUnavailable(reason, message)
}

// NewInternalServerError creates a new internal server error.
func NewInternalServerError(reason, message string) *errors.Error {
	return errors.InternalServer(reason, message)
}

// FromError 将任意错误转换为 kratos 错误，未知错误视为 500
func FromError(err error) *errors.Error {
	if err == nil {
		return nil
	}
	return errors.FromError(err)
}

// IsNotFound 判断是否为 404 类错误
func IsNotFound(err error) bool {
	return errors.IsNotFound(err)
}
