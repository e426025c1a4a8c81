package domain

import (
	"context"
	"errors"
	"fmt"
)

// TextGenerator 远程文本生成
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// RemoteErrorKind 远程错误分类
type RemoteErrorKind string

const (
	RemoteNetwork      RemoteErrorKind = "network"
	RemoteStatus       RemoteErrorKind = "status"
	RemoteMalformed    RemoteErrorKind = "malformed"
	RemoteUnconfigured RemoteErrorKind = "unconfigured"
)

// RemoteError 远程调用失败
type RemoteError struct {
	Kind       RemoteErrorKind
	StatusCode int
	Err        error
}

func (e *RemoteError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("remote %s (status %d): %v", e.Kind, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("remote %s (status %d)", e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("remote %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("remote %s", e.Kind)
	}
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// RemoteKind 提取远程错误分类，非远程错误返回 network
func RemoteKind(err error) RemoteErrorKind {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind
	}
	return RemoteNetwork
}

// RandomSource 随机数来源，测试时可固定
type RandomSource interface {
	Intn(n int) int
}
