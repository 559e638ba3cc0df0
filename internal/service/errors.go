package service

import (
	"errors"
	"fmt"
)

var (
	// ErrStorage 标记所有存储层操作失败，可用 errors.Is 判断。
	ErrStorage = errors.New("storage operation failed")
	// ErrInvalidMessage 在入站消息缺少群、用户或内容时返回。
	ErrInvalidMessage = errors.New("invalid message")
	// ErrUnknownAchievement 在成就 ID 不在目录中时返回。
	ErrUnknownAchievement = errors.New("unknown achievement")
	// ErrInvalidPeriod 在排行榜时间范围不受支持时返回。
	ErrInvalidPeriod = errors.New("invalid period")
)

// OperationError 包装单次存储操作的失败，Op 为失败的操作名。
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return err
	}
	return &OperationError{Op: op, Err: err}
}
