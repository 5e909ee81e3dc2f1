package storage

import "fmt"

// ErrorCode classifies a StorageError.
type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeInternal

	// Page/buffer pool errors
	ErrCodePageNotFound
	ErrCodeInvalidPageID
	ErrCodeNoFreePages
	ErrCodePagePinned
	ErrCodeInvalidPin

	// Disk errors
	ErrCodeDiskReadFailed
	ErrCodeDiskWriteFailed
)

// StorageError is a storage-engine error carrying the failed operation,
// a classified code, and an optional wrapped cause.
type StorageError struct {
	Code    ErrorCode
	Message string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	if e.Op != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is matches StorageErrors by code, ignoring message/op/cause — callers
// compare against a code, not an instance.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func NewStorageError(code ErrorCode, op, message string, err error) *StorageError {
	return &StorageError{Code: code, Message: message, Op: op, Err: err}
}

func ErrPageNotFound(op string, pageID uint32) *StorageError {
	return NewStorageError(ErrCodePageNotFound, op, fmt.Sprintf("page %d not found", pageID), nil)
}

func ErrNoFreePages(op string) *StorageError {
	return NewStorageError(ErrCodeNoFreePages, op, "no free pages available in buffer pool", nil)
}

func ErrPagePinned(op string, pageID uint32, pinCount int32) *StorageError {
	return NewStorageError(ErrCodePagePinned, op,
		fmt.Sprintf("page %d is pinned (pin count: %d)", pageID, pinCount), nil)
}

// ErrInvalidFrame reports an out-of-range frame_id passed to the replacer —
// a fatal invariant violation per the spec, not a recoverable miss.
func ErrInvalidFrame(op string, frameID uint32) *StorageError {
	return NewStorageError(ErrCodeInvalidPin, op, fmt.Sprintf("frame %d is out of range", frameID), nil)
}

// ErrNotEvictable reports Remove called on a frame the replacer is not
// allowed to discard — also fatal per the spec.
func ErrNotEvictable(op string, frameID uint32) *StorageError {
	return NewStorageError(ErrCodeInvalidPin, op, fmt.Sprintf("frame %d is not evictable", frameID), nil)
}

func ErrDiskOperation(op string, err error) *StorageError {
	return NewStorageError(ErrCodeDiskWriteFailed, op, "disk operation failed", err)
}

// ErrInternal wraps an unexpected failure that does not fit one of the
// classified codes above (e.g. a background component failing to start).
func ErrInternal(op string, err error) *StorageError {
	return NewStorageError(ErrCodeInternal, op, "internal error", err)
}

// IsErrorCode reports whether err is a *StorageError with the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	if se, ok := err.(*StorageError); ok {
		return se.Code == code
	}
	return false
}

// GetErrorCode extracts the ErrorCode from err, or ErrCodeUnknown if err is
// not a *StorageError.
func GetErrorCode(err error) ErrorCode {
	if se, ok := err.(*StorageError); ok {
		return se.Code
	}
	return ErrCodeUnknown
}
