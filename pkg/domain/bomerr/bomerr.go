// Package bomerr classifies BOM failures so the API boundary can choose a
// status without inspecting messages.
package bomerr

import (
	"errors"
	"fmt"
)

// Kind is the class of a BOM failure.
type Kind int

const (
	KindBackend Kind = iota
	KindValidation
	KindConflict
	KindNotFound
)

// String method for Kind enum
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "Validation"
	case KindConflict:
		return "Conflict"
	case KindNotFound:
		return "NotFound"
	case KindBackend:
		return "Backend"
	default:
		return "Unknown"
	}
}

// Error is a tagged failure. Message is shown to users, Code is stable.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by code so wrapped copies still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Kind == t.Kind
}

func newSentinel(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrSelfReference       = newSentinel(KindValidation, "self_reference", "부모 품목과 자식 품목이 같을 수 없습니다.")
	ErrNonPositiveQuantity = newSentinel(KindValidation, "non_positive_quantity", "소요수량은 0보다 커야 합니다.")
	ErrInvalidIdentifier   = newSentinel(KindValidation, "invalid_identifier", "유효하지 않은 식별자입니다.")
	ErrInvalidPriceMonth   = newSentinel(KindValidation, "invalid_price_month", "유효하지 않은 기준 월입니다.")
	ErrDepthOutOfRange     = newSentinel(KindValidation, "depth_out_of_range", "최대 깊이가 허용 범위를 벗어났습니다.")
	ErrItemInactive        = newSentinel(KindValidation, "item_inactive", "비활성화된 품목입니다.")
	ErrInvalidParameter    = newSentinel(KindValidation, "invalid_parameter", "잘못된 요청 파라미터입니다.")

	ErrDuplicateEdge     = newSentinel(KindConflict, "duplicate_edge", "이미 존재하는 BOM 항목입니다.")
	ErrCycleDetected     = newSentinel(KindConflict, "cycle_detected", "BOM에 순환 참조가 발생합니다.")
	ErrReachabilityLimit = newSentinel(KindConflict, "reachability_limit", "순환 참조 검사 한도를 초과했습니다.")

	ErrItemNotFound = newSentinel(KindNotFound, "item_not_found", "품목을 찾을 수 없습니다.")
	ErrEdgeNotFound = newSentinel(KindNotFound, "edge_not_found", "BOM 항목을 찾을 수 없습니다.")

	ErrLookupFailed = newSentinel(KindBackend, "lookup_failed", "BOM lookup failed")
)

// Wrap returns a copy of sentinel carrying a more specific message and cause.
func Wrap(sentinel *Error, message string, cause error) error {
	if message == "" {
		message = sentinel.Message
	}
	return &Error{Kind: sentinel.Kind, Code: sentinel.Code, Message: message, Err: cause}
}

// Backend tags a storage failure. Already-classified errors pass through.
func Backend(op string, err error) error {
	if err == nil {
		return nil
	}
	var tagged *Error
	if errors.As(err, &tagged) {
		return err
	}
	return &Error{
		Kind:    KindBackend,
		Code:    ErrLookupFailed.Code,
		Message: ErrLookupFailed.Message,
		Err:     fmt.Errorf("%s: %w", op, err),
	}
}

// KindOf reports the class of err. Untagged errors count as backend failures.
func KindOf(err error) Kind {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	return KindBackend
}

// CodeOf returns the stable code of err, or the lookup_failed code.
func CodeOf(err error) string {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Code
	}
	return ErrLookupFailed.Code
}

// MessageOf returns the user-facing message of err.
func MessageOf(err error) string {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Message
	}
	return ErrLookupFailed.Message
}
