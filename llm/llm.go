// Package llm defines the completion-service boundary. Providers live under
// providers/ and adapt a concrete SDK to Client.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

type Message struct {
	Role    string
	Content string
}

type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

type Response struct {
	Text string
}

type Client interface {
	Chat(ctx context.Context, req Request) (Response, error)
}

// ErrorCode classifies provider failures into the three buckets callers
// are allowed to react to. Anything unrecognized is ErrorCodeOther.
type ErrorCode string

const (
	ErrorCodeQuotaExceeded      ErrorCode = "quota_exceeded"
	ErrorCodeInvalidCredentials ErrorCode = "invalid_credentials"
	ErrorCodeOther              ErrorCode = "other"
)

type Error struct {
	Code   ErrorCode
	Detail string
}

func (e *Error) Error() string {
	detail := strings.TrimSpace(e.Detail)
	if detail == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, detail)
}

func NewError(code ErrorCode, detail string) *Error {
	if code == "" {
		code = ErrorCodeOther
	}
	return &Error{Code: code, Detail: strings.TrimSpace(detail)}
}

func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Code
	}
	return ErrorCodeOther
}
