package verifications

import (
	"errors"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

const (
	ErrorCodeValidation = "VALIDATION_ERROR"
	ErrorCodeExtraction = "EXTRACTION_ERROR"
	ErrorCodeStorage    = "STORAGE_ERROR"
	ErrorCodeInternal   = "INTERNAL_ERROR"
)

func classifyFailure(err error) string {
	if err == nil {
		return ErrorCodeInternal
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "extract") {
		return ErrorCodeExtraction
	}
	if strings.Contains(msg, "storage") || strings.Contains(msg, "document") || strings.Contains(msg, "persist") || strings.Contains(msg, "set processing") {
		return ErrorCodeStorage
	}
	if strings.Contains(msg, "validation") {
		return ErrorCodeValidation
	}
	return ErrorCodeInternal
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
