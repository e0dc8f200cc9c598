package service

import "errors"

var (
	ErrUnknownFlow     = errors.New("flow is not loaded")
	ErrSessionExists   = errors.New("session already exists for this key")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session is already completed")
	ErrWrongQuestion   = errors.New("answer targets a question that is not current")
	ErrNotAtEnd        = errors.New("interview still has unanswered visible questions")
)
