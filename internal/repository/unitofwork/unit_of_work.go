package unitofwork

import (
	"context"

	"interview-engine-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	InterviewSessionRepository() contract.InterviewSessionRepository
	QuestionRowRepository() contract.QuestionRowRepository
}
