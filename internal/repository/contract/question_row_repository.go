package contract

import (
	"context"

	"interview-engine-be/internal/entity"
	"interview-engine-be/internal/repository/specification"
)

type QuestionRowRepository interface {
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QuestionRow, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// ReplaceFlow swaps every row of one flow in a single statement pair so a
	// concurrent reload never observes a half-written flow.
	ReplaceFlow(ctx context.Context, flow string, rows []*entity.QuestionRow) error
}
