package implementation

import (
	"context"

	"interview-engine-be/internal/entity"
	"interview-engine-be/internal/mapper"
	"interview-engine-be/internal/model"
	"interview-engine-be/internal/repository/contract"
	"interview-engine-be/internal/repository/specification"

	"gorm.io/gorm"
)

type QuestionRowRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.InterviewMapper
}

func NewQuestionRowRepository(db *gorm.DB) contract.QuestionRowRepository {
	return &QuestionRowRepositoryImpl{
		db:     db,
		mapper: mapper.NewInterviewMapper(),
	}
}

func (r *QuestionRowRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *QuestionRowRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QuestionRow, error) {
	var models []*model.QuestionRow
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.QuestionRow, len(models))
	for i, m := range models {
		entities[i] = r.mapper.QuestionRowToEntity(m)
	}
	return entities, nil
}

func (r *QuestionRowRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.QuestionRow{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *QuestionRowRepositoryImpl) ReplaceFlow(ctx context.Context, flow string, rows []*entity.QuestionRow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("flow = ?", flow).Delete(&model.QuestionRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		models := make([]*model.QuestionRow, len(rows))
		for i, row := range rows {
			models[i] = r.mapper.QuestionRowToModel(row)
		}
		return tx.Create(models).Error
	})
}
