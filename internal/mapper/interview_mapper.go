package mapper

import (
	"encoding/json"
	"fmt"
	"time"

	"interview-engine-be/internal/entity"
	"interview-engine-be/internal/model"

	"gorm.io/datatypes"
)

type InterviewMapper struct{}

func NewInterviewMapper() *InterviewMapper {
	return &InterviewMapper{}
}

// Session Mappers

func (m *InterviewMapper) SessionToEntity(s *model.InterviewSession) (*entity.InterviewSession, error) {
	if s == nil {
		return nil, nil
	}

	answers := map[string]any{}
	if len(s.Answers) > 0 {
		if err := json.Unmarshal(s.Answers, &answers); err != nil {
			return nil, fmt.Errorf("decode answers for session %s: %w", s.SessionKey, err)
		}
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.InterviewSession{
		Id:            s.Id,
		SessionKey:    s.SessionKey,
		Flow:          s.Flow,
		StepIndex:     s.StepIndex,
		Answers:       answers,
		Completed:     s.Completed,
		SchemaVersion: s.SchemaVersion,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     updatedAt,
	}, nil
}

func (m *InterviewMapper) SessionToModel(s *entity.InterviewSession) (*model.InterviewSession, error) {
	if s == nil {
		return nil, nil
	}

	answers := s.Answers
	if answers == nil {
		answers = map[string]any{}
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("encode answers for session %s: %w", s.SessionKey, err)
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.InterviewSession{
		Id:            s.Id,
		SessionKey:    s.SessionKey,
		Flow:          s.Flow,
		StepIndex:     s.StepIndex,
		Answers:       datatypes.JSON(raw),
		Completed:     s.Completed,
		SchemaVersion: s.SchemaVersion,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     updatedAt,
	}, nil
}

// Question Row Mappers

func (m *InterviewMapper) QuestionRowToEntity(r *model.QuestionRow) *entity.QuestionRow {
	if r == nil {
		return nil
	}

	return &entity.QuestionRow{
		Id:       r.Id,
		Flow:     r.Flow,
		OrderKey: r.OrderKey,
		Qid:      r.Qid,
		Label:    r.Label,
		Type:     r.Type,
		Required: r.Required,
		MaxLen:   r.MaxLen,
		Help:     r.Help,
		Options:  r.Options,
		Rules:    r.Rules,
	}
}

func (m *InterviewMapper) QuestionRowToModel(r *entity.QuestionRow) *model.QuestionRow {
	if r == nil {
		return nil
	}

	return &model.QuestionRow{
		Id:       r.Id,
		Flow:     r.Flow,
		OrderKey: r.OrderKey,
		Qid:      r.Qid,
		Label:    r.Label,
		Type:     r.Type,
		Required: r.Required,
		MaxLen:   r.MaxLen,
		Help:     r.Help,
		Options:  r.Options,
		Rules:    r.Rules,
	}
}
