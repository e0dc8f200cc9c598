package service

import (
	"context"
	"sync"

	"interview-engine-be/internal/dto"
	"interview-engine-be/internal/pkg/logger"
	"interview-engine-be/internal/repository/specification"
	"interview-engine-be/internal/repository/unitofwork"
	"interview-engine-be/pkg/flow"
)

type ISchemaService interface {
	// Reload re-reads every question row from the database and, if loading
	// reports no problems, atomically swaps the active snapshot. On any
	// problem the previous snapshot stays active and the problems are
	// returned for the operator.
	Reload(ctx context.Context) (*dto.ReloadSchemaResponse, error)
	Snapshot() *flow.Snapshot
	FlowQuestions(ctx context.Context, flowName string) (*dto.FlowQuestionsResponse, error)
}

type schemaService struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
	// maxTextLen caps text answers on rows whose max_len cell is blank.
	maxTextLen int

	mu       sync.RWMutex
	snapshot *flow.Snapshot
}

func NewSchemaService(uowFactory unitofwork.RepositoryFactory, logger logger.ILogger, maxTextLen int) ISchemaService {
	return &schemaService{
		uowFactory: uowFactory,
		logger:     logger,
		maxTextLen: maxTextLen,
		snapshot:   flow.EmptySnapshot(),
	}
}

func (s *schemaService) Snapshot() *flow.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *schemaService) Reload(ctx context.Context) (*dto.ReloadSchemaResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	rows, err := uow.QuestionRowRepository().FindAll(ctx, specification.OrderBy{Field: "flow"})
	if err != nil {
		return nil, err
	}

	raw := make([]flow.RawRow, len(rows))
	for i, row := range rows {
		raw[i] = flow.RawRow{
			Flow:     row.Flow,
			Order:    row.OrderKey,
			Qid:      row.Qid,
			Label:    row.Label,
			Type:     row.Type,
			Required: row.Required,
			MaxLen:   row.MaxLen,
			Help:     row.Help,
			Options:  row.Options,
			Rules:    row.Rules,
		}
	}

	snapshot, problems := flow.Load(raw)
	if len(problems) > 0 {
		problemDTOs := make([]dto.SchemaProblemDTO, len(problems))
		for i, p := range problems {
			problemDTOs[i] = dto.SchemaProblemDTO{
				Flow:    p.Flow,
				Order:   p.Order,
				Qid:     p.Qid,
				Message: p.Message,
			}
			s.logger.Error("schema", "Question row rejected", map[string]interface{}{
				"flow":    p.Flow,
				"order":   p.Order,
				"qid":     p.Qid,
				"problem": p.Message,
			})
		}
		return &dto.ReloadSchemaResponse{
			Applied:  false,
			Problems: problemDTOs,
		}, nil
	}

	s.applyTextLenFallback(snapshot)

	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()

	s.logger.Info("schema", "Schema reloaded", map[string]interface{}{
		"version":   snapshot.Version,
		"flows":     snapshot.Flows(),
		"questions": snapshot.QuestionCount(),
	})

	return &dto.ReloadSchemaResponse{
		Applied:       true,
		SchemaVersion: snapshot.Version,
		Flows:         snapshot.Flows(),
	}, nil
}

// applyTextLenFallback fills in the configured cap on text questions whose
// row left max_len blank, before the snapshot goes live.
func (s *schemaService) applyTextLenFallback(snapshot *flow.Snapshot) {
	if s.maxTextLen <= 0 {
		return
	}
	for _, name := range snapshot.Flows() {
		questions, _ := snapshot.Flow(name)
		for _, q := range questions {
			if q.MaxLen == 0 && (q.Type == flow.TypeShortText || q.Type == flow.TypeParagraphText) {
				q.MaxLen = s.maxTextLen
			}
		}
	}
}

func (s *schemaService) FlowQuestions(ctx context.Context, flowName string) (*dto.FlowQuestionsResponse, error) {
	snapshot := s.Snapshot()
	questions, ok := snapshot.Flow(flowName)
	if !ok {
		return nil, ErrUnknownFlow
	}

	views := make([]dto.QuestionView, len(questions))
	for i, q := range questions {
		views[i] = questionView(q, nil)
	}
	return &dto.FlowQuestionsResponse{
		Flow:          flowName,
		SchemaVersion: snapshot.Version,
		Questions:     views,
	}, nil
}

// questionView renders a question for the chat gateway. A nil visibility map
// means "as authored", without per-session rule effects.
func questionView(q *flow.Question, vis flow.VisibilityMap) dto.QuestionView {
	options := make([]dto.OptionView, len(q.Options))
	for i, opt := range q.Options {
		options[i] = dto.OptionView{Label: opt.Label, Token: opt.Token}
	}

	optional := false
	required := q.Required
	if vis != nil {
		optional = vis[q.Qid] == flow.Optional
		required = flow.EffectiveRequired(q, vis)
	}

	return dto.QuestionView{
		Qid:      q.Qid,
		Order:    q.Order.String(),
		Label:    q.Label,
		Help:     q.Help,
		Type:     string(q.Type),
		Required: required,
		MaxLen:   q.MaxLen,
		Options:  options,
		Optional: optional,
	}
}
