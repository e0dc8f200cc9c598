package service

import (
	"context"
	"encoding/json"
	"time"

	"interview-engine-be/internal/dto"
	"interview-engine-be/internal/entity"
	"interview-engine-be/internal/pkg/logger"
	"interview-engine-be/internal/repository/memory"
	"interview-engine-be/internal/repository/specification"
	"interview-engine-be/internal/repository/unitofwork"
	"interview-engine-be/pkg/flow"

	"github.com/google/uuid"
)

type IInterviewService interface {
	Begin(ctx context.Context, req *dto.BeginInterviewRequest) (*dto.InterviewStateResponse, error)
	Get(ctx context.Context, sessionKey string) (*dto.InterviewStateResponse, error)
	// Resume re-validates a paused session against the current schema and
	// returns the question to re-ask. Answers survive schema reloads;
	// answers whose question no longer exists stay stored but inert.
	Resume(ctx context.Context, sessionKey string) (*dto.InterviewStateResponse, error)
	// SubmitAnswer validates one answer for the current question. A
	// validation failure comes back as a value, leaves the session
	// untouched, and re-asks the same question.
	SubmitAnswer(ctx context.Context, sessionKey string, req *dto.SubmitAnswerRequest) (*dto.InterviewStateResponse, *flow.InputError, error)
	Complete(ctx context.Context, sessionKey string) (*dto.InterviewStateResponse, error)
	// Reset wipes a session's answers and position in place so the same
	// key can run the interview again, completed or not.
	Reset(ctx context.Context, sessionKey string) (*dto.InterviewStateResponse, error)
}

type interviewService struct {
	uowFactory       unitofwork.RepositoryFactory
	schemaService    ISchemaService
	sessionCache     *memory.SessionCache
	publisherService IPublisherService
	logger           logger.ILogger
	defaultFlow      string
	now              func() time.Time
}

func NewInterviewService(
	uowFactory unitofwork.RepositoryFactory,
	schemaService ISchemaService,
	sessionCache *memory.SessionCache,
	publisherService IPublisherService,
	log logger.ILogger,
	defaultFlow string,
) IInterviewService {
	return &interviewService{
		uowFactory:       uowFactory,
		schemaService:    schemaService,
		sessionCache:     sessionCache,
		publisherService: publisherService,
		logger:           log,
		defaultFlow:      defaultFlow,
		now:              time.Now,
	}
}

func (c *interviewService) Begin(ctx context.Context, req *dto.BeginInterviewRequest) (*dto.InterviewStateResponse, error) {
	flowName := req.Flow
	if flowName == "" {
		flowName = c.defaultFlow
	}
	snapshot := c.schemaService.Snapshot()
	questions, ok := snapshot.Flow(flowName)
	if !ok {
		return nil, ErrUnknownFlow
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	existing, err := uow.InterviewSessionRepository().FindOne(ctx, specification.BySessionKey{SessionKey: req.SessionKey})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		// A completed row also blocks Begin: restarting is an explicit
		// Reset, never an accident of re-sending the first message.
		return nil, ErrSessionExists
	}

	session := &entity.InterviewSession{
		Id:            uuid.New(),
		SessionKey:    req.SessionKey,
		Flow:          flowName,
		StepIndex:     0,
		Answers:       map[string]any{},
		SchemaVersion: snapshot.Version,
		CreatedAt:     c.now(),
	}
	if err := c.settle(ctx, session, questions); err != nil {
		return nil, err
	}
	if err := uow.InterviewSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}
	c.sessionCache.Save(session)

	c.logger.Info("interview", "Session started", map[string]interface{}{
		"session_key": session.SessionKey,
		"flow":        flowName,
		"version":     snapshot.Version,
	})
	return c.state(session, questions), nil
}

func (c *interviewService) Get(ctx context.Context, sessionKey string) (*dto.InterviewStateResponse, error) {
	session, questions, err := c.loadSession(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	return c.state(session, questions), nil
}

func (c *interviewService) Resume(ctx context.Context, sessionKey string) (*dto.InterviewStateResponse, error) {
	session, questions, err := c.loadSession(ctx, sessionKey)
	if err != nil {
		return nil, err
	}

	snapshot := c.schemaService.Snapshot()
	if session.SchemaVersion != snapshot.Version {
		c.logger.Info("interview", "Session resumed on newer schema", map[string]interface{}{
			"session_key": sessionKey,
			"old_version": session.SchemaVersion,
			"new_version": snapshot.Version,
		})
		for qid := range session.Answers {
			if snapshot.Question(session.Flow, qid) == nil {
				c.logger.Warn("interview", "Stored answer has no question in current schema", map[string]interface{}{
					"session_key": sessionKey,
					"qid":         qid,
				})
			}
		}
		session.SchemaVersion = snapshot.Version
	}

	if !session.Completed {
		if err := c.settle(ctx, session, questions); err != nil {
			return nil, err
		}
	}
	if err := c.persist(ctx, session); err != nil {
		return nil, err
	}
	return c.state(session, questions), nil
}

func (c *interviewService) SubmitAnswer(ctx context.Context, sessionKey string, req *dto.SubmitAnswerRequest) (*dto.InterviewStateResponse, *flow.InputError, error) {
	session, questions, err := c.loadSession(ctx, sessionKey)
	if err != nil {
		return nil, nil, err
	}
	if session.Completed {
		return nil, nil, ErrSessionClosed
	}

	vis, failedOpen := flow.Evaluate(questions, session.Answers)
	c.logFailOpen(sessionKey, failedOpen)

	currentIdx, ok := flow.NextVisible(questions, vis, session.StepIndex)
	if !ok {
		// Every remaining question is skipped; nothing left to answer.
		if err := c.finish(ctx, session, questions); err != nil {
			return nil, nil, err
		}
		return c.state(session, questions), nil, nil
	}
	current := questions[currentIdx]
	if current.Qid != req.Qid {
		return nil, nil, ErrWrongQuestion
	}

	raw := decodeValue(req.Value)
	normalized, inputErr := flow.ValidateInput(current, vis, raw)
	if inputErr != nil {
		// Recoverable by design: state untouched, same question re-asked.
		return c.state(session, questions), inputErr, nil
	}

	if normalized == nil {
		delete(session.Answers, current.Qid)
	} else {
		if session.Answers == nil {
			session.Answers = map[string]any{}
		}
		session.Answers[current.Qid] = normalized
	}

	// Full recompute against the updated answers; a changed answer may
	// retract earlier skip or optional effects.
	vis, failedOpen = flow.Evaluate(questions, session.Answers)
	c.logFailOpen(sessionKey, failedOpen)

	next := currentIdx + 1
	if jump, jumped := flow.NextIndex(currentIdx, questions, session.Answers); jumped {
		if jump <= currentIdx {
			c.logger.Warn("interview", "Backward jump", map[string]interface{}{
				"session_key": sessionKey,
				"from":        current.Order.String(),
				"to":          questions[jump].Order.String(),
			})
		}
		next = jump
	}

	if nextIdx, ok := flow.NextVisible(questions, vis, next); ok {
		session.StepIndex = nextIdx
		if err := c.persist(ctx, session); err != nil {
			return nil, nil, err
		}
		return c.state(session, questions), nil, nil
	}

	if err := c.finish(ctx, session, questions); err != nil {
		return nil, nil, err
	}
	return c.state(session, questions), nil, nil
}

func (c *interviewService) Complete(ctx context.Context, sessionKey string) (*dto.InterviewStateResponse, error) {
	session, questions, err := c.loadSession(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	if session.Completed {
		// Idempotent: the completion event fired exactly once already.
		return c.state(session, questions), nil
	}

	vis, failedOpen := flow.Evaluate(questions, session.Answers)
	c.logFailOpen(sessionKey, failedOpen)
	if _, ok := flow.NextVisible(questions, vis, session.StepIndex); ok {
		return nil, ErrNotAtEnd
	}

	if err := c.finish(ctx, session, questions); err != nil {
		return nil, err
	}
	return c.state(session, questions), nil
}

func (c *interviewService) Reset(ctx context.Context, sessionKey string) (*dto.InterviewStateResponse, error) {
	session, _, err := c.loadSession(ctx, sessionKey)
	if err != nil {
		return nil, err
	}

	snapshot := c.schemaService.Snapshot()
	questions, ok := snapshot.Flow(session.Flow)
	if !ok {
		return nil, ErrUnknownFlow
	}

	session.StepIndex = 0
	session.Answers = map[string]any{}
	session.Completed = false
	session.SchemaVersion = snapshot.Version
	if err := c.settle(ctx, session, questions); err != nil {
		return nil, err
	}
	if err := c.persist(ctx, session); err != nil {
		return nil, err
	}

	c.logger.Info("interview", "Session reset", map[string]interface{}{
		"session_key": sessionKey,
		"flow":        session.Flow,
	})
	return c.state(session, questions), nil
}

// loadSession fetches a session by key, cache first, and the questions of
// its flow from the current snapshot.
func (c *interviewService) loadSession(ctx context.Context, sessionKey string) (*entity.InterviewSession, []*flow.Question, error) {
	session, found := c.sessionCache.Get(sessionKey)
	if !found {
		uow := c.uowFactory.NewUnitOfWork(ctx)
		var err error
		session, err = uow.InterviewSessionRepository().FindOne(ctx, specification.BySessionKey{SessionKey: sessionKey})
		if err != nil {
			return nil, nil, err
		}
		if session == nil {
			return nil, nil, ErrSessionNotFound
		}
		c.sessionCache.Save(session)
	}
	// The cache hands out its live pointer. Mutations stage on a copy so a
	// failed persist never leaves the cache ahead of the store.
	session = session.Clone()

	questions, ok := c.schemaService.Snapshot().Flow(session.Flow)
	if !ok {
		return nil, nil, ErrUnknownFlow
	}
	return session, questions, nil
}

// settle positions StepIndex at the first question that is actually askable
// and completes the session outright when nothing is. Covers the degenerate
// sheet whose rules skip the entire flow from the first evaluation.
func (c *interviewService) settle(ctx context.Context, session *entity.InterviewSession, questions []*flow.Question) error {
	vis, failedOpen := flow.Evaluate(questions, session.Answers)
	c.logFailOpen(session.SessionKey, failedOpen)

	idx, ok := flow.NextVisible(questions, vis, session.StepIndex)
	if !ok {
		return c.markCompleted(ctx, session)
	}
	session.StepIndex = idx
	return nil
}

// finish marks the session completed, persists it, and publishes the
// completion event. finish is only ever reached on a not-yet-completed
// session, which keeps the event at exactly once per run.
func (c *interviewService) finish(ctx context.Context, session *entity.InterviewSession, questions []*flow.Question) error {
	session.StepIndex = len(questions)
	if err := c.markCompleted(ctx, session); err != nil {
		return err
	}
	return c.persist(ctx, session)
}

func (c *interviewService) markCompleted(ctx context.Context, session *entity.InterviewSession) error {
	session.Completed = true

	payload := dto.PublishInterviewCompletedMessage{
		SessionKey:    session.SessionKey,
		Flow:          session.Flow,
		SchemaVersion: session.SchemaVersion,
		Answers:       session.Answers,
	}
	msgJson, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := c.publisherService.Publish(ctx, msgJson); err != nil {
		return err
	}

	c.logger.Info("interview", "Session completed", map[string]interface{}{
		"session_key": session.SessionKey,
		"flow":        session.Flow,
		"answers":     len(session.Answers),
	})
	return nil
}

func (c *interviewService) persist(ctx context.Context, session *entity.InterviewSession) error {
	now := c.now()
	session.UpdatedAt = &now

	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.InterviewSessionRepository().Update(ctx, session); err != nil {
		return err
	}
	c.sessionCache.Save(session)
	return nil
}

func (c *interviewService) state(session *entity.InterviewSession, questions []*flow.Question) *dto.InterviewStateResponse {
	vis, _ := flow.Evaluate(questions, session.Answers)

	res := &dto.InterviewStateResponse{
		SessionKey:    session.SessionKey,
		Flow:          session.Flow,
		Completed:     session.Completed,
		Answers:       session.Answers,
		SchemaVersion: session.SchemaVersion,
		CreatedAt:     session.CreatedAt,
	}
	for _, q := range questions {
		if vis[q.Qid] == flow.Skip {
			continue
		}
		res.TotalVisible++
		if _, answered := session.Answers[q.Qid]; answered {
			res.Answered++
		}
	}
	if !session.Completed {
		if idx, ok := flow.NextVisible(questions, vis, session.StepIndex); ok {
			view := questionView(questions[idx], vis)
			res.Question = &view
		}
	}
	return res
}

func (c *interviewService) logFailOpen(sessionKey string, failedOpen bool) {
	if !failedOpen {
		return
	}
	c.logger.Error("interview", "Rule evaluation failed open, showing all questions", map[string]interface{}{
		"session_key": sessionKey,
	})
}

func decodeValue(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		// Not valid JSON from the gateway; treat the bytes as plain text.
		return string(raw)
	}
	return value
}
