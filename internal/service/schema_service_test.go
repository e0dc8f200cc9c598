package service

import (
	"context"
	"testing"

	"interview-engine-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSchemaEnv(rows []*entity.QuestionRow) (ISchemaService, *fakeQuestionRowRepo) {
	questions := &fakeQuestionRowRepo{rows: rows}
	factory := &fakeFactory{uow: &fakeUow{sessions: newFakeSessionRepo(), questions: questions}}
	return NewSchemaService(factory, noopLogger{}, 2000), questions
}

func TestReloadAppliesCleanRows(t *testing.T) {
	schema, _ := newSchemaEnv(welcomeSeed())

	res, err := schema.Reload(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Applied)
	assert.NotEmpty(t, res.SchemaVersion)
	assert.Equal(t, []string{"welcome"}, res.Flows)
	assert.Equal(t, res.SchemaVersion, schema.Snapshot().Version)
}

func TestReloadRejectedSchemaKeepsPreviousSnapshot(t *testing.T) {
	schema, questions := newSchemaEnv(welcomeSeed())

	first, err := schema.Reload(context.Background())
	require.NoError(t, err)
	require.True(t, first.Applied)

	// Break a row: the rule now points at nothing.
	questions.rows = append(welcomeSeed(), &entity.QuestionRow{
		Flow: "welcome", OrderKey: "10", Qid: "broken", Label: "Broken", Type: "short-text",
		Rules: "if yes skip 404",
	})

	res, err := schema.Reload(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Applied)
	require.NotEmpty(t, res.Problems)
	assert.Equal(t, "welcome", res.Problems[0].Flow)

	// The earlier snapshot stays live.
	assert.Equal(t, first.SchemaVersion, schema.Snapshot().Version)
	flowRes, err := schema.FlowQuestions(context.Background(), "welcome")
	require.NoError(t, err)
	assert.Equal(t, first.SchemaVersion, flowRes.SchemaVersion)
	assert.Len(t, flowRes.Questions, 7)
}

func TestReloadBadFlowDoesNotPoisonOthers(t *testing.T) {
	rows := append(welcomeSeed(), &entity.QuestionRow{
		Flow: "followup", OrderKey: "not-an-order", Qid: "x", Label: "X", Type: "short-text",
	})
	schema, _ := newSchemaEnv(rows)

	res, err := schema.Reload(context.Background())
	require.NoError(t, err)

	// Whole reload is rejected when any flow fails, so the operator sees
	// the problem before anything swaps.
	assert.False(t, res.Applied)
	require.NotEmpty(t, res.Problems)
	assert.Equal(t, "followup", res.Problems[0].Flow)
}

func TestReloadFillsTextLengthFallback(t *testing.T) {
	rows := append(welcomeSeed(), &entity.QuestionRow{
		Flow: "welcome", OrderKey: "8", Qid: "about", Label: "About you?", Type: "paragraph-text",
	})
	schema, _ := newSchemaEnv(rows)

	res, err := schema.Reload(context.Background())
	require.NoError(t, err)
	require.True(t, res.Applied)

	flowRes, err := schema.FlowQuestions(context.Background(), "welcome")
	require.NoError(t, err)

	byQid := map[string]int{}
	for _, q := range flowRes.Questions {
		byQid[q.Qid] = q.MaxLen
	}
	// Blank max_len picks up the configured cap; authored caps stand.
	assert.Equal(t, 2000, byQid["about"])
	assert.Equal(t, 500, byQid["advanced_tips"])
	// Non-text questions stay uncapped.
	assert.Equal(t, 0, byQid["hours_week"])
}

func TestFlowQuestionsUnknownFlow(t *testing.T) {
	schema, _ := newSchemaEnv(welcomeSeed())
	_, err := schema.Reload(context.Background())
	require.NoError(t, err)

	_, err = schema.FlowQuestions(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownFlow)
}

func TestFlowQuestionsRendersAuthoredRows(t *testing.T) {
	schema, _ := newSchemaEnv(welcomeSeed())
	_, err := schema.Reload(context.Background())
	require.NoError(t, err)

	res, err := schema.FlowQuestions(context.Background(), "welcome")
	require.NoError(t, err)

	require.Len(t, res.Questions, 7)
	assert.Equal(t, "name", res.Questions[0].Qid)
	assert.Equal(t, "1", res.Questions[0].Order)
	assert.True(t, res.Questions[0].Required)

	exp := res.Questions[2]
	assert.Equal(t, "experience", exp.Qid)
	require.Len(t, exp.Options, 2)
	assert.Equal(t, "beginner", exp.Options[0].Token)
}
