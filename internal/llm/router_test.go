package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_DispatchesByPurpose(t *testing.T) {
	tutor := NewMockProvider(TextResponse("tutor reply"))
	grading := NewMockProvider(TextResponse(`[]`))
	temp := 0.0

	r := NewRouter(tutor).Route(PurposeGrading, grading, PurposeConfig{MaxTokens: 2048, Temperature: &temp})

	resp, err := r.Generate(context.Background(), Request{Purpose: PurposeTutor, MaxTokens: 512, Temperature: 0.7})
	require.NoError(t, err)
	assert.Equal(t, "tutor reply", resp.Text)
	call, _ := tutor.LastCall()
	assert.Equal(t, 512, call.MaxTokens)
	assert.Equal(t, 0.7, call.Temperature)

	_, err = r.Generate(context.Background(), Request{Purpose: PurposeGrading, MaxTokens: 1024, Temperature: 0.2})
	require.NoError(t, err)
	call, _ = grading.LastCall()
	assert.Equal(t, 2048, call.MaxTokens)
	assert.Equal(t, 0.0, call.Temperature)

	assert.Same(t, grading, r.For(PurposeGrading))
	assert.Same(t, tutor, r.For(PurposeTutor))
}

func TestRouter_TuningOnlyKeepsDefaultProvider(t *testing.T) {
	mock := NewMockProvider(TextResponse("a"))
	r := NewRouter(mock).Route(PurposeTutor, nil, PurposeConfig{MaxTokens: 100})

	_, err := r.Generate(context.Background(), Request{Purpose: PurposeTutor, MaxTokens: 512, Temperature: 0.7})
	require.NoError(t, err)
	call, _ := mock.LastCall()
	assert.Equal(t, 100, call.MaxTokens)
	assert.Equal(t, 0.7, call.Temperature, "nil temperature keeps the caller's")
}
