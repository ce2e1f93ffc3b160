package normalize

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gearshift-group/lot-scraper/internal/resilience"
	"github.com/gearshift-group/lot-scraper/pkg/anthropic"
)

type mockAI struct {
	mock.Mock
}

func (m *mockAI) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if resp := args.Get(0); resp != nil {
		return resp.(*anthropic.MessageResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestModelTrim_ClassifierResponse(t *testing.T) {
	ai := &mockAI{}
	ai.On("CreateMessage", mock.Anything, mock.Anything).Return(
		textResponse(`{"model": "911", "trim": "GT3 RS", "generation": "991.2", "year": 2018}`), nil)

	n := NewModelTrimNormalizer(ai, "test-model", fastRetry())
	mt := n.Normalize(context.Background(), "8k-Mile 2018 Porsche 911 GT3 RS")

	assert.Equal(t, "911", mt.Model)
	assert.Equal(t, "GT3 RS", mt.Trim)
	assert.Equal(t, "991.2", mt.Generation)
	assert.Equal(t, 2018, mt.Year)
	ai.AssertNumberOfCalls(t, "CreateMessage", 1)
}

func TestModelTrim_FencedResponseParsed(t *testing.T) {
	ai := &mockAI{}
	ai.On("CreateMessage", mock.Anything, mock.Anything).Return(
		textResponse("```json\n{\"model\": \"Cayman\", \"trim\": \"GT4\", \"generation\": null, \"year\": 2016}\n```"), nil)

	n := NewModelTrimNormalizer(ai, "test-model", fastRetry())
	mt := n.Normalize(context.Background(), "2016 Porsche Cayman GT4")

	assert.Equal(t, "Cayman", mt.Model)
	assert.Equal(t, "GT4", mt.Trim)
}

func TestModelTrim_GenerationBackfilledFromYear(t *testing.T) {
	ai := &mockAI{}
	ai.On("CreateMessage", mock.Anything, mock.Anything).Return(
		textResponse(`{"model": "911", "trim": "Carrera S", "generation": null, "year": 2006}`), nil)

	n := NewModelTrimNormalizer(ai, "test-model", fastRetry())
	mt := n.Normalize(context.Background(), "2006 Porsche 911 Carrera S")

	assert.Equal(t, "997.1", mt.Generation)
}

func TestModelTrim_DenylistShortCircuits(t *testing.T) {
	ai := &mockAI{}

	n := NewModelTrimNormalizer(ai, "test-model", fastRetry())
	mt := n.Normalize(context.Background(), "2021 Porsche Cayenne Turbo")

	assert.True(t, mt.IsZero())
	ai.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestModelTrim_RateLimitFallsBackWithoutRetry(t *testing.T) {
	ai := &mockAI{}
	ai.On("CreateMessage", mock.Anything, mock.Anything).Return(
		nil, resilience.NewRateLimitError(errors.New("429")))

	n := NewModelTrimNormalizer(ai, "test-model", fastRetry())
	mt := n.Normalize(context.Background(), "2018 Porsche 911 GT3 RS")

	assert.Equal(t, "911", mt.Model)
	assert.Equal(t, "GT3 RS", mt.Trim)
	assert.Equal(t, 2018, mt.Year)
	assert.Equal(t, "991.2", mt.Generation)
	ai.AssertNumberOfCalls(t, "CreateMessage", 1)
}

func TestModelTrim_OverloadRetriedThenFallsBack(t *testing.T) {
	ai := &mockAI{}
	ai.On("CreateMessage", mock.Anything, mock.Anything).Return(
		nil, resilience.NewOverloadError(errors.New("529")))

	n := NewModelTrimNormalizer(ai, "test-model", fastRetry())
	mt := n.Normalize(context.Background(), "2016 Porsche Cayman GT4")

	assert.Equal(t, "Cayman", mt.Model)
	assert.Equal(t, "GT4", mt.Trim)
	ai.AssertNumberOfCalls(t, "CreateMessage", 2)
}

func TestModelTrim_UnparseableResponseFallsBack(t *testing.T) {
	ai := &mockAI{}
	ai.On("CreateMessage", mock.Anything, mock.Anything).Return(
		textResponse("I could not classify that title."), nil)

	n := NewModelTrimNormalizer(ai, "test-model", fastRetry())
	mt := n.Normalize(context.Background(), "2023 Porsche 911 GT3 Touring")

	assert.Equal(t, "911", mt.Model)
	assert.Equal(t, "GT3 Touring", mt.Trim)
}

func TestFallback_SpecificTrimBeatsSubstring(t *testing.T) {
	cases := []struct {
		title string
		trim  string
	}{
		{"2019 Porsche 911 GT3 RS Weissach", "GT3 RS"},
		{"2018 Porsche 911 GT3 Touring", "GT3 Touring"},
		{"2015 Porsche 911 GT3", "GT3"},
		{"2018 Porsche 911 GT2 RS", "GT2 RS"},
		{"2022 Porsche 718 Cayman GT4 RS", "GT4 RS"},
		{"2017 Porsche 911 Turbo S", "Turbo S"},
		{"2017 Porsche 911 Turbo", "Turbo"},
		{"2015 Porsche 911 Carrera 4 GTS", "Carrera 4 GTS"},
		{"2015 Porsche 911 Carrera 4S", "Carrera 4S"},
		{"2015 Porsche 911 Carrera S", "Carrera S"},
		{"2024 Porsche 911 S/T", "S/T"},
	}
	for _, tc := range cases {
		mt := fallbackModelTrim(tc.title)
		assert.Equal(t, tc.trim, mt.Trim, tc.title)
	}
}

func TestFallback_CarreraGTIsModelNotTrim(t *testing.T) {
	mt := fallbackModelTrim("2005 Porsche Carrera GT")
	assert.Equal(t, "Carrera GT", mt.Model)
	assert.Empty(t, mt.Trim)
}

func TestFallback_CompoundModelNames(t *testing.T) {
	mt := fallbackModelTrim("2022 Porsche 718 Cayman GT4 RS")
	assert.Equal(t, "718 Cayman", mt.Model)

	mt = fallbackModelTrim("2015 Porsche Boxster Spyder")
	assert.Equal(t, "Boxster", mt.Model)
	assert.Equal(t, "Spyder", mt.Trim)
}

func TestGenerationForYear(t *testing.T) {
	cases := []struct {
		model string
		year  int
		want  string
	}{
		{"911", 1973, "F"},
		{"911", 1985, "G"},
		{"911", 1993, "964"},
		{"911", 1996, "993"},
		{"911", 2002, "996"},
		{"911", 2007, "997.1"},
		{"911", 2010, "997.2"},
		{"911", 2014, "991.1"},
		{"911", 2018, "991.2"},
		{"911", 2023, "992"},
		{"Cayman", 2014, "981"},
		{"718 Cayman", 2022, "982"},
		{"356", 1958, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, generationForYear(tc.model, tc.year), "%s %d", tc.model, tc.year)
	}
}

func TestCleanJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSON("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSON(`Here you go: {"a":1} hope that helps`))
	assert.Equal(t, `{"a":1}`, cleanJSON(`{"a":1}`))
}
