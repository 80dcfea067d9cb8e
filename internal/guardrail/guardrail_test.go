package guardrail

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/draftforge/draftforge/internal/domain/model"
	apperrors "github.com/draftforge/draftforge/internal/errors"
	"github.com/draftforge/draftforge/internal/mocks"
)

func newChecker(t *testing.T) (*Checker, *mocks.MockModerator) {
	t.Helper()
	ctrl := gomock.NewController(t)
	moderator := mocks.NewMockModerator(ctrl)
	return NewChecker(Options{Moderator: moderator}), moderator
}

func TestCheckStructuralValidation(t *testing.T) {
	tests := []struct {
		name       string
		topic      string
		wantReason string
	}{
		{"empty", "", "topic is empty"},
		{"whitespace only", "   ", "topic is empty"},
		{"too short", "go", "too short"},
		{"too long", strings.Repeat("a sound topic ", 40), "too long"},
		{"symbols only", "!!! ??? &&&", "only symbols"},
		{"gibberish word", "explain xkcdq properly", "gibberish"},
		{"repeated characters", "aaaaa history", "repetitive characters"},
		{"script injection", "topic <script>alert(1)</script>", "injection"},
		{"sql injection", "select name from users where", "injection"},
		{"template injection", "hello {{payload}} world", "injection"},
		{"digits only", "123 456", "only numbers"},
		{"symbol heavy", "a!@#$%^&*()_+{}|:", "too many symbols"},
		{"excessive whitespace", "topic      spread out", "excessive whitespace"},
		{"url only", "https://example.com/post", "just a URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker, moderator := newChecker(t)
			// A structural rejection must short-circuit: moderation is never called.
			moderator.EXPECT().Moderate(gomock.Any(), gomock.Any()).Times(0)

			verdict := checker.Check(context.Background(), tt.topic)

			assert.False(t, verdict.Allowed)
			assert.Equal(t, model.GuardrailStageValidation, verdict.Stage)
			assert.Contains(t, verdict.Reason, tt.wantReason)
		})
	}
}

func TestCheckStructuralOrdering(t *testing.T) {
	checker, moderator := newChecker(t)
	moderator.EXPECT().Moderate(gomock.Any(), gomock.Any()).Times(0)

	// Both empty and too-short apply; the empty check runs first.
	verdict := checker.Check(context.Background(), "  ")
	assert.Equal(t, "topic is empty", verdict.Reason)

	// Digits-only input is also symbol-free; the digits rule still fires
	// because the symbols-only rule requires no letters AND no digits.
	verdict = checker.Check(context.Background(), "20260826")
	assert.Contains(t, verdict.Reason, "only numbers")

	// "bcdfggggg" is both a vowelless word and a run of five identical
	// characters; the gibberish rule runs before the repetition rule.
	verdict = checker.Check(context.Background(), "explain bcdfggggg now")
	assert.False(t, verdict.Allowed)
	assert.Contains(t, verdict.Reason, "gibberish")
	assert.Contains(t, verdict.Reason, "bcdfggggg")
}

func TestCheckKeywordFilter(t *testing.T) {
	tests := []struct {
		name         string
		topic        string
		wantCategory string
	}{
		{"violence", "how to kill a process tree", "violence"},
		{"illegal activity", "steal credit card numbers online", "illegal activity"},
		{"weapons", "gun silencer maintenance guide", "weapons"},
		{"drugs", "cook meth safely", "drugs"},
		{"case insensitive", "WHITE SUPREMACY history", "hate speech"},
		// "make a bomb" sits in the weapons list, but "bomb" already matches
		// violence, and the first category in order wins.
		{"first category wins", "how to make a bomb at home", "violence"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker, moderator := newChecker(t)
			// Keyword rejections short-circuit the moderation stage.
			moderator.EXPECT().Moderate(gomock.Any(), gomock.Any()).Times(0)

			verdict := checker.Check(context.Background(), tt.topic)

			assert.False(t, verdict.Allowed)
			assert.Equal(t, model.GuardrailStageKeywordFilter, verdict.Stage)
			assert.Contains(t, verdict.Reason, tt.wantCategory)
		})
	}
}

func TestCheckModeration(t *testing.T) {
	topic := "the history of coffee in europe"

	t.Run("safe topic allowed", func(t *testing.T) {
		checker, moderator := newChecker(t)
		moderator.EXPECT().Moderate(gomock.Any(), topic).
			Return(&model.SafetyJudgment{IsSafe: true}, nil)

		verdict := checker.Check(context.Background(), topic)

		assert.True(t, verdict.Allowed)
		assert.Equal(t, model.GuardrailStageAIModeration, verdict.Stage)
	})

	t.Run("unsafe judgment rejects with reason", func(t *testing.T) {
		checker, moderator := newChecker(t)
		moderator.EXPECT().Moderate(gomock.Any(), topic).
			Return(&model.SafetyJudgment{IsSafe: false, Reason: "promotes dangerous behavior"}, nil)

		verdict := checker.Check(context.Background(), topic)

		assert.False(t, verdict.Allowed)
		assert.Equal(t, "promotes dangerous behavior", verdict.Reason)
	})

	t.Run("unsafe judgment without reason gets default", func(t *testing.T) {
		checker, moderator := newChecker(t)
		moderator.EXPECT().Moderate(gomock.Any(), topic).
			Return(&model.SafetyJudgment{IsSafe: false}, nil)

		verdict := checker.Check(context.Background(), topic)

		assert.False(t, verdict.Allowed)
		assert.Equal(t, "topic judged unsafe", verdict.Reason)
	})

	t.Run("moderation error fails closed", func(t *testing.T) {
		checker, moderator := newChecker(t)
		moderator.EXPECT().Moderate(gomock.Any(), topic).
			Return(nil, errors.New("gateway timeout"))

		verdict := checker.Check(context.Background(), topic)

		assert.False(t, verdict.Allowed)
		assert.Equal(t, ReasonModerationUnavailable, verdict.Reason)
		assert.Equal(t, model.GuardrailStageAIModeration, verdict.Stage)
	})

	t.Run("nil judgment fails closed", func(t *testing.T) {
		checker, moderator := newChecker(t)
		moderator.EXPECT().Moderate(gomock.Any(), topic).Return(nil, nil)

		verdict := checker.Check(context.Background(), topic)

		assert.False(t, verdict.Allowed)
		assert.Equal(t, ReasonModerationUnavailable, verdict.Reason)
	})

	t.Run("nil moderator fails closed", func(t *testing.T) {
		checker := NewChecker(Options{})

		verdict := checker.Check(context.Background(), topic)

		assert.False(t, verdict.Allowed)
		assert.Equal(t, ReasonModerationUnavailable, verdict.Reason)
	})
}

func TestCheckerLengthBounds(t *testing.T) {
	ctrl := gomock.NewController(t)
	moderator := mocks.NewMockModerator(ctrl)
	moderator.EXPECT().Moderate(gomock.Any(), gomock.Any()).
		Return(&model.SafetyJudgment{IsSafe: true}, nil).AnyTimes()

	checker := NewChecker(Options{Moderator: moderator, MinLength: 10, MaxLength: 20})

	verdict := checker.Check(context.Background(), "short")
	require.False(t, verdict.Allowed)
	assert.Contains(t, verdict.Reason, "minimum 10")

	verdict = checker.Check(context.Background(), "a topic that is far too long for this checker")
	require.False(t, verdict.Allowed)
	assert.Contains(t, verdict.Reason, "maximum 20")

	verdict = checker.Check(context.Background(), "coffee history")
	assert.True(t, verdict.Allowed)
}

func TestRejectionError(t *testing.T) {
	allowed := model.GuardrailVerdict{Allowed: true}
	assert.Nil(t, RejectionError(allowed))

	structural := model.GuardrailVerdict{
		Allowed: false,
		Reason:  "topic is empty",
		Stage:   model.GuardrailStageValidation,
	}
	err := RejectionError(structural)
	require.NotNil(t, err)
	assert.True(t, apperrors.IsValidationRejected(err))
	assert.Equal(t, "topic is empty", err.Message)

	keyword := model.GuardrailVerdict{
		Allowed: false,
		Reason:  "blocked category: violence",
		Stage:   model.GuardrailStageKeywordFilter,
	}
	err = RejectionError(keyword)
	require.NotNil(t, err)
	assert.True(t, apperrors.IsValidationRejected(err))
	assert.False(t, apperrors.IsModerationRejected(err))

	moderated := model.GuardrailVerdict{
		Allowed: false,
		Reason:  "topic judged unsafe",
		Stage:   model.GuardrailStageAIModeration,
	}
	err = RejectionError(moderated)
	require.NotNil(t, err)
	assert.True(t, apperrors.IsModerationRejected(err))
	assert.Equal(t, "topic judged unsafe", err.Message)
}
