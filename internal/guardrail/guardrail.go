// Package guardrail gates pipeline entry with a three-stage topic check:
// structural validation, category keyword filtering, and semantic moderation.
// The stages run in a fixed order and short-circuit on the first failure.
package guardrail

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/draftforge/draftforge/internal/core"
	"github.com/draftforge/draftforge/internal/domain/model"
	apperrors "github.com/draftforge/draftforge/internal/errors"
)

const (
	// DefaultMinTopicLength is the minimum accepted topic length in runes.
	DefaultMinTopicLength = 3
	// DefaultMaxTopicLength is the maximum accepted topic length in runes.
	DefaultMaxTopicLength = 500

	// ReasonModerationUnavailable is reported when the moderation call itself
	// fails. The guardrail fails closed: an unavailable moderator never lets
	// a topic through.
	ReasonModerationUnavailable = "moderation unavailable"
)

// Options configures a Checker.
type Options struct {
	Moderator core.Moderator // Required: semantic moderation collaborator
	Logger    *slog.Logger   // Optional: structured logger
	MinLength int            // Optional: defaults to DefaultMinTopicLength
	MaxLength int            // Optional: defaults to DefaultMaxTopicLength
}

// Checker applies the three guardrail stages to topic strings.
type Checker struct {
	moderator core.Moderator
	logger    *slog.Logger
	minLen    int
	maxLen    int
}

// NewChecker constructs a Checker, applying defaults for unset bounds.
func NewChecker(opts Options) *Checker {
	minLen := opts.MinLength
	if minLen <= 0 {
		minLen = DefaultMinTopicLength
	}
	maxLen := opts.MaxLength
	if maxLen <= 0 {
		maxLen = DefaultMaxTopicLength
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		moderator: opts.Moderator,
		logger:    logger.With("component", "guardrail"),
		minLen:    minLen,
		maxLen:    maxLen,
	}
}

// Check decides whether a topic may enter the pipeline. It never returns an
// error: a failing moderation call folds into a fail-closed verdict.
func (c *Checker) Check(ctx context.Context, topic string) model.GuardrailVerdict {
	if reason, ok := c.validateStructure(topic); !ok {
		c.logger.DebugContext(ctx, "topic rejected by validation", "reason", reason)
		return model.GuardrailVerdict{
			Allowed: false,
			Reason:  reason,
			Stage:   model.GuardrailStageValidation,
		}
	}

	if category, ok := matchBlockedCategory(topic); ok {
		reason := "blocked category: " + category
		c.logger.DebugContext(ctx, "topic rejected by keyword filter", "category", category)
		return model.GuardrailVerdict{
			Allowed: false,
			Reason:  reason,
			Stage:   model.GuardrailStageKeywordFilter,
		}
	}

	return c.moderate(ctx, topic)
}

// RejectionError converts a blocking verdict into its AppError: moderation
// verdicts carry the moderation_rejected code, the structural and keyword
// stages carry validation_rejected. An allowing verdict yields nil.
func RejectionError(verdict model.GuardrailVerdict) *apperrors.AppError {
	if verdict.Allowed {
		return nil
	}
	if verdict.Stage == model.GuardrailStageAIModeration {
		return apperrors.ModerationRejected(verdict.Reason)
	}
	return apperrors.ValidationRejected(verdict.Reason)
}

func (c *Checker) moderate(ctx context.Context, topic string) model.GuardrailVerdict {
	if c.moderator == nil {
		return model.GuardrailVerdict{
			Allowed: false,
			Reason:  ReasonModerationUnavailable,
			Stage:   model.GuardrailStageAIModeration,
		}
	}

	judgment, err := c.moderator.Moderate(ctx, topic)
	if err != nil || judgment == nil {
		c.logger.WarnContext(ctx, "moderation call failed, failing closed", "error", err)
		return model.GuardrailVerdict{
			Allowed: false,
			Reason:  ReasonModerationUnavailable,
			Stage:   model.GuardrailStageAIModeration,
		}
	}

	if !judgment.IsSafe {
		reason := judgment.Reason
		if reason == "" {
			reason = "topic judged unsafe"
		}
		return model.GuardrailVerdict{
			Allowed: false,
			Reason:  reason,
			Stage:   model.GuardrailStageAIModeration,
		}
	}

	return model.GuardrailVerdict{
		Allowed: true,
		Reason:  judgment.Reason,
		Stage:   model.GuardrailStageAIModeration,
	}
}

var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on(click|error|load)\s*=`),
	regexp.MustCompile(`\{\{.*\}\}`),
	regexp.MustCompile(`\$\{.*\}`),
	regexp.MustCompile(`(?i)select\s.*\sfrom\s`),
	regexp.MustCompile(`(?i)drop\s+table`),
	regexp.MustCompile(`--\s*$`),
	regexp.MustCompile(`(?i);\s*delete`),
}

var urlOnlyPattern = regexp.MustCompile(`^https?://\S+$`)

// validateStructure runs the structural rules in their fixed order and
// returns the first violation. The ordering is part of the contract: only
// one reason is ever reported for a given input.
func (c *Checker) validateStructure(topic string) (string, bool) {
	trimmed := strings.TrimSpace(topic)

	if trimmed == "" {
		return "topic is empty", false
	}
	runes := []rune(trimmed)
	if len(runes) < c.minLen {
		return fmt.Sprintf("topic is too short (minimum %d characters)", c.minLen), false
	}
	if len(runes) > c.maxLen {
		return fmt.Sprintf("topic is too long (maximum %d characters)", c.maxLen), false
	}
	if !containsLetterOrDigit(runes) {
		return "topic contains only symbols", false
	}
	if word, ok := vowellessWord(trimmed); ok {
		return fmt.Sprintf("topic contains gibberish: %q", word), false
	}
	if hasCharacterRun(runes, 5) {
		return "topic contains repetitive characters", false
	}
	if pattern, ok := matchInjection(trimmed); ok {
		return "topic looks like an injection attempt: " + pattern, false
	}
	if digitsOnly(runes) {
		return "topic cannot be only numbers", false
	}
	if symbolHeavy(runes) {
		return "topic contains too many symbols", false
	}
	if strings.Contains(trimmed, "     ") {
		return "topic contains excessive whitespace", false
	}
	if urlOnlyPattern.MatchString(trimmed) {
		return "topic cannot be just a URL", false
	}

	return "", true
}

func containsLetterOrDigit(runes []rune) bool {
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// vowellessWord flags alphabetic words longer than four runes with no vowel.
func vowellessWord(topic string) (string, bool) {
	for _, word := range strings.Fields(topic) {
		runes := []rune(word)
		if len(runes) <= 4 || !allLetters(runes) {
			continue
		}
		if !strings.ContainsAny(strings.ToLower(word), "aeiou") {
			return word, true
		}
	}
	return "", false
}

func allLetters(runes []rune) bool {
	for _, r := range runes {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func hasCharacterRun(runes []rune, length int) bool {
	run := 1
	for i := 1; i < len(runes); i++ {
		if runes[i] == runes[i-1] {
			run++
			if run >= length {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}

func matchInjection(topic string) (string, bool) {
	for _, p := range injectionPatterns {
		if p.MatchString(topic) {
			return p.String(), true
		}
	}
	return "", false
}

func digitsOnly(runes []rune) bool {
	seen := false
	for _, r := range runes {
		if unicode.IsSpace(r) {
			continue
		}
		if !unicode.IsDigit(r) {
			return false
		}
		seen = true
	}
	return seen
}

// symbolHeavy flags input where fewer than half the runes are alphanumeric
// or whitespace.
func symbolHeavy(runes []rune) bool {
	plain := 0
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			plain++
		}
	}
	return plain*2 < len(runes)
}
