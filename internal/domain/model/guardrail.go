package model

// GuardrailStage identifies which gate produced a verdict.
type GuardrailStage string

const (
	// GuardrailStageValidation is the structural input validation stage.
	GuardrailStageValidation GuardrailStage = "validation"
	// GuardrailStageKeywordFilter is the category keyword stage.
	GuardrailStageKeywordFilter GuardrailStage = "keyword_filter"
	// GuardrailStageAIModeration is the semantic moderation stage.
	GuardrailStageAIModeration GuardrailStage = "ai_moderation"
)

// GuardrailVerdict is the immutable outcome of one guardrail check.
// It is produced fresh per check and never persisted beyond the decision.
type GuardrailVerdict struct {
	Allowed bool
	Reason  string
	Stage   GuardrailStage
}

// SafetyJudgment is the structured answer from the semantic moderation call.
type SafetyJudgment struct {
	IsSafe bool   `json:"is_safe"`
	Reason string `json:"reason"`
}
