package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vinamind/tamsu-api/pkg/logging"
)

const (
	// Drafts at or above this confidence are accepted without review.
	reviewConfidenceThreshold = 0.6
	// A reviewed draft that still reports low confidence is forced up to this
	// value: it has been double-checked, accept it.
	reviewedConfidenceFloor = 0.65
	// When the review call itself fails, the original draft is returned with
	// this confidence so downstream consumers can see it was never verified.
	unverifiedConfidence = 0.55
)

// Reviewer re-submits a low-confidence draft reply to the model for one
// verification pass. It is a bounded, single-hop self-consistency check: at
// most one extra model call per request, never a loop.
type Reviewer struct {
	client LLMClient
	model  string
	logger *logging.Logger
}

// NewReviewer builds a reviewer sharing the pipeline's model client.
func NewReviewer(client LLMClient, model string, logger *logging.Logger) *Reviewer {
	if client == nil {
		panic("chat: reviewer client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Reviewer{client: client, model: model, logger: logger}
}

// Review returns the draft unchanged when its confidence clears the
// threshold; otherwise it issues exactly one critique call and re-parses the
// result. The draft's risk tier is a floor: review can escalate, never lower.
func (r *Reviewer) Review(ctx context.Context, draft StructuredReply, userMessage string) StructuredReply {
	if draft.Confidence >= reviewConfidenceThreshold {
		return draft
	}

	draftJSON, err := json.Marshal(draft)
	if err != nil {
		r.logger.Warn("review skipped, draft not serializable", "error", err)
		draft.Confidence = unverifiedConfidence
		return draft
	}

	req := LLMRequest{
		Model: r.model,
		Messages: []ChatMessage{
			{Role: ChatRoleUser, Content: fmt.Sprintf(reviewPromptTemplate, userMessage, draftJSON)},
		},
	}
	applyInferenceDefaults(&req)

	resp, err := r.client.Complete(ctx, req)
	if err != nil {
		r.logger.Warn("review call failed, returning unverified draft", "error", err)
		draft.Confidence = unverifiedConfidence
		return draft
	}

	reviewed := ParseReply(resp.Text).Reply
	reviewed.RiskLevel = MaxTier(draft.RiskLevel, reviewed.RiskLevel)
	if reviewed.Confidence < reviewConfidenceThreshold {
		reviewed.Confidence = reviewedConfidenceFloor
	}
	return reviewed
}
