package chat

// StructuredReply is the machine-parseable object the model is instructed to
// produce. It is the HTTP response body for non-streaming requests; the core
// never persists it.
type StructuredReply struct {
	RiskLevel    RiskTier `json:"riskLevel"`
	Emotion      string   `json:"emotion"`
	Reply        string   `json:"reply"`
	NextQuestion string   `json:"nextQuestion"`
	Actions      []string `json:"actions"`
	Confidence   float64  `json:"confidence"`
	Disclaimer   *string  `json:"disclaimer"`
}

// ChatResponse is the full client-facing payload. For ordinary replies the
// SOS fields are omitted and the body is the StructuredReply exactly; the
// crisis short-circuit sets them.
type ChatResponse struct {
	SOS      bool   `json:"sos,omitempty"`
	SOSLevel string `json:"sosLevel,omitempty"`
	StructuredReply
}

// maxActions caps the suggested-action list on every reply.
const maxActions = 4

func clampActions(actions []string) []string {
	if len(actions) > maxActions {
		return actions[:maxActions]
	}
	return actions
}
