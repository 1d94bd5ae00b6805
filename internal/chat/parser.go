package chat

import (
	"encoding/json"
	"strings"
)

// ParseResult tags whether the model actually produced structured output or
// the deterministic fallback was used. The orchestrator treats both the same;
// the flag exists for metrics and tests.
type ParseResult struct {
	Reply    StructuredReply
	Fallback bool
}

const (
	defaultConfidence  = 0.7
	fallbackConfidence = 0.5
	fallbackReplyLen   = 500
)

// ParseReply extracts a StructuredReply from raw model text. It never fails:
// if no usable JSON object is found the reply is rebuilt from the raw text.
func ParseReply(raw string) ParseResult {
	obj, ok := firstJSONObject(raw)
	if !ok {
		return fallbackResult(raw)
	}

	var decoded struct {
		RiskLevel    string   `json:"riskLevel"`
		Emotion      string   `json:"emotion"`
		Reply        string   `json:"reply"`
		NextQuestion string   `json:"nextQuestion"`
		Actions      []string `json:"actions"`
		Confidence   *float64 `json:"confidence"`
		Disclaimer   *string  `json:"disclaimer"`
	}
	if err := json.Unmarshal([]byte(obj), &decoded); err != nil {
		return fallbackResult(raw)
	}
	if strings.TrimSpace(decoded.Reply) == "" {
		return fallbackResult(raw)
	}

	riskLevel := RiskGreen
	if ValidTier(decoded.RiskLevel) {
		riskLevel = RiskTier(decoded.RiskLevel)
	}

	confidence := defaultConfidence
	if decoded.Confidence != nil {
		confidence = *decoded.Confidence
		if confidence < 0 {
			confidence = 0
		} else if confidence > 1 {
			confidence = 1
		}
	}

	actions := decoded.Actions
	if actions == nil {
		actions = []string{}
	}

	return ParseResult{
		Reply: StructuredReply{
			RiskLevel:    riskLevel,
			Emotion:      decoded.Emotion,
			Reply:        decoded.Reply,
			NextQuestion: decoded.NextQuestion,
			Actions:      clampActions(actions),
			Confidence:   confidence,
			Disclaimer:   decoded.Disclaimer,
		},
	}
}

func fallbackResult(raw string) ParseResult {
	text := strings.TrimSpace(raw)
	if runes := []rune(text); len(runes) > fallbackReplyLen {
		text = string(runes[:fallbackReplyLen])
	}
	return ParseResult{
		Reply: StructuredReply{
			RiskLevel:  RiskGreen,
			Reply:      text,
			Actions:    []string{},
			Confidence: fallbackConfidence,
		},
		Fallback: true,
	}
}

// firstJSONObject returns the first balanced top-level {...} span in raw.
// Brace depth is tracked outside JSON strings so braces inside reply text do
// not terminate the object early.
func firstJSONObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}
