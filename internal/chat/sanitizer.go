package chat

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Sanitizer error taxonomy. The codes double as the HTTP error payload codes.
var (
	ErrInvalidInput      = errors.New("invalid_input")
	ErrEmptyInput        = errors.New("empty_input")
	ErrInjectionDetected = errors.New("injection_detected")
	ErrProfanityDetected = errors.New("profanity_detected")
)

// maxMessageLen is the hard cap on user input. Longer text is truncated, not
// rejected, so a rambling teen never gets an error for venting.
const maxMessageLen = 2000

// injectionPattern is a compiled regex with a reason label.
type injectionPattern struct {
	re     *regexp.Regexp
	reason string
}

// Prompt-override, jailbreak, and role-reassignment phrasings, in both the
// English forms models are usually attacked with and the Vietnamese forms our
// users would type. The diacritic-stripped spellings are listed explicitly
// because regexes run on the raw text.
var injectionPatterns = []injectionPattern{
	{regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above|earlier|your)\s+(instructions?|rules?|prompts?|guidelines?)`), "injection:ignore_instructions"},
	{regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above|earlier|your)\s+(instructions?|rules?|prompts?)`), "injection:disregard_instructions"},
	{regexp.MustCompile(`(?i)\bact\s+as\b`), "injection:role_reassignment"},
	{regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an|my)\s+`), "injection:role_reassignment"},
	{regexp.MustCompile(`(?i)^\s*system\s*:`), "injection:fake_system_role"},
	{regexp.MustCompile(`(?i)\bsystem\s*prompt\b`), "injection:system_prompt_probe"},
	{regexp.MustCompile(`\bDAN\b`), "injection:jailbreak_keyword"},
	{regexp.MustCompile(`(?i)\bjailbreak\b|developer\s*mode|unrestricted\s*mode`), "injection:jailbreak_keyword"},
	{regexp.MustCompile(`(?i)\[/?INST\]|<\|im_start\|>|<\|im_end\|>|<\|system\|>`), "injection:special_tokens"},
	{regexp.MustCompile(`(?i)bỏ\s*qua\s*(các\s*)?(hướng\s*dẫn|chỉ\s*dẫn|luật)`), "injection:ignore_instructions_vi"},
	{regexp.MustCompile(`(?i)bo\s*qua\s*(cac\s*)?(huong\s*dan|chi\s*dan|luat)`), "injection:ignore_instructions_vi"},
	{regexp.MustCompile(`(?i)quên\s*(hết\s*)?(hướng\s*dẫn|chỉ\s*dẫn)`), "injection:forget_instructions_vi"},
	{regexp.MustCompile(`(?i)hãy\s*đóng\s*vai|từ\s*giờ\s*bạn\s*là`), "injection:role_reassignment_vi"},
}

// A short slur/profanity denylist. This is a chat for minors; hard profanity
// is rejected so it never reaches the model or the moderation queue.
var profanityPatterns = []injectionPattern{
	// \b is ASCII-only in Go regexp, so the đ-initial forms need explicit
	// letter-class boundaries.
	{regexp.MustCompile(`(?i)(^|\P{L})(đm|đcm)($|\P{L})`), "profanity:vi_abbrev"},
	{regexp.MustCompile(`(?i)\b(dcm|vcl|clgt)\b`), "profanity:vi_abbrev"},
	{regexp.MustCompile(`(?i)địt|đụ|lồn|cặc`), "profanity:vi"},
	{regexp.MustCompile(`(?i)\bfuck(er|ing)?\b|\bbitch\b|\bcunt\b`), "profanity:en"},
}

// Sanitize validates and cleans raw user text. On success it returns the
// trimmed (and possibly truncated) message; otherwise one of the sentinel
// errors above.
func Sanitize(text string) (string, error) {
	if !utf8.ValidString(text) || strings.ContainsRune(text, '\x00') {
		return "", ErrInvalidInput
	}

	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return "", ErrEmptyInput
	}

	if utf8.RuneCountInString(cleaned) > maxMessageLen {
		runes := []rune(cleaned)
		cleaned = string(runes[:maxMessageLen])
	}

	if flagged, _ := ScanInjection(cleaned); flagged {
		return "", ErrInjectionDetected
	}

	for _, p := range profanityPatterns {
		if p.re.MatchString(cleaned) {
			return "", ErrProfanityDetected
		}
	}

	return cleaned, nil
}

// ScanInjection reports whether text matches any injection pattern and the
// reasons that fired. Non-throwing variant for collaborators (forum posts,
// journal titles) that want detection without hard failure.
func ScanInjection(text string) (bool, []string) {
	if strings.TrimSpace(text) == "" {
		return false, nil
	}
	var reasons []string
	for _, p := range injectionPatterns {
		if p.re.MatchString(text) {
			reasons = append(reasons, p.reason)
		}
	}
	return len(reasons) > 0, reasons
}

// HasInjection is the boolean-only convenience wrapper around ScanInjection.
func HasInjection(text string) bool {
	flagged, _ := ScanInjection(text)
	return flagged
}
