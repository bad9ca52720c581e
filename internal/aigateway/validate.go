package aigateway

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/starford/notegraph/internal/models"
)

// MaxInputLength is the largest accepted input, in UTF-16 code units.
const MaxInputLength = 10000

// suspiciousPatterns look like prompt injection. Matches are logged, not
// rejected: legitimate notes can contain these phrases.
var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)forget\s+(all\s+)?previous\s+(instructions|context)`),
	regexp.MustCompile(`(?i)you\s+are\s+now`),
	regexp.MustCompile(`(?i)system\s+prompt`),
	regexp.MustCompile(`(?i)new\s+(instructions|role|task):`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|above)`),
}

// ValidateInput rejects empty or oversized text before any quota is used.
func ValidateInput(text string) *Error {
	if strings.TrimSpace(text) == "" {
		return newError(CodeValidationError, "Text cannot be empty", nil)
	}
	if n := models.UTF16Len(text); n > MaxInputLength {
		return newError(CodeValidationError,
			fmt.Sprintf("Text is too long (max %s characters, got %s)", thousands(MaxInputLength), thousands(n)), nil)
	}
	return nil
}

// suspicious returns the first injection-like pattern found in text.
func suspicious(text string) (string, bool) {
	for _, re := range suspiciousPatterns {
		if re.MatchString(text) {
			return re.String(), true
		}
	}
	return "", false
}

func thousands(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
