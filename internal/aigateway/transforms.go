package aigateway

import (
	"context"
	"math"

	"github.com/starford/notegraph/internal/models"
)

// Tone is a target register for ChangeTone.
type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneCasual       Tone = "casual"
	ToneFriendly     Tone = "friendly"
)

var toneDescriptions = map[Tone]string{
	ToneProfessional: "formal, business-appropriate, and polished",
	ToneCasual:       "relaxed, conversational, and informal",
	ToneFriendly:     "warm, approachable, and personable",
}

// scaled sizes the completion budget relative to the input length.
func scaled(text string, factor float64) int {
	return int(math.Ceil(float64(models.UTF16Len(text)) * factor))
}

func (c *Client) ImproveWriting(ctx context.Context, text string) (string, error) {
	return c.Transform(ctx, Request{
		Text: text,
		SystemInstruction: "You are a writing assistant. Improve the given text by enhancing clarity, grammar, and flow.\n" +
			"Keep the same meaning and tone. Return only the improved text, nothing else.",
		MaxTokens: scaled(text, 1.5),
	})
}

func (c *Client) FixGrammar(ctx context.Context, text string) (string, error) {
	return c.Transform(ctx, Request{
		Text: text,
		SystemInstruction: "You are a grammar checker. Fix all grammar, spelling, and punctuation errors in the given text.\n" +
			"Keep the same meaning and style. Return only the corrected text, nothing else.",
		MaxTokens: scaled(text, 1.2),
	})
}

func (c *Client) MakeShorter(ctx context.Context, text string) (string, error) {
	return c.Transform(ctx, Request{
		Text: text,
		SystemInstruction: "You are an editor. Make the given text more concise without losing important information.\n" +
			"Remove redundancy and wordiness. Return only the shortened text, nothing else.",
		MaxTokens: scaled(text, 0.7),
	})
}

func (c *Client) MakeLonger(ctx context.Context, text string) (string, error) {
	return c.Transform(ctx, Request{
		Text: text,
		SystemInstruction: "You are a writing assistant. Expand the given text with more details, examples, and elaboration.\n" +
			"Keep the same tone and meaning. Return only the expanded text, nothing else.",
		MaxTokens: scaled(text, 2),
	})
}

// ChangeTone rewrites text in the given tone. An unknown tone is a
// validation error.
func (c *Client) ChangeTone(ctx context.Context, text string, tone Tone) (string, error) {
	desc, ok := toneDescriptions[tone]
	if !ok {
		return "", newError(CodeValidationError, "Unknown tone "+string(tone)+". Choose professional, casual, or friendly.", nil)
	}
	return c.Transform(ctx, Request{
		Text: text,
		SystemInstruction: "You are a writing assistant. Rewrite the given text in a " + desc + " tone.\n" +
			"Keep the same meaning and information. Return only the rewritten text, nothing else.",
		MaxTokens: scaled(text, 1.3),
	})
}

func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	return c.Transform(ctx, Request{
		Text: text,
		SystemInstruction: "You are a summarization assistant. Create a concise summary of the given text.\n" +
			"Extract the key points and main ideas. Format as 3-5 bullet points. Return only the summary, nothing else.",
		MaxTokens: 300,
	})
}

func (c *Client) ContinueWriting(ctx context.Context, text string) (string, error) {
	return c.Transform(ctx, Request{
		Text: text,
		SystemInstruction: "You are a writing assistant. Continue writing based on the given context.\n" +
			"Match the style and tone of the existing text. Write 1-2 sentences that naturally follow. Return only the continuation, nothing else.",
		MaxTokens: 150,
	})
}

// Translate renders text in language.
func (c *Client) Translate(ctx context.Context, text, language string) (string, error) {
	if language == "" {
		return "", newError(CodeValidationError, "Target language cannot be empty", nil)
	}
	return c.Transform(ctx, Request{
		Text: text,
		SystemInstruction: "You are a translator. Translate the given text into " + language + ".\n" +
			"Preserve meaning, tone, and formatting. Return only the translation, nothing else.",
		MaxTokens: scaled(text, 1.5),
	})
}

// TestConnection sends a minimal request and reports whether it succeeded.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.Transform(ctx, Request{Text: "Hello", SystemInstruction: `Respond with just "OK"`, MaxTokens: 10})
	return err
}

// Operation names a transformation for callers that dispatch by string.
type Operation string

const (
	OpImprove   Operation = "improve"
	OpGrammar   Operation = "grammar"
	OpShorter   Operation = "shorter"
	OpLonger    Operation = "longer"
	OpTone      Operation = "tone"
	OpSummarize Operation = "summarize"
	OpContinue  Operation = "continue"
	OpTranslate Operation = "translate"
)

// Run dispatches op. arg is the tone for OpTone and the language for
// OpTranslate; other operations ignore it.
func (c *Client) Run(ctx context.Context, op Operation, text, arg string) (string, error) {
	switch op {
	case OpImprove:
		return c.ImproveWriting(ctx, text)
	case OpGrammar:
		return c.FixGrammar(ctx, text)
	case OpShorter:
		return c.MakeShorter(ctx, text)
	case OpLonger:
		return c.MakeLonger(ctx, text)
	case OpTone:
		return c.ChangeTone(ctx, text, Tone(arg))
	case OpSummarize:
		return c.Summarize(ctx, text)
	case OpContinue:
		return c.ContinueWriting(ctx, text)
	case OpTranslate:
		return c.Translate(ctx, text, arg)
	}
	return "", newError(CodeValidationError, "Unknown operation "+string(op), nil)
}
