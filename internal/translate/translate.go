package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/rafaeelricco/commit-gen/internal/core"
)

// DefaultTargetLanguage is used when the user gives no --to flag.
const DefaultTargetLanguage = "pt"

const instructions = `You are a professional translator. Translate the text below into the target language.

Rules:
• Preserve meaning, tone and formatting
• Do not add explanations or notes
• Output only the translated text

Target language: %s

Text:
%s`

// BuildPrompt renders the translation prompt for the given text and target
// language code or name.
func BuildPrompt(text, targetLanguage string) string {
	if strings.TrimSpace(targetLanguage) == "" {
		targetLanguage = DefaultTargetLanguage
	}
	return fmt.Sprintf(instructions, targetLanguage, text)
}

// Run translates text via the backend and returns the translation.
func Run(ctx context.Context, gen core.Generator, text, targetLanguage string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("nothing to translate")
	}

	result, err := gen.Generate(ctx, BuildPrompt(text, targetLanguage))
	if err != nil {
		return "", fmt.Errorf("translation failed: %w", err)
	}
	return result, nil
}
