// Package translate models the translation collaborator and the chat
// commands that drive it.
package translate

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrNotInitialized is returned when the translator is not ready.
	ErrNotInitialized = errors.New("translate: not initialized")
	// ErrUnknownLanguage is returned for a target that is not supported.
	ErrUnknownLanguage = errors.New("translate: unknown language")
	// ErrUnknownModel is returned for an unrecognised model name.
	ErrUnknownModel = errors.New("translate: unknown model")
	// ErrEmptyText is returned when there is nothing to translate.
	ErrEmptyText = errors.New("translate: no text provided")
)

// Options tunes one translation request.
type Options struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
	// Context selects the prompt register: regulatory, legal, technical or
	// correspondence.
	Context string `json:"context"`
}

// Translator turns text into another language.
type Translator interface {
	// Initialized reports whether TranslateText may be called.
	Initialized() bool
	TranslateText(ctx context.Context, text, lang string, opts Options) (string, error)
}

// Request is what a Completer receives.
type Request struct {
	Prompt      string
	Model       Model
	Stream      bool
	Temperature float64
	MaxTokens   int
}

// Completer is a text completion backend.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Service is a Translator backed by a Completer. A Service without a
// backend reports itself uninitialized.
type Service struct {
	backend Completer
}

// NewService creates a translator over backend; backend may be nil.
func NewService(backend Completer) *Service {
	return &Service{backend: backend}
}

func (s *Service) Initialized() bool {
	return s != nil && s.backend != nil
}

// TranslateText builds a prompt for lang, sends it to the backend and
// strips any preamble the model added.
func (s *Service) TranslateText(ctx context.Context, text, lang string, opts Options) (string, error) {
	if !s.Initialized() {
		return "", ErrNotInitialized
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	language, ok := LookupLanguage(lang)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	model, ok := LookupModel(opts.Model)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, opts.Model)
	}

	out, err := s.backend.Complete(ctx, Request{
		Prompt:      BuildPrompt(text, language, opts.Context),
		Model:       model,
		Stream:      opts.Stream,
		Temperature: model.Temperature,
		MaxTokens:   model.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("translate to %s with %s: %w", language.Name, model.ID, err)
	}
	return CleanTranslation(out), nil
}

var contextInstructions = map[string]string{
	"regulatory": `This is a REGULATORY DOCUMENT translation. Requirements:
- Maintain legal precision and formal terminology
- Preserve regulatory references and citations exactly
- Keep technical terms accurate and consistent`,
	"legal": `This is a LEGAL DOCUMENT translation. Requirements:
- Use precise legal terminology
- Maintain formal legal register
- Keep contractual language exact`,
	"technical": `This is a TECHNICAL document. Requirements:
- Preserve technical terminology
- Keep measurements and standards exact`,
	"correspondence": `This is BUSINESS CORRESPONDENCE. Requirements:
- Maintain professional business tone
- Preserve formal letter structure`,
}

// BuildPrompt returns the completion prompt for translating text.
func BuildPrompt(text string, lang Language, kind string) string {
	instructions, ok := contextInstructions[kind]
	if !ok {
		instructions = contextInstructions["regulatory"]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You are a professional translator.\n\nTranslate the following text to %s.\n\n", lang.Name)
	b.WriteString(instructions)
	b.WriteString(`

RULES:
1. Output ONLY the translated text
2. Do not add prefixes like "Translation:" or "Here is the translation:"
3. Preserve all dates, numbers, reference codes and inline markup exactly

TEXT TO TRANSLATE:

`)
	b.WriteString(text)
	fmt.Fprintf(&b, "\n\nTRANSLATION (%s only):", lang.Name)
	return b.String()
}

var preambles = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^Translation:\s*`),
	regexp.MustCompile(`(?i)^Here is the translation:\s*`),
	regexp.MustCompile(`(?i)^Translated text:\s*`),
	regexp.MustCompile(`(?i)^Translation to [^:]+:\s*`),
	regexp.MustCompile(`(?i)^\[Translation\]\s*`),
}

// CleanTranslation removes model preambles such as "Translation:".
func CleanTranslation(text string) string {
	cleaned := strings.TrimSpace(text)
	for _, re := range preambles {
		cleaned = re.ReplaceAllString(cleaned, "")
	}
	return strings.TrimSpace(cleaned)
}
