package composer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"

	"textbook-rag/internal/domain"
)

// NoMatchMessage is the terminal answer when retrieval found nothing.
const NoMatchMessage = "I couldn't find relevant information in the textbook to answer your question."

// rawContextLimit bounds the raw-context fallback answer, in characters.
const rawContextLimit = 1000

// Composer turns retrieved matches into an answer. Generators are tried
// in order; when every stage fails or none is configured, the answer
// degrades to a truncated dump of the retrieved context.
type Composer struct {
	generators []domain.Generator
	timeout    time.Duration
	logger     log.Logger
}

// New creates a composer over an ordered generator chain. The chain may
// be empty.
func New(generators []domain.Generator, timeout time.Duration, logger log.Logger) *Composer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Composer{generators: generators, timeout: timeout, logger: logger}
}

// GeneratorCount reports how many generators are configured.
func (c *Composer) GeneratorCount() int { return len(c.generators) }

// Compose builds a grounded answer for the query from the matches, in
// rank order. It never returns an empty string and never fails.
func (c *Composer) Compose(ctx context.Context, query string, matches []domain.Match) string {
	if len(matches) == 0 {
		return NoMatchMessage
	}

	contextBlock := buildContext(matches)
	prompt := buildPrompt(query, contextBlock)

	for _, gen := range c.generators {
		text, err := c.generate(ctx, gen, prompt)
		if err != nil {
			c.logger.Warn().Err(err).Str("generator", gen.Name()).Msg("generation failed, trying next stage")
			continue
		}
		return text
	}

	c.logger.Info().Msg("no generation capability available, returning raw context")
	return fmt.Sprintf(
		"I found some potentially relevant information, but couldn't generate a detailed response:\n\n%s...",
		truncate(contextBlock, rawContextLimit))
}

func (c *Composer) generate(ctx context.Context, gen domain.Generator, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return gen.Generate(ctx, prompt)
}

// buildContext concatenates match contents under numbered sections, in
// rank order.
func buildContext(matches []domain.Match) string {
	var b strings.Builder
	b.WriteString("Here is the relevant information from the textbook to answer your query:\n")
	for i, m := range matches {
		b.WriteString(fmt.Sprintf("Section %d: %s\n", i+1, m.Content))
	}
	return b.String()
}

func buildPrompt(query, contextBlock string) string {
	return fmt.Sprintf(`You are an AI assistant for the Physical AI & Humanoid Robotics textbook.
Answer the user's question based on the provided context from the textbook.

Question: %s

Context: %s

Please provide a comprehensive answer based only on the provided context.
If the context doesn't contain relevant information to answer the question,
please state that clearly.`, query, contextBlock)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
