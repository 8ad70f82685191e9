package composer

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textbook-rag/internal/domain"
)

var testLogger = log.Logger{Level: log.InfoLevel, Writer: log.IOWriter{Writer: io.Discard}}

type fakeGen struct {
	name   string
	text   string
	err    error
	called bool
}

func (f *fakeGen) Name() string { return f.name }

func (f *fakeGen) Generate(ctx context.Context, prompt string) (string, error) {
	f.called = true
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func someMatches() []domain.Match {
	return []domain.Match{
		{ChunkID: "a_chunk_0", SourceID: "a", Content: "Humanoid robots use actuators.", Score: 0.9},
		{ChunkID: "b_chunk_0", SourceID: "b", Content: "Digital twins mirror the plant.", Score: 0.8},
	}
}

func TestComposeNoMatches(t *testing.T) {
	c := New(nil, time.Second, testLogger)
	got := c.Compose(context.Background(), "anything", nil)
	assert.Equal(t, NoMatchMessage, got)
}

func TestComposePrimaryGenerator(t *testing.T) {
	primary := &fakeGen{name: "primary", text: "A grounded answer."}
	secondary := &fakeGen{name: "secondary", text: "Should not run."}
	c := New([]domain.Generator{primary, secondary}, time.Second, testLogger)

	got := c.Compose(context.Background(), "how do robots move?", someMatches())
	assert.Equal(t, "A grounded answer.", got)
	assert.True(t, primary.called)
	assert.False(t, secondary.called)
}

func TestComposeFallsThroughChain(t *testing.T) {
	primary := &fakeGen{name: "primary", err: errors.New("rate limited")}
	secondary := &fakeGen{name: "secondary", text: "Backup answer."}
	c := New([]domain.Generator{primary, secondary}, time.Second, testLogger)

	got := c.Compose(context.Background(), "how do robots move?", someMatches())
	assert.Equal(t, "Backup answer.", got)
	assert.True(t, primary.called)
	assert.True(t, secondary.called)
}

func TestComposeRawContextWhenAllFail(t *testing.T) {
	primary := &fakeGen{name: "primary", err: errors.New("down")}
	secondary := &fakeGen{name: "secondary", err: errors.New("also down")}
	c := New([]domain.Generator{primary, secondary}, time.Second, testLogger)

	got := c.Compose(context.Background(), "how do robots move?", someMatches())
	assert.Contains(t, got, "couldn't generate a detailed response")
	assert.Contains(t, got, "Section 1: Humanoid robots use actuators.")
	assert.Contains(t, got, "Section 2: Digital twins mirror the plant.")
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestComposeRawContextWithoutGenerators(t *testing.T) {
	c := New(nil, time.Second, testLogger)
	got := c.Compose(context.Background(), "q", someMatches())
	assert.Contains(t, got, "couldn't generate a detailed response")
}

func TestComposeRawContextTruncated(t *testing.T) {
	big := []domain.Match{{ChunkID: "x_chunk_0", SourceID: "x", Content: strings.Repeat("robotics ", 300), Score: 0.9}}
	c := New(nil, time.Second, testLogger)

	got := c.Compose(context.Background(), "q", big)
	prefix := "I found some potentially relevant information, but couldn't generate a detailed response:\n\n"
	require.True(t, strings.HasPrefix(got, prefix))
	body := strings.TrimSuffix(strings.TrimPrefix(got, prefix), "...")
	assert.Equal(t, 1000, len([]rune(body)))
}

func TestPromptContainsQueryAndContext(t *testing.T) {
	var captured string
	gen := &fakeGen{name: "capture"}
	c := New([]domain.Generator{generatorFunc(func(ctx context.Context, prompt string) (string, error) {
		captured = prompt
		return gen.text, nil
	})}, time.Second, testLogger)

	c.Compose(context.Background(), "what is a digital twin?", someMatches())
	assert.Contains(t, captured, "Question: what is a digital twin?")
	assert.Contains(t, captured, "Section 1: Humanoid robots use actuators.")
	assert.Contains(t, captured, "based only on the provided context")
}

type generatorFunc func(ctx context.Context, prompt string) (string, error)

func (generatorFunc) Name() string { return "func" }

func (g generatorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return g(ctx, prompt)
}
