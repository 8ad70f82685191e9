package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/phuslu/log"

	"textbook-rag/internal/domain"
)

// Chapter is one textbook chapter loaded from the content directory.
type Chapter struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	Position int    `json:"position"`
	Content  string `json:"-"`
}

// LoadChapters reads every <dir>/<chapter>/README.md with its sibling
// metadata.json and returns chapters ordered by position. Directories
// missing either file are skipped.
func LoadChapters(dir string) ([]Chapter, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading content dir %s: %w", dir, err)
	}
	var chapters []Chapter
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		readmePath := filepath.Join(dir, entry.Name(), "README.md")
		metaPath := filepath.Join(dir, entry.Name(), "metadata.json")

		content, err := os.ReadFile(readmePath)
		if err != nil {
			continue
		}
		metaRaw, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}
		var ch Chapter
		if err := json.Unmarshal(metaRaw, &ch); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", metaPath, err)
		}
		ch.Content = string(content)
		chapters = append(chapters, ch)
	}
	sort.SliceStable(chapters, func(i, j int) bool { return chapters[i].Position < chapters[j].Position })
	return chapters, nil
}

// BuildChunks runs the chunker over every chapter in order.
func BuildChunks(chapters []Chapter, chunker domain.Chunker) []domain.Chunk {
	var all []domain.Chunk
	for _, ch := range chapters {
		all = append(all, chunker.Chunk(ch.Content, ch.ID)...)
	}
	return all
}

// EmbedChunks embeds chunk contents in fixed-size batches, retrying each
// failed batch a bounded number of times before giving up. This runs at
// content-processing time, not per query.
func EmbedChunks(ctx context.Context, embedder domain.Embedder, chunks []domain.Chunk, batchSize, maxRetries int, logger log.Logger) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = 96
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		var batch [][]float32
		var err error
		for attempt := 0; attempt <= maxRetries; attempt++ {
			batch, err = embedder.EmbedDocuments(ctx, texts[start:end])
			if err == nil {
				break
			}
			logger.Warn().Err(err).Int("batch_start", start).Int("attempt", attempt+1).Msg("batch embedding failed")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt+1) * time.Second):
			}
		}
		if err != nil {
			return nil, fmt.Errorf("embedding batch %d-%d after %d retries: %w", start, end, maxRetries, err)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}
