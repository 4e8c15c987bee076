package suppliers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/rfqpilot/internal/embeddings"
)

const (
	collectionName = "suppliers"
	indexFile      = "suppliers.gob.gz"
)

// Index is a semantic index of supplier profiles backed by chromem-go.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
}

// NewIndex creates an empty in-memory index using the given embedder.
func NewIndex(embedder embeddings.Embedder) (*Index, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)
	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &Index{db: db, collection: col, embedFunc: ef}, nil
}

// profile is the text embedded for a supplier.
func profile(s Supplier) string {
	var b strings.Builder
	b.WriteString(s.Name)
	if len(s.Capabilities) > 0 {
		b.WriteString(". Supplies: ")
		b.WriteString(strings.Join(s.Capabilities, ", "))
	}
	if s.Region != "" {
		b.WriteString(". Region: ")
		b.WriteString(s.Region)
	}
	return b.String()
}

// Add indexes or re-indexes suppliers by id.
func (x *Index) Add(ctx context.Context, sups []Supplier) error {
	if len(sups) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(sups))
	for i, s := range sups {
		docs[i] = chromem.Document{
			ID:       s.ID,
			Content:  profile(s),
			Metadata: map[string]string{"region": strings.ToLower(s.Region)},
		}
	}
	return x.collection.AddDocuments(embeddings.WithTask(ctx, embeddings.TaskDocument), docs, 1)
}

// Remove drops a supplier from the index.
func (x *Index) Remove(ctx context.Context, id string) error {
	return x.collection.Delete(ctx, nil, nil, id)
}

// Hit is one index result.
type Hit struct {
	ID    string
	Score float32
}

// Query returns up to n supplier ids ranked by similarity to text.
func (x *Index) Query(ctx context.Context, text string, n int) ([]Hit, error) {
	count := x.collection.Count()
	if count == 0 || n <= 0 {
		return nil, nil
	}
	// chromem-go requires nResults <= collection size.
	if n > count {
		n = count
	}
	results, err := x.collection.Query(embeddings.WithTask(ctx, embeddings.TaskQuery), text, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}
	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{ID: r.ID, Score: r.Similarity}
	}
	return hits, nil
}

// Count returns the number of indexed suppliers.
func (x *Index) Count() int {
	return x.collection.Count()
}

// Persist writes the index under dir.
func (x *Index) Persist(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index dir: %w", err)
	}
	return x.db.ExportToFile(filepath.Join(dir, indexFile), true, "")
}

// Load restores a previously persisted index. A missing file leaves the
// index empty.
func (x *Index) Load(dir string) error {
	path := filepath.Join(dir, indexFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := x.db.ImportFromFile(path, ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}
	col := x.db.GetCollection(collectionName, x.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	x.collection = col
	return nil
}
