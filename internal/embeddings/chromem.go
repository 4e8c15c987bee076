package embeddings

import (
	"context"
	"fmt"
	"sync"

	chromem "github.com/philippgille/chromem-go"
)

// queryCacheSize bounds the cached query vectors per chromem func.
const queryCacheSize = 256

// ToChromemFunc adapts e to chromem's one-text-at-a-time signature. Query
// vectors are cached by text.
func ToChromemFunc(e Embedder) chromem.EmbeddingFunc {
	var (
		mu    sync.Mutex
		cache = make(map[string][]float32)
	)
	return func(ctx context.Context, text string) ([]float32, error) {
		query := TaskFrom(ctx) == TaskQuery
		if query {
			mu.Lock()
			v, ok := cache[text]
			mu.Unlock()
			if ok {
				return v, nil
			}
		}

		results, err := e.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return nil, fmt.Errorf("%s returned no embedding", e.Name())
		}

		if query {
			mu.Lock()
			if len(cache) >= queryCacheSize {
				clear(cache)
			}
			cache[text] = results[0]
			mu.Unlock()
		}
		return results[0], nil
	}
}
