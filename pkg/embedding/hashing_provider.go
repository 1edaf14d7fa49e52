package embedding

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

const DefaultHashingDimensions = 384

// HashingProvider is an offline embedder: lowercase word and bigram features
// hashed into a fixed number of signed buckets, then L2 normalised. Texts that
// share vocabulary land close together, which is enough for local runs and
// tests without a model server.
type HashingProvider struct {
	dims int
}

func NewHashingProvider(dims int) EmbeddingProvider {
	if dims <= 0 {
		dims = DefaultHashingDimensions
	}
	return &HashingProvider{dims: dims}
}

func (p *HashingProvider) ModelName() string {
	return fmt.Sprintf("hashing-%d", p.dims)
}

func (p *HashingProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, p.dims)
	tokens := tokenize(text)
	for i, tok := range tokens {
		p.add(vec, tok, 1)
		if i > 0 {
			p.add(vec, tokens[i-1]+" "+tok, 0.5)
		}
	}

	return newResponse(normalizeVector(vec)), nil
}

func (p *HashingProvider) add(vec []float32, feature string, weight float32) {
	h := xxhash.Sum64String(feature)
	idx := h % uint64(p.dims)
	if h>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
