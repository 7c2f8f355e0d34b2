package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"

	"tendercheck-backend/ratelimit"
)

// DefaultGeminiModel is the embedding model used when none is configured
const DefaultGeminiModel = "text-embedding-004"

// contentEmbedder is the part of *genai.EmbeddingModel we depend on
type contentEmbedder interface {
	EmbedContent(ctx context.Context, parts ...genai.Part) (*genai.EmbedContentResponse, error)
}

// GeminiEmbedder embeds text with the Gemini embedding API
type GeminiEmbedder struct {
	model contentEmbedder
	dims  int
}

// NewGeminiEmbedder creates an embedder for queries. Use ForDocuments for
// the variant tuned to indexed passages.
func NewGeminiEmbedder(client *genai.Client, model string, dims int) *GeminiEmbedder {
	if model == "" {
		model = DefaultGeminiModel
	}
	em := client.EmbeddingModel(model)
	em.TaskType = genai.TaskTypeRetrievalQuery
	return &GeminiEmbedder{model: em, dims: dims}
}

// ForDocuments returns an embedder using the retrieval-document task type
func (e *GeminiEmbedder) ForDocuments() *GeminiEmbedder {
	em, ok := e.model.(*genai.EmbeddingModel)
	if !ok {
		return e
	}
	doc := *em
	doc.TaskType = genai.TaskTypeRetrievalDocument
	return &GeminiEmbedder{model: &doc, dims: e.dims}
}

// Embed returns the L2-normalised embedding of text
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := e.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, classifyError(err)
	}
	if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, ErrEmptyEmbedding
	}

	values := res.Embedding.Values
	if e.dims > 0 && len(values) != e.dims {
		return nil, fmt.Errorf("embedding must be %d dimensions, got %d", e.dims, len(values))
	}
	vector := make([]float32, len(values))
	copy(vector, values)
	return Normalize(vector), nil
}

// Dimensions returns the configured vector length
func (e *GeminiEmbedder) Dimensions() int {
	return e.dims
}

// classifyError maps transport failures onto the package error kinds
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ratelimit.ErrRateLimited, err)
		case apiErr.Code == http.StatusGatewayTimeout || apiErr.Code == http.StatusRequestTimeout:
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}
