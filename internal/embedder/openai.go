package embedder

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI returns an embedder backed by the OpenAI embeddings API.
// model defaults to text-embedding-3-small; baseURL may point at any
// API-compatible server.
func OpenAI(apiKey, model, baseURL string) Func {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	client := openai.NewClientWithConfig(config)

	embeddingModel := openai.EmbeddingModel(model)
	if model == "" {
		embeddingModel = openai.SmallEmbedding3
	}

	return func(ctx context.Context, text string) ([]float32, error) {
		resp, err := client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: []string{text},
			Model: embeddingModel,
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Data) == 0 {
			return nil, fmt.Errorf("no embedding data")
		}
		return resp.Data[0].Embedding, nil
	}
}
