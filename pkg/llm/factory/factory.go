package factory

import (
	"fmt"

	"legal-rag-be/pkg/llm"
	"legal-rag-be/pkg/llm/ollama"
	"legal-rag-be/pkg/llm/openai"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "openai", "huggingface":
		if providerType == "huggingface" && baseURL == "" {
			baseURL = "https://router.huggingface.co/v1"
		}
		return openai.NewProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
