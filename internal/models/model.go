package models

import "strings"

// Role classifies a model name into the job it performs.
type Role string

const (
	RoleGeneration Role = "generation"
	RoleEmbedding  Role = "embedding"
)

// Classifier decides the role of a model from its name. The backend exposes
// no explicit role field, so classification is a naming convention, not a
// protocol guarantee. Callers that know better can supply their own.
type Classifier func(name string) Role

// DefaultClassifier matches the convention used by Ollama model listings:
// names containing "embed" or "nomic" are embedding models, everything
// else generates text.
func DefaultClassifier(name string) Role {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "embed") || strings.Contains(lower, "nomic") {
		return RoleEmbedding
	}
	return RoleGeneration
}

// PartitionModels splits a model list into generation and embedding lists,
// preserving the backend's order within each role.
func PartitionModels(names []string, classify Classifier) (generation, embedding []string) {
	if classify == nil {
		classify = DefaultClassifier
	}
	for _, name := range names {
		if classify(name) == RoleEmbedding {
			embedding = append(embedding, name)
		} else {
			generation = append(generation, name)
		}
	}
	return generation, embedding
}

// DefaultGenerationModel picks the preferred generation model from a list:
// a llama3 or mistral variant when present, otherwise the first entry.
// Returns "" for an empty list.
func DefaultGenerationModel(names []string) string {
	return pickPreferred(names, "llama3", "mistral")
}

// DefaultEmbeddingModel picks the preferred embedding model from a list:
// an mxbai-embed-large variant when present, otherwise the first entry.
// Returns "" for an empty list.
func DefaultEmbeddingModel(names []string) string {
	return pickPreferred(names, "mxbai-embed-large")
}

func pickPreferred(names []string, substrings ...string) string {
	for _, name := range names {
		for _, sub := range substrings {
			if strings.Contains(name, sub) {
				return name
			}
		}
	}
	if len(names) > 0 {
		return names[0]
	}
	return ""
}
