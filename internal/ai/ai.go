package ai

import "context"

// Generator produces text for a prompt. Implementations wrap a concrete
// provider; callers stay provider-agnostic.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}
