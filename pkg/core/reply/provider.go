// Package reply wraps the external language-generation backends that turn a
// call's ordered history into one assistant utterance. Providers perform no
// retries; failure policy belongs to the dialog controller.
package reply

import (
	"context"

	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core/types"
)

// Provider is the interface for reply-generation services.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Reply generates one assistant utterance from the full ordered
	// conversation history. The first turn is expected to be the persona
	// instruction; providers map it to their native system channel.
	Reply(ctx context.Context, turns []types.Turn) (string, error)
}

// splitHistory separates the leading system turn from the conversational
// turns. Both backends carry the persona on a dedicated channel.
func splitHistory(turns []types.Turn) (system string, rest []types.Turn) {
	if len(turns) > 0 && turns[0].Role == types.RoleSystem {
		return turns[0].Text, turns[1:]
	}
	return "", turns
}
