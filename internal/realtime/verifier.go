//go:generate go run go.uber.org/mock/mockgen -source=verifier.go -destination=../mocks/mock_verifier.go -package=mocks
package realtime

import (
	"context"

	"chat-app-api/internal/models"
)

// Verifier resolves a credential token into a verified identity. It is the
// only trust boundary of the gateway.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (models.Identity, error)
}
