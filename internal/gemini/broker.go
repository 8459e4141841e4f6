package gemini

import (
	"context"

	"github.com/dqalex/OmniSpark/internal/model"
)

// CredentialBroker abstracts how the active provider credential is obtained,
// decoupling the pipeline from any specific host environment. Callers hit it
// when a permission-class failure asks for credential reselection.
type CredentialBroker interface {
	HasCredential() bool
	RequestCredential(ctx context.Context) (string, error)
}

// StaticBroker serves a fixed key from configuration. It cannot mint a new
// credential, so RequestCredential fails when the key is absent.
type StaticBroker struct {
	Key string
}

func (b StaticBroker) HasCredential() bool {
	return b.Key != ""
}

func (b StaticBroker) RequestCredential(_ context.Context) (string, error) {
	if b.Key == "" {
		return "", model.NewGenerationError(model.KindPermissionDenied, "no provider credential configured")
	}
	return b.Key, nil
}
