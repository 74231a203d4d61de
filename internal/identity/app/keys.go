package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/nexusai/careerid/pkg/jwtx"
)

// InitSigningKey loads the Ed25519 signing key from cfg.SigningKeyFile,
// generating and persisting a new one when the file does not yet exist.
//
// Persisting the key on first start means issued tokens survive service
// restarts; deleting the file forces every session to re-authenticate.
func InitSigningKey(cfg Config, logger *slog.Logger) (*jwtx.EdDSASigner, error) {
	pemKey, err := os.ReadFile(cfg.SigningKeyFile)
	switch {
	case err == nil:
		logger.Info("signing key loaded", "path", cfg.SigningKeyFile, "kid", cfg.SigningKeyID)

	case errors.Is(err, fs.ErrNotExist):
		pemKey, err = jwtx.GenerateEd25519PEM()
		if err != nil {
			return nil, fmt.Errorf("failed to generate signing key: %w", err)
		}
		if err := os.WriteFile(cfg.SigningKeyFile, pemKey, 0o600); err != nil {
			return nil, fmt.Errorf("failed to persist signing key: %w", err)
		}
		logger.Info("new signing key generated", "path", cfg.SigningKeyFile, "kid", cfg.SigningKeyID)
		logger.Warn("all previously issued tokens are now invalid")

	default:
		return nil, fmt.Errorf("failed to read signing key: %w", err)
	}

	signer, err := jwtx.NewSignerEdDSA(cfg.SigningKeyID, pemKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize signer: %w", err)
	}

	return signer, nil
}
