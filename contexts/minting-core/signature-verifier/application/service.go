package application

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"

	domainerrors "mintbox/contexts/minting-core/signature-verifier/domain/errors"
)

// The signed message is a fixed function of the immutable request id alone.
// Binding it to anything mutable (wall clock, block height, a later nonce)
// would let the challenge drift out from under a signer who pre-computed a
// signature, so only the id goes in.
const messagePrefix = "mintbox:authorize:"

const identityPrefix = "mb1"

// Service verifies ownership signatures over authorization requests.
// It is stateless; Verify never returns an error, only false.
type Service struct {
	Logger *slog.Logger
}

// AuthorizationMessage returns the exact bytes a signer must sign to
// authorize requestID.
func AuthorizationMessage(requestID string) []byte {
	return []byte(messagePrefix + strings.TrimSpace(requestID))
}

// DeriveIdentity returns the address form of an ed25519 public key.
func DeriveIdentity(publicKey ed25519.PublicKey) string {
	sum := sha256.Sum256(publicKey)
	return identityPrefix + hex.EncodeToString(sum[:])[:40]
}

// Sign produces the hex signature blob for requestID: the 32-byte public key
// followed by the 64-byte ed25519 signature over sha256 of the message.
// It exists for clients and tests; the server side only ever verifies.
func Sign(requestID string, privateKey ed25519.PrivateKey) (string, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return "", domainerrors.ErrInvalidKey
	}
	if strings.TrimSpace(requestID) == "" {
		return "", domainerrors.ErrInvalidInput
	}

	digest := sha256.Sum256(AuthorizationMessage(requestID))
	signature := ed25519.Sign(privateKey, digest[:])
	publicKey := privateKey.Public().(ed25519.PublicKey)

	blob := make([]byte, 0, ed25519.PublicKeySize+ed25519.SignatureSize)
	blob = append(blob, publicKey...)
	blob = append(blob, signature...)
	return hex.EncodeToString(blob), nil
}

// Verify checks signature over requestID and that the recovered signer
// identity matches claimedSigner. Any mismatch or malformed input yields
// false; the caller decides whether that is fatal.
func (s Service) Verify(requestID string, signature string, claimedSigner string) bool {
	requestID = strings.TrimSpace(requestID)
	claimedSigner = strings.TrimSpace(claimedSigner)
	if requestID == "" || claimedSigner == "" {
		return false
	}

	blob, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(blob) != ed25519.PublicKeySize+ed25519.SignatureSize {
		return false
	}
	publicKey := ed25519.PublicKey(blob[:ed25519.PublicKeySize])
	rawSignature := blob[ed25519.PublicKeySize:]

	digest := sha256.Sum256(AuthorizationMessage(requestID))
	if !ed25519.Verify(publicKey, digest[:], rawSignature) {
		return false
	}

	if DeriveIdentity(publicKey) != claimedSigner {
		resolveLogger(s.Logger).Warn("signature signer mismatch",
			"event", "signature_signer_mismatch",
			"module", "minting-core/signature-verifier",
			"layer", "application",
			"request_id", requestID,
			"claimed_signer", claimedSigner,
		)
		return false
	}
	return true
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
