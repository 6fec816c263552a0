package entities

import (
	"strings"
	"time"

	domainerrors "mintbox/contexts/minting-core/authorization-registry/domain/errors"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusAuthorized Status = "authorized"
	StatusProcessed  Status = "processed"
	StatusExpired    Status = "expired"
	StatusCancelled  Status = "cancelled"
)

// DocumentDigest mirrors the hashes fixed at request creation. The registry
// stores it verbatim and never recomputes any field.
type DocumentDigest struct {
	BodyHash         string
	FullHash         string
	HeaderSetHash    string
	AttachmentHashes []string
}

// Request is one pending intent to mint artifacts from a document.
type Request struct {
	RequestID       string
	Token           string
	OwnerIdentity   string
	Digest          DocumentDigest
	AttachmentCount int
	CreditCost      uint64
	Status          Status
	CreatedAt       time.Time
	ExpiresAt       time.Time
	UpdatedAt       time.Time
}

func NewRequest(
	requestID string,
	token string,
	ownerIdentity string,
	digest DocumentDigest,
	attachmentCount int,
	creditCost uint64,
	createdAt time.Time,
	expiresAt time.Time,
) (Request, error) {
	if strings.TrimSpace(requestID) == "" ||
		strings.TrimSpace(token) == "" ||
		strings.TrimSpace(ownerIdentity) == "" {
		return Request{}, domainerrors.ErrInvalidInput
	}
	if strings.TrimSpace(digest.FullHash) == "" || strings.TrimSpace(digest.BodyHash) == "" {
		return Request{}, domainerrors.ErrInvalidInput
	}
	if attachmentCount < 0 || len(digest.AttachmentHashes) != attachmentCount {
		return Request{}, domainerrors.ErrInvalidInput
	}
	if !expiresAt.After(createdAt) {
		return Request{}, domainerrors.ErrInvalidInput
	}

	return Request{
		RequestID:       requestID,
		Token:           token,
		OwnerIdentity:   ownerIdentity,
		Digest:          digest,
		AttachmentCount: attachmentCount,
		CreditCost:      creditCost,
		Status:          StatusPending,
		CreatedAt:       createdAt.UTC(),
		ExpiresAt:       expiresAt.UTC(),
		UpdatedAt:       createdAt.UTC(),
	}, nil
}

// CanTransition reports whether the monotone status machine admits from -> to.
// Nothing ever returns to pending and terminal states never move.
func CanTransition(from Status, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusAuthorized || to == StatusExpired || to == StatusCancelled
	case StatusAuthorized:
		return to == StatusProcessed
	default:
		return false
	}
}

// IsTerminal reports whether the request can never transition again.
func (r Request) IsTerminal() bool {
	return r.Status == StatusProcessed || r.Status == StatusExpired || r.Status == StatusCancelled
}

// ExpiredBy reports whether the expiry window has passed at now.
func (r Request) ExpiredBy(now time.Time) bool {
	return now.UTC().After(r.ExpiresAt)
}
