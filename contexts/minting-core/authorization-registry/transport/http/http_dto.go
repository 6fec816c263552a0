package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateRequestRequest struct {
	OwnerIdentity    string   `json:"owner_identity"`
	BodyHash         string   `json:"body_hash"`
	FullHash         string   `json:"full_hash"`
	HeaderSetHash    string   `json:"header_set_hash"`
	AttachmentHashes []string `json:"attachment_hashes"`
}

type RequestDTO struct {
	RequestID        string   `json:"request_id"`
	Token            string   `json:"token"`
	OwnerIdentity    string   `json:"owner_identity"`
	BodyHash         string   `json:"body_hash"`
	FullHash         string   `json:"full_hash"`
	HeaderSetHash    string   `json:"header_set_hash"`
	AttachmentHashes []string `json:"attachment_hashes"`
	AttachmentCount  int      `json:"attachment_count"`
	CreditCost       uint64   `json:"credit_cost"`
	Status           string   `json:"status"`
	CreatedAt        string   `json:"created_at"`
	ExpiresAt        string   `json:"expires_at"`
	UpdatedAt        string   `json:"updated_at"`
}

type RequestResponse struct {
	Status string     `json:"status"`
	Data   RequestDTO `json:"data"`
}

type RequestListResponse struct {
	Status string       `json:"status"`
	Data   []RequestDTO `json:"data"`
}

type AuthorizeRequest struct {
	Caller    string `json:"caller"`
	Signature string `json:"signature"`
}

type AuthorizeResponse struct {
	Status string `json:"status"`
	Data   struct {
		RequestID      string `json:"request_id"`
		SignerIdentity string `json:"signer_identity"`
		VerifiedAt     string `json:"verified_at"`
	} `json:"data"`
}

type CancelRequest struct {
	Caller string `json:"caller"`
}

type CancelResponse struct {
	Status string `json:"status"`
}

type ValidityResponse struct {
	Status string `json:"status"`
	Data   struct {
		RequestID string `json:"request_id"`
		Valid     bool   `json:"valid"`
	} `json:"data"`
}
