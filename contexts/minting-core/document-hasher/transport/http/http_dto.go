package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type DigestDocumentRequest struct {
	RawMessage string `json:"raw_message"`
}

type AttachmentDTO struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	ContentHash string `json:"content_hash"`
}

type DigestDocumentResponse struct {
	Status string `json:"status"`
	Data   struct {
		MessageID        string          `json:"message_id"`
		From             string          `json:"from"`
		Subject          string          `json:"subject"`
		BodyHash         string          `json:"body_hash"`
		FullHash         string          `json:"full_hash"`
		HeaderSetHash    string          `json:"header_set_hash"`
		AttachmentHashes []string        `json:"attachment_hashes"`
		Attachments      []AttachmentDTO `json:"attachments"`
		ContentPackage   string          `json:"content_package"`
	} `json:"data"`
}
