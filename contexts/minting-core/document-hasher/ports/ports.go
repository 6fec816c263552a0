package ports

import "time"

// Attachment is a decoded MIME part carried by a document.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
	Content     []byte
}

// ParsedDocument is the structured view of one raw message.
type ParsedDocument struct {
	MessageID            string
	From                 string
	To                   string
	Subject              string
	Date                 time.Time
	BodyText             string
	BodyHTML             string
	Headers              map[string]string
	AuthenticationResult string
	Attachments          []Attachment
}

// DocumentDigest holds the canonical hashes of one logical document.
// All values are hex-encoded SHA3-256 sums; they are computed once per
// document and never recomputed.
type DocumentDigest struct {
	BodyHash         string
	FullHash         string
	HeaderSetHash    string
	AttachmentHashes []string
}

// PackageAttachment is the attachment view embedded in a content package.
type PackageAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	ContentHash string `json:"content_hash"`
	StorageRef  string `json:"storage_ref"`
}

// ContentPackage is the immutable bundle uploaded to the content store.
type ContentPackage struct {
	RawDocument struct {
		Content     string `json:"content"`
		ContentHash string `json:"content_hash"`
	} `json:"raw_document"`
	ParsedDocument struct {
		Subject              string            `json:"subject"`
		From                 string            `json:"from"`
		To                   string            `json:"to"`
		Date                 string            `json:"date"`
		BodyText             string            `json:"body_text"`
		BodyHTML             string            `json:"body_html"`
		Headers              map[string]string `json:"headers"`
		AuthenticationResult string            `json:"authentication_result"`
	} `json:"parsed_document"`
	Attachments []PackageAttachment `json:"attachments"`
	Metadata    struct {
		CreatedAt string `json:"created_at"`
		TotalSize int64  `json:"total_size"`
	} `json:"metadata"`
	Verification struct {
		RawContentHash    string `json:"raw_content_hash"`
		ParsedContentHash string `json:"parsed_content_hash"`
		PackageHash       string `json:"package_hash"`
	} `json:"verification"`
}
