package application

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"sort"
	"strings"
	"time"

	domainerrors "mintbox/contexts/minting-core/document-hasher/domain/errors"
	"mintbox/contexts/minting-core/document-hasher/ports"

	"golang.org/x/crypto/sha3"
)

const (
	// MaxAttachments bounds how many MIME parts a single document may mint.
	MaxAttachments = 100

	bodyTruncateLimit = 512
)

type Service struct {
	Logger *slog.Logger
}

// DigestDocument parses raw message bytes and computes the canonical digest
// in one pass. The digest is deterministic: identical bytes always produce
// identical hashes.
func (s Service) DigestDocument(raw []byte) (ports.ParsedDocument, ports.DocumentDigest, error) {
	doc, err := s.Parse(raw)
	if err != nil {
		return ports.ParsedDocument{}, ports.DocumentDigest{}, err
	}
	return doc, s.Digest(doc), nil
}

func (s Service) Parse(raw []byte) (ports.ParsedDocument, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return ports.ParsedDocument{}, domainerrors.ErrEmptyDocument
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		resolveLogger(s.Logger).Warn("document parse rejected",
			"event", "document_parse_rejected",
			"module", "minting-core/document-hasher",
			"layer", "application",
			"error", err.Error(),
		)
		return ports.ParsedDocument{}, domainerrors.ErrMalformedDocument
	}

	doc := ports.ParsedDocument{
		MessageID:            strings.Trim(msg.Header.Get("Message-ID"), "<> "),
		From:                 strings.TrimSpace(msg.Header.Get("From")),
		To:                   strings.TrimSpace(msg.Header.Get("To")),
		Subject:              strings.TrimSpace(msg.Header.Get("Subject")),
		AuthenticationResult: strings.TrimSpace(msg.Header.Get("Authentication-Results")),
		Headers:              make(map[string]string, len(msg.Header)),
	}
	if date, err := msg.Header.Date(); err == nil {
		doc.Date = date.UTC()
	}
	for key, values := range msg.Header {
		if len(values) > 0 {
			doc.Headers[key] = values[0]
		}
	}

	if err := collectParts(&doc, msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), "", msg.Body); err != nil {
		return ports.ParsedDocument{}, err
	}
	if len(doc.Attachments) > MaxAttachments {
		return ports.ParsedDocument{}, domainerrors.ErrTooManyAttachments
	}
	return doc, nil
}

// Digest computes the canonical DocumentDigest over a parsed document.
func (s Service) Digest(doc ports.ParsedDocument) ports.DocumentDigest {
	digest := ports.DocumentDigest{
		BodyHash:      hashHex([]byte(doc.BodyText + doc.BodyHTML)),
		FullHash:      hashHex([]byte(doc.MessageID + "|" + doc.From + "|" + doc.Subject + "|" + truncateBody(doc))),
		HeaderSetHash: hashHex(serializeHeaders(doc.Headers)),
	}
	digest.AttachmentHashes = make([]string, 0, len(doc.Attachments))
	for _, attachment := range doc.Attachments {
		digest.AttachmentHashes = append(digest.AttachmentHashes, hashHex(attachment.Content))
	}
	return digest
}

// BuildPackage assembles the immutable content package for upload.
// attachmentRefs carries per-attachment storage references when individual
// attachment payloads were stored separately; missing entries stay empty.
func (s Service) BuildPackage(
	raw []byte,
	doc ports.ParsedDocument,
	digest ports.DocumentDigest,
	attachmentRefs []string,
	createdAt time.Time,
) ([]byte, ports.ContentPackage, error) {
	if len(raw) == 0 {
		return nil, ports.ContentPackage{}, domainerrors.ErrInvalidInput
	}
	if len(digest.AttachmentHashes) != len(doc.Attachments) {
		return nil, ports.ContentPackage{}, domainerrors.ErrInvalidInput
	}

	var pkg ports.ContentPackage
	pkg.RawDocument.Content = base64.StdEncoding.EncodeToString(raw)
	pkg.RawDocument.ContentHash = hashHex(raw)
	pkg.ParsedDocument.Subject = doc.Subject
	pkg.ParsedDocument.From = doc.From
	pkg.ParsedDocument.To = doc.To
	if !doc.Date.IsZero() {
		pkg.ParsedDocument.Date = doc.Date.UTC().Format(time.RFC3339)
	}
	pkg.ParsedDocument.BodyText = doc.BodyText
	pkg.ParsedDocument.BodyHTML = doc.BodyHTML
	pkg.ParsedDocument.Headers = doc.Headers
	pkg.ParsedDocument.AuthenticationResult = doc.AuthenticationResult

	totalSize := int64(len(raw))
	pkg.Attachments = make([]ports.PackageAttachment, 0, len(doc.Attachments))
	for i, attachment := range doc.Attachments {
		ref := ""
		if i < len(attachmentRefs) {
			ref = attachmentRefs[i]
		}
		pkg.Attachments = append(pkg.Attachments, ports.PackageAttachment{
			Filename:    attachment.Filename,
			ContentType: attachment.ContentType,
			Size:        attachment.Size,
			ContentHash: digest.AttachmentHashes[i],
			StorageRef:  ref,
		})
		totalSize += attachment.Size
	}
	pkg.Metadata.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	pkg.Metadata.TotalSize = totalSize
	pkg.Verification.RawContentHash = pkg.RawDocument.ContentHash

	parsedPayload, err := json.Marshal(pkg.ParsedDocument)
	if err != nil {
		return nil, ports.ContentPackage{}, err
	}
	pkg.Verification.ParsedContentHash = hashHex(parsedPayload)

	// The package hash is computed over the package with the hash field
	// itself left empty, then filled in.
	unsigned, err := json.Marshal(pkg)
	if err != nil {
		return nil, ports.ContentPackage{}, err
	}
	pkg.Verification.PackageHash = hashHex(unsigned)

	payload, err := json.Marshal(pkg)
	if err != nil {
		return nil, ports.ContentPackage{}, err
	}
	return payload, pkg, nil
}

func collectParts(doc *ports.ParsedDocument, contentType string, encoding string, disposition string, body io.Reader) error {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType == "" {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return domainerrors.ErrMalformedDocument
		}
		reader := multipart.NewReader(body, boundary)
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return domainerrors.ErrMalformedDocument
			}
			partDisposition, _, _ := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
			if part.FileName() != "" || partDisposition == "attachment" {
				content, err := decodeContent(part, part.Header.Get("Content-Transfer-Encoding"))
				if err != nil {
					return err
				}
				partType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
				if partType == "" {
					partType = "application/octet-stream"
				}
				doc.Attachments = append(doc.Attachments, ports.Attachment{
					Filename:    part.FileName(),
					ContentType: partType,
					Size:        int64(len(content)),
					Content:     content,
				})
				continue
			}
			if err := collectParts(doc, part.Header.Get("Content-Type"), part.Header.Get("Content-Transfer-Encoding"), partDisposition, part); err != nil {
				return err
			}
		}
	}

	content, err := decodeContent(body, encoding)
	if err != nil {
		return err
	}
	switch {
	case mediaType == "text/html":
		doc.BodyHTML += string(content)
	case strings.HasPrefix(mediaType, "text/"):
		doc.BodyText += string(content)
	case disposition == "attachment":
		doc.Attachments = append(doc.Attachments, ports.Attachment{
			ContentType: mediaType,
			Size:        int64(len(content)),
			Content:     content,
		})
	}
	return nil
}

func decodeContent(body io.Reader, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		body = base64.NewDecoder(base64.StdEncoding, body)
	case "quoted-printable":
		body = quotedprintable.NewReader(body)
	}
	content, err := io.ReadAll(body)
	if err != nil {
		return nil, domainerrors.ErrMalformedDocument
	}
	return content, nil
}

func truncateBody(doc ports.ParsedDocument) string {
	body := doc.BodyText
	if body == "" {
		body = doc.BodyHTML
	}
	if len(body) > bodyTruncateLimit {
		return body[:bodyTruncateLimit]
	}
	return body
}

func serializeHeaders(headers map[string]string) []byte {
	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for _, key := range keys {
		builder.WriteString(key)
		builder.WriteString("=")
		builder.WriteString(headers[key])
		builder.WriteString("\n")
	}
	return []byte(builder.String())
}

func hashHex(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
