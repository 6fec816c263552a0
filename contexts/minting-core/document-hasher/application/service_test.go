package application

import (
	"errors"
	"strings"
	"testing"
	"time"

	domainerrors "mintbox/contexts/minting-core/document-hasher/domain/errors"
)

const sampleMessage = "Message-ID: <msg-1@example.com>\r\n" +
	"From: sender@example.com\r\n" +
	"To: inbox@mintbox.dev\r\n" +
	"Subject: quarterly report\r\n" +
	"Date: Mon, 02 Jun 2025 10:00:00 +0000\r\n" +
	"Content-Type: multipart/mixed; boundary=frontier\r\n" +
	"\r\n" +
	"--frontier\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"Numbers are attached.\r\n" +
	"--frontier\r\n" +
	"Content-Type: text/html\r\n" +
	"\r\n" +
	"<p>Numbers are attached.</p>\r\n" +
	"--frontier\r\n" +
	"Content-Type: application/pdf\r\n" +
	"Content-Disposition: attachment; filename=report.pdf\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"cmVwb3J0LWJ5dGVz\r\n" +
	"--frontier--\r\n"

func TestDigestDocumentIsDeterministic(t *testing.T) {
	service := Service{}

	docA, digestA, err := service.DigestDocument([]byte(sampleMessage))
	if err != nil {
		t.Fatalf("first digest failed: %v", err)
	}
	_, digestB, err := service.DigestDocument([]byte(sampleMessage))
	if err != nil {
		t.Fatalf("second digest failed: %v", err)
	}

	if digestA.FullHash != digestB.FullHash ||
		digestA.BodyHash != digestB.BodyHash ||
		digestA.HeaderSetHash != digestB.HeaderSetHash ||
		len(digestA.AttachmentHashes) != len(digestB.AttachmentHashes) {
		t.Fatalf("digest not deterministic: %v vs %v", digestA, digestB)
	}
	if len(docA.Attachments) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(docA.Attachments))
	}
	if docA.Attachments[0].Filename != "report.pdf" {
		t.Fatalf("unexpected attachment filename: %s", docA.Attachments[0].Filename)
	}
	if string(docA.Attachments[0].Content) != "report-bytes" {
		t.Fatalf("attachment content not decoded: %q", docA.Attachments[0].Content)
	}
	if len(digestA.AttachmentHashes) != 1 || digestA.AttachmentHashes[0] == "" {
		t.Fatalf("expected one attachment hash, got %v", digestA.AttachmentHashes)
	}
}

func TestParseRejectsEmptyAndMalformedInput(t *testing.T) {
	service := Service{}

	if _, err := service.Parse(nil); !errors.Is(err, domainerrors.ErrEmptyDocument) {
		t.Fatalf("expected empty document error, got %v", err)
	}
	if _, err := service.Parse([]byte("   \r\n ")); !errors.Is(err, domainerrors.ErrEmptyDocument) {
		t.Fatalf("expected empty document error for whitespace, got %v", err)
	}
	if _, err := service.Parse([]byte("no header section here")); !errors.Is(err, domainerrors.ErrMalformedDocument) {
		t.Fatalf("expected malformed document error, got %v", err)
	}
}

func TestDigestChangesWithBody(t *testing.T) {
	service := Service{}

	_, digestA, err := service.DigestDocument([]byte("From: a@b.c\r\nSubject: x\r\n\r\nbody one"))
	if err != nil {
		t.Fatalf("digest one failed: %v", err)
	}
	_, digestB, err := service.DigestDocument([]byte("From: a@b.c\r\nSubject: x\r\n\r\nbody two"))
	if err != nil {
		t.Fatalf("digest two failed: %v", err)
	}
	if digestA.BodyHash == digestB.BodyHash {
		t.Fatalf("expected body hash to change with body content")
	}
}

func TestHeaderSetHashIgnoresMapOrdering(t *testing.T) {
	headersA := map[string]string{"Subject": "x", "From": "a@b.c", "To": "c@d.e"}
	headersB := map[string]string{"To": "c@d.e", "From": "a@b.c", "Subject": "x"}

	if string(serializeHeaders(headersA)) != string(serializeHeaders(headersB)) {
		t.Fatalf("header serialization must be order independent")
	}
}

func TestBuildPackageEmbedsVerificationHashes(t *testing.T) {
	service := Service{}
	raw := []byte(sampleMessage)

	doc, digest, err := service.DigestDocument(raw)
	if err != nil {
		t.Fatalf("digest failed: %v", err)
	}

	payload, pkg, err := service.BuildPackage(raw, doc, digest, []string{"ref-1"}, time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("build package failed: %v", err)
	}
	if len(payload) == 0 {
		t.Fatalf("expected serialized package payload")
	}
	if pkg.Verification.RawContentHash == "" || pkg.Verification.ParsedContentHash == "" || pkg.Verification.PackageHash == "" {
		t.Fatalf("verification hashes incomplete: %+v", pkg.Verification)
	}
	if pkg.Verification.PackageHash == pkg.Verification.RawContentHash {
		t.Fatalf("package hash should cover more than the raw content")
	}
	if len(pkg.Attachments) != 1 || pkg.Attachments[0].StorageRef != "ref-1" {
		t.Fatalf("attachment storage ref not propagated: %+v", pkg.Attachments)
	}
	if !strings.Contains(string(payload), pkg.Verification.PackageHash) {
		t.Fatalf("serialized payload must embed the package hash")
	}
}

func TestBuildPackageRejectsMismatchedDigest(t *testing.T) {
	service := Service{}
	raw := []byte(sampleMessage)

	doc, digest, err := service.DigestDocument(raw)
	if err != nil {
		t.Fatalf("digest failed: %v", err)
	}
	digest.AttachmentHashes = nil

	if _, _, err := service.BuildPackage(raw, doc, digest, nil, time.Now()); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}
