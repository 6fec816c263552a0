package bootstrap

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"testing"

	authorizationregistry "mintbox/contexts/minting-core/authorization-registry"
	"mintbox/contexts/minting-core/authorization-registry/domain/entities"
	registryerrors "mintbox/contexts/minting-core/authorization-registry/domain/errors"
	registryports "mintbox/contexts/minting-core/authorization-registry/ports"
	contentstore "mintbox/contexts/minting-core/content-store"
	contentmemory "mintbox/contexts/minting-core/content-store/adapters/memory"
	creditledger "mintbox/contexts/minting-core/credit-ledger"
	documenthasher "mintbox/contexts/minting-core/document-hasher"
	hasherhttp "mintbox/contexts/minting-core/document-hasher/transport/http"
	mintingorchestrator "mintbox/contexts/minting-core/minting-orchestrator"
	orchestratorports "mintbox/contexts/minting-core/minting-orchestrator/ports"
	signatureverifier "mintbox/contexts/minting-core/signature-verifier"
	verifierapp "mintbox/contexts/minting-core/signature-verifier/application"
)

const e2eOperator = "mb1operator"

const rawMessage = "Message-ID: <pipeline-1@example.com>\r\n" +
	"From: sender@example.com\r\n" +
	"To: archive@example.com\r\n" +
	"Subject: quarterly statement\r\n" +
	"Date: Mon, 03 Mar 2025 10:00:00 +0000\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=frontier\r\n" +
	"\r\n" +
	"--frontier\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Statement attached.\r\n" +
	"--frontier\r\n" +
	"Content-Type: application/pdf\r\n" +
	"Content-Disposition: attachment; filename=\"statement.pdf\"\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"JVBERi0xLjQKc3RhdGVtZW50IGRhdGE=\r\n" +
	"--frontier\r\n" +
	"Content-Type: image/png\r\n" +
	"Content-Disposition: attachment; filename=\"chart.png\"\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAAB\r\n" +
	"--frontier--\r\n"

type pipeline struct {
	hasher       documenthasher.Module
	ledger       creditledger.Module
	registry     authorizationregistry.Module
	orchestrator mintingorchestrator.Module
	content      *contentmemory.Store
}

func newPipeline(t *testing.T) pipeline {
	t.Helper()
	logger := slog.Default()

	hasherModule := documenthasher.NewModule(logger)
	verifierModule := signatureverifier.NewModule(logger)
	ledgerModule := creditledger.NewInMemoryModule(logger)
	contentModule := contentstore.NewInMemoryModule()
	contentStore, ok := contentModule.Store.(*contentmemory.Store)
	if !ok {
		t.Fatal("expected in-memory content store")
	}

	registryModule := authorizationregistry.NewInMemoryModule(
		ledgerModule.Service,
		verifierModule.Service,
		e2eOperator,
		logger,
	)
	orchestratorModule := mintingorchestrator.NewInMemoryModule(
		ContentUploaderBridge{Store: contentModule.Store},
		RegistryDriverBridge{Service: registryModule.Service},
		e2eOperator,
		logger,
	)

	return pipeline{
		hasher:       hasherModule,
		ledger:       ledgerModule,
		registry:     registryModule,
		orchestrator: orchestratorModule,
		content:      contentStore,
	}
}

// The full pipeline: a registered owner with 10 credits mints a document with
// two attachments for a total cost of 8, leaving a balance of 2.
func TestMintingPipelineEndToEnd(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)

	publicKey, privateKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("expected key generation success, got error: %v", err)
	}
	owner := verifierapp.DeriveIdentity(publicKey)

	if _, err := p.ledger.Service.Register(ctx, owner, map[string]string{"channel": "email"}); err != nil {
		t.Fatalf("expected registration success, got error: %v", err)
	}
	if err := p.ledger.Service.Deposit(ctx, owner, 10); err != nil {
		t.Fatalf("expected deposit success, got error: %v", err)
	}

	// Hash the document.
	digestResp, err := p.hasher.Handler.DigestDocumentHandler(ctx, hasherhttp.DigestDocumentRequest{
		RawMessage: base64.StdEncoding.EncodeToString([]byte(rawMessage)),
	})
	if err != nil {
		t.Fatalf("expected digest success, got error: %v", err)
	}
	if len(digestResp.Data.AttachmentHashes) != 2 {
		t.Fatalf("expected 2 attachment hashes, got %d", len(digestResp.Data.AttachmentHashes))
	}

	// Create the request: cost 3 + 2*2 + 1 = 8, no debit yet.
	request, err := p.registry.Service.Create(ctx, registryports.CreateRequestInput{
		OwnerIdentity: owner,
		Digest: entities.DocumentDigest{
			BodyHash:         digestResp.Data.BodyHash,
			FullHash:         digestResp.Data.FullHash,
			HeaderSetHash:    digestResp.Data.HeaderSetHash,
			AttachmentHashes: digestResp.Data.AttachmentHashes,
		},
	})
	if err != nil {
		t.Fatalf("expected create success, got error: %v", err)
	}
	if request.CreditCost != 8 {
		t.Fatalf("expected cost 8, got %d", request.CreditCost)
	}
	if balance, _ := p.ledger.Service.GetBalance(ctx, owner); balance != 10 {
		t.Fatalf("expected balance 10 before authorization, got %d", balance)
	}

	// Authorize with a real signature over the request id.
	signature, err := verifierapp.Sign(request.RequestID, privateKey)
	if err != nil {
		t.Fatalf("expected signing success, got error: %v", err)
	}
	if _, err := p.registry.Service.Authorize(ctx, owner, request.RequestID, signature); err != nil {
		t.Fatalf("expected authorize success, got error: %v", err)
	}
	if balance, _ := p.ledger.Service.GetBalance(ctx, owner); balance != 2 {
		t.Fatalf("expected balance 2 after debit, got %d", balance)
	}

	// Mint as the operator.
	pkg, err := base64.StdEncoding.DecodeString(digestResp.Data.ContentPackage)
	if err != nil {
		t.Fatalf("expected package decode success, got error: %v", err)
	}
	attachments := make([]orchestratorports.Attachment, 0, len(digestResp.Data.Attachments))
	for _, attachment := range digestResp.Data.Attachments {
		attachments = append(attachments, orchestratorports.Attachment{
			Filename:    attachment.Filename,
			ContentType: attachment.ContentType,
			Size:        attachment.Size,
			ContentHash: attachment.ContentHash,
		})
	}
	outcome, err := p.orchestrator.Service.Mint(ctx, e2eOperator, request.RequestID, pkg, attachments)
	if err != nil {
		t.Fatalf("expected mint success, got error: %v", err)
	}
	if !outcome.Success {
		t.Fatal("expected successful mint outcome")
	}
	if outcome.CreditsSpent != 8 {
		t.Fatalf("expected credits spent 8, got %d", outcome.CreditsSpent)
	}
	if len(outcome.ChildArtifactIDs) != 2 || outcome.ChildArtifactIDs[0] == "" || outcome.ChildArtifactIDs[1] == "" {
		t.Fatalf("expected two child artifacts, got %v", outcome.ChildArtifactIDs)
	}

	processed, err := p.registry.Service.Get(ctx, request.RequestID)
	if err != nil {
		t.Fatalf("expected request lookup success, got error: %v", err)
	}
	if processed.Status != entities.StatusProcessed {
		t.Fatalf("expected processed status, got %s", processed.Status)
	}

	// The uploaded package is stored under its content id and pinned.
	parent, children, err := p.orchestrator.Service.ListMintedArtifacts(ctx, request.RequestID)
	if err != nil {
		t.Fatalf("expected artifact lookup success, got error: %v", err)
	}
	if parent.OwnerIdentity != owner {
		t.Fatalf("expected parent owned by %s, got %s", owner, parent.OwnerIdentity)
	}
	if !strings.HasPrefix(parent.ContentID, "baf") {
		t.Fatalf("expected CIDv1 content id, got %s", parent.ContentID)
	}
	if !p.content.IsPinned(parent.ContentID) {
		t.Fatal("expected uploaded content pinned")
	}
	if len(children) != 2 {
		t.Fatalf("expected 2 attachment artifacts, got %d", len(children))
	}

	// A second authorization attempt after processing is a state conflict.
	if _, err := p.registry.Service.Authorize(ctx, owner, request.RequestID, signature); !errors.Is(err, registryerrors.ErrRequestNotInExpectedState) {
		t.Fatalf("expected state conflict on re-authorize, got %v", err)
	}
}

func TestPipelineRejectsForgedAuthorization(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)

	ownerPub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("expected key generation success, got error: %v", err)
	}
	_, strangerPriv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("expected key generation success, got error: %v", err)
	}
	owner := verifierapp.DeriveIdentity(ownerPub)

	if _, err := p.ledger.Service.Register(ctx, owner, nil); err != nil {
		t.Fatalf("expected registration success, got error: %v", err)
	}
	if err := p.ledger.Service.Deposit(ctx, owner, 10); err != nil {
		t.Fatalf("expected deposit success, got error: %v", err)
	}

	request, err := p.registry.Service.Create(ctx, registryports.CreateRequestInput{
		OwnerIdentity: owner,
		Digest: entities.DocumentDigest{
			BodyHash: "body-hash",
			FullHash: "full-hash",
		},
	})
	if err != nil {
		t.Fatalf("expected create success, got error: %v", err)
	}

	// A stranger signing the same request id cannot authorize it: the blob
	// verifies against the stranger's key, not the owner's identity.
	forged, err := verifierapp.Sign(request.RequestID, strangerPriv)
	if err != nil {
		t.Fatalf("expected signing success, got error: %v", err)
	}
	if _, err := p.registry.Service.Authorize(ctx, owner, request.RequestID, forged); !errors.Is(err, registryerrors.ErrSignatureMismatch) {
		t.Fatalf("expected signature mismatch, got %v", err)
	}
	if balance, _ := p.ledger.Service.GetBalance(ctx, owner); balance != 10 {
		t.Fatalf("expected balance untouched, got %d", balance)
	}
}
