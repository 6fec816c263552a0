package application

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mintbox/contexts/minting-core/authorization-registry/adapters/memory"
	"mintbox/contexts/minting-core/authorization-registry/domain/entities"
	domainerrors "mintbox/contexts/minting-core/authorization-registry/domain/errors"
	"mintbox/contexts/minting-core/authorization-registry/ports"
)

const testOperator = "mb1operator"

type fakeLedger struct {
	mu       sync.Mutex
	balances map[string]uint64
	debits   int
	failNext error
}

func newFakeLedger(balances map[string]uint64) *fakeLedger {
	return &fakeLedger{balances: balances}
}

func (l *fakeLedger) GetBalance(_ context.Context, identity string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[identity], nil
}

func (l *fakeLedger) Debit(_ context.Context, identity string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failNext != nil {
		err := l.failNext
		l.failNext = nil
		return err
	}
	if l.balances[identity] < amount {
		return domainerrors.ErrInsufficientCredits
	}
	l.balances[identity] -= amount
	l.debits++
	return nil
}

func (l *fakeLedger) CostFor(attachmentCount int) uint64 {
	return 3 + 2*uint64(attachmentCount) + 1
}

func (l *fakeLedger) debitCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debits
}

type fakeVerifier struct {
	accept string
}

func (v fakeVerifier) Verify(_ string, signature string, _ string) bool {
	return signature == v.accept
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type scriptedExecution struct {
	parentErr error
	childErrs map[int]error
	created   atomic.Int64
}

func (e *scriptedExecution) CreateParent(_ context.Context, request entities.Request, _ ports.ArtifactInput) (string, error) {
	if e.parentErr != nil {
		return "", e.parentErr
	}
	return "artifact_parent_" + request.RequestID, nil
}

func (e *scriptedExecution) CreateAttachment(_ context.Context, request entities.Request, index int, _ ports.AttachmentInput) (string, error) {
	if err, ok := e.childErrs[index]; ok {
		return "", err
	}
	e.created.Add(1)
	return "artifact_child_" + request.RequestID + "_" + strconv.Itoa(index), nil
}

func newTestService(ledger ports.Ledger, clock ports.Clock) (Service, *memory.Store) {
	store := memory.NewStore()
	if clock == nil {
		clock = store
	}
	return Service{
		Requests:   store,
		Signatures: store,
		Outbox:     store,
		Ledger:     ledger,
		Verifier:   fakeVerifier{accept: "good-signature"},
		Clock:      clock,
		IDGen:      store,
		Operator:   testOperator,
		Logger:     slog.Default(),
		Sequence:   &atomic.Uint64{},
	}, store
}

func digestWithAttachments(n int) entities.DocumentDigest {
	hashes := make([]string, n)
	for i := range hashes {
		hashes[i] = "attachment-hash-" + strconv.Itoa(i)
	}
	return entities.DocumentDigest{
		BodyHash:         "body-hash",
		FullHash:         "full-hash",
		HeaderSetHash:    "header-set-hash",
		AttachmentHashes: hashes,
	}
}

func TestCreateFixesCostAndExpiryWithoutDebiting(t *testing.T) {
	ledger := newFakeLedger(map[string]uint64{"mb1owner": 10})
	service, _ := newTestService(ledger, nil)

	request, err := service.Create(context.Background(), ports.CreateRequestInput{
		OwnerIdentity: "mb1owner",
		Digest:        digestWithAttachments(2),
	})
	if err != nil {
		t.Fatalf("expected create success, got error: %v", err)
	}
	if request.Status != entities.StatusPending {
		t.Fatalf("expected pending, got %s", request.Status)
	}
	if request.CreditCost != 8 {
		t.Fatalf("expected cost 8 for 2 attachments, got %d", request.CreditCost)
	}
	if got := request.ExpiresAt.Sub(request.CreatedAt); got != ExpiryWindow {
		t.Fatalf("expected 24h expiry window, got %s", got)
	}
	if ledger.debitCount() != 0 {
		t.Fatalf("expected no debit at creation, got %d", ledger.debitCount())
	}

	balance, _ := ledger.GetBalance(context.Background(), "mb1owner")
	if balance != 10 {
		t.Fatalf("expected balance untouched at creation, got %d", balance)
	}
}

func TestCreateRejectsInsufficientBalance(t *testing.T) {
	ledger := newFakeLedger(map[string]uint64{"mb1owner": 7})
	service, _ := newTestService(ledger, nil)

	_, err := service.Create(context.Background(), ports.CreateRequestInput{
		OwnerIdentity: "mb1owner",
		Digest:        digestWithAttachments(2),
	})
	if !errors.Is(err, domainerrors.ErrInsufficientCredits) {
		t.Fatalf("expected insufficient credits, got %v", err)
	}
}

func TestConcurrentCreatesYieldDistinctRequestIDs(t *testing.T) {
	ledger := newFakeLedger(map[string]uint64{"mb1owner": 1000})
	service, _ := newTestService(ledger, nil)

	const writers = 20
	ids := make(chan string, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			request, err := service.Create(context.Background(), ports.CreateRequestInput{
				OwnerIdentity: "mb1owner",
				Digest:        digestWithAttachments(0),
			})
			if err != nil {
				t.Errorf("expected create success, got error: %v", err)
				return
			}
			ids <- request.RequestID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate request id %s", id)
		}
		seen[id] = true
	}
	if len(seen) != writers {
		t.Fatalf("expected %d distinct ids, got %d", writers, len(seen))
	}
}

func TestAuthorizeDebitsExactlyOnce(t *testing.T) {
	ledger := newFakeLedger(map[string]uint64{"mb1owner": 10})
	service, store := newTestService(ledger, nil)

	request, err := service.Create(context.Background(), ports.CreateRequestInput{
		OwnerIdentity: "mb1owner",
		Digest:        digestWithAttachments(2),
	})
	if err != nil {
		t.Fatalf("expected create success, got error: %v", err)
	}

	record, err := service.Authorize(context.Background(), "mb1owner", request.RequestID, "good-signature")
	if err != nil {
		t.Fatalf("expected authorize success, got error: %v", err)
	}
	if record.SignerIdentity != "mb1owner" {
		t.Fatalf("expected signer mb1owner, got %s", record.SignerIdentity)
	}

	balance, _ := ledger.GetBalance(context.Background(), "mb1owner")
	if balance != 2 {
		t.Fatalf("expected balance 2 after debit of 8, got %d", balance)
	}

	stored, err := store.GetRequest(context.Background(), request.RequestID)
	if err != nil {
		t.Fatalf("expected lookup success, got error: %v", err)
	}
	if stored.Status != entities.StatusAuthorized {
		t.Fatalf("expected authorized, got %s", stored.Status)
	}

	// Second authorization of the same request must not debit again.
	_, err = service.Authorize(context.Background(), "mb1owner", request.RequestID, "good-signature")
	if !errors.Is(err, domainerrors.ErrRequestNotInExpectedState) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if ledger.debitCount() != 1 {
		t.Fatalf("expected exactly one debit, got %d", ledger.debitCount())
	}
}

func TestConcurrentAuthorizeAdmitsOneDebit(t *testing.T) {
	ledger := newFakeLedger(map[string]uint64{"mb1owner": 100})
	service, _ := newTestService(ledger, nil)

	request, err := service.Create(context.Background(), ports.CreateRequestInput{
		OwnerIdentity: "mb1owner",
		Digest:        digestWithAttachments(1),
	})
	if err != nil {
		t.Fatalf("expected create success, got error: %v", err)
	}

	const callers = 12
	var wg sync.WaitGroup
	outcomes := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Authorize(context.Background(), "mb1owner", request.RequestID, "good-signature")
			outcomes <- err
		}()
	}
	wg.Wait()
	close(outcomes)

	succeeded := 0
	for err := range outcomes {
		if err == nil {
			succeeded++
			continue
		}
		if !errors.Is(err, domainerrors.ErrRequestNotInExpectedState) {
			t.Fatalf("expected state conflict for losers, got %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one winning authorization, got %d", succeeded)
	}
	if ledger.debitCount() != 1 {
		t.Fatalf("expected exactly one debit, got %d", ledger.debitCount())
	}

	balance, _ := ledger.GetBalance(context.Background(), "mb1owner")
	if balance != 94 {
		t.Fatalf("expected balance 94 after single debit of 6, got %d", balance)
	}
}

func TestAuthorizeRejectsNonOwnerAndBadSignature(t *testing.T) {
	ledger := newFakeLedger(map[string]uint64{"mb1owner": 10})
	service, _ := newTestService(ledger, nil)

	request, err := service.Create(context.Background(), ports.CreateRequestInput{
		OwnerIdentity: "mb1owner",
		Digest:        digestWithAttachments(0),
	})
	if err != nil {
		t.Fatalf("expected create success, got error: %v", err)
	}

	if _, err := service.Authorize(context.Background(), "mb1stranger", request.RequestID, "good-signature"); !errors.Is(err, domainerrors.ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
	if _, err := service.Authorize(context.Background(), "mb1owner", request.RequestID, "forged"); !errors.Is(err, domainerrors.ErrSignatureMismatch) {
		t.Fatalf("expected signature mismatch, got %v", err)
	}
	if ledger.debitCount() != 0 {
		t.Fatalf("expected no debit on rejected authorization, got %d", ledger.debitCount())
	}
}

func TestAuthorizeRejectsExpiredRequest(t *testing.T) {
	ledger := newFakeLedger(map[string]uint64{"mb1owner": 10})
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	service, _ := newTestService(ledger, clock)

	request, err := service.Create(context.Background(), ports.CreateRequestInput{
		OwnerIdentity: "mb1owner",
		Digest:        digestWithAttachments(0),
	})
	if err != nil {
		t.Fatalf("expected create success, got error: %v", err)
	}

	clock.advance(ExpiryWindow + time.Minute)

	_, err = service.Authorize(context.Background(), "mb1owner", request.RequestID, "good-signature")
	if !errors.Is(err, domainerrors.ErrRequestExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
	if ledger.debitCount() != 0 {
		t.Fatalf("expected no debit on expired request, got %d", ledger.debitCount())
	}
}

func TestAuthorizeRollsBackClaimWhenDebitFails(t *testing.T) {
	ledger := newFakeLedger(map[string]uint64{"mb1owner": 10})
	service, store := newTestService(ledger, nil)

	request, err := service.Create(context.Background(), ports.CreateRequestInput{
		OwnerIdentity: "mb1owner",
		Digest:        digestWithAttachments(0),
	})
	if err != nil {
		t.Fatalf("expected create success, got error: %v", err)
	}

	ledger.failNext = domainerrors.ErrInsufficientCredits
	_, err = service.Authorize(context.Background(), "mb1owner", request.RequestID, "good-signature")
	if !errors.Is(err, domainerrors.ErrInsufficientCredits) {
		t.Fatalf("expected insufficient credits, got %v", err)
	}

	stored, err := store.GetRequest(context.Background(), request.RequestID)
	if err != nil {
		t.Fatalf("expected lookup success, got error: %v", err)
	}
	if stored.Status != entities.StatusPending {
		t.Fatalf("expected rollback to pending, got %s", stored.Status)
	}

	// After topping up the retry succeeds.
	if _, err := service.Authorize(context.Background(), "mb1owner", request.RequestID, "good-signature"); err != nil {
		t.Fatalf("expected retried authorize success, got error: %v", err)
	}
}

func TestCancelAndAuthorizeRaceHasExactlyOneWinner(t *testing.T) {
	ledger := newFakeLedger(map[string]uint64{"mb1owner": 100})
	service, store := newTestService(ledger, nil)

	request, err := service.Create(context.Background(), ports.CreateRequestInput{
		OwnerIdentity: "mb1owner",
		Digest:        digestWithAttachments(0),
	})
	if err != nil {
		t.Fatalf("expected create success, got error: %v", err)
	}

	var wg sync.WaitGroup
	var authorizeErr, cancelErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, authorizeErr = service.Authorize(context.Background(), "mb1owner", request.RequestID, "good-signature")
	}()
	go func() {
		defer wg.Done()
		cancelErr = service.Cancel(context.Background(), "mb1owner", request.RequestID)
	}()
	wg.Wait()

	stored, err := store.GetRequest(context.Background(), request.RequestID)
	if err != nil {
		t.Fatalf("expected lookup success, got error: %v", err)
	}

	switch stored.Status {
	case entities.StatusAuthorized:
		if authorizeErr != nil {
			t.Fatalf("authorized status but authorize failed: %v", authorizeErr)
		}
		if cancelErr == nil {
			t.Fatal("expected cancel to lose the race")
		}
		if ledger.debitCount() != 1 {
			t.Fatalf("expected one debit on authorized outcome, got %d", ledger.debitCount())
		}
	case entities.StatusCancelled:
		if cancelErr != nil {
			t.Fatalf("cancelled status but cancel failed: %v", cancelErr)
		}
		if authorizeErr == nil {
			t.Fatal("expected authorize to lose the race")
		}
		if ledger.debitCount() != 0 {
			t.Fatalf("expected no debit on cancelled outcome, got %d", ledger.debitCount())
		}
	default:
		t.Fatalf("expected authorized or cancelled, got %s", stored.Status)
	}
}

func TestProcessRequiresOperatorAndAuthorizedStatus(t *testing.T) {
	ledger := newFakeLedger(map[string]uint64{"mb1owner": 10})
	service, _ := newTestService(ledger, nil)

	request, err := service.Create(context.Background(), ports.CreateRequestInput{
		OwnerIdentity: "mb1owner",
		Digest:        digestWithAttachments(0),
	})
	if err != nil {
		t.Fatalf("expected create success, got error: %v", err)
	}

	exec := &scriptedExecution{}
	input := ports.ArtifactInput{ContentID: "bafy", ByteSize: 42}

	if _, err := service.Process(context.Background(), "mb1owner", request.RequestID, input, exec); !errors.Is(err, domainerrors.ErrNotOperator) {
		t.Fatalf("expected operator rejection, got %v", err)
	}
	if _, err := service.Process(context.Background(), testOperator, request.RequestID, input, exec); !errors.Is(err, domainerrors.ErrRequestNotInExpectedState) {
		t.Fatalf("expected pending rejection, got %v", err)
	}
}

func TestProcessParentFailureLeavesRequestRetryable(t *testing.T) {
	ledger := newFakeLedger(map[string]uint64{"mb1owner": 10})
	service, store := newTestService(ledger, nil)

	request, err := service.Create(context.Background(), ports.CreateRequestInput{
		OwnerIdentity: "mb1owner",
		Digest:        digestWithAttachments(0),
	})
	if err != nil {
		t.Fatalf("expected create success, got error: %v", err)
	}
	if _, err := service.Authorize(context.Background(), "mb1owner", request.RequestID, "good-signature"); err != nil {
		t.Fatalf("expected authorize success, got error: %v", err)
	}

	exec := &scriptedExecution{parentErr: errors.New("storage unavailable")}
	result, err := service.Process(context.Background(), testOperator, request.RequestID, ports.ArtifactInput{ContentID: "bafy"}, exec)
	if err == nil {
		t.Fatal("expected parent failure to propagate")
	}
	if result.Success {
		t.Fatal("expected unsuccessful result")
	}
	if result.Error == "" {
		t.Fatal("expected error detail in result")
	}

	stored, err := store.GetRequest(context.Background(), request.RequestID)
	if err != nil {
		t.Fatalf("expected lookup success, got error: %v", err)
	}
	if stored.Status != entities.StatusAuthorized {
		t.Fatalf("expected request still authorized for retry, got %s", stored.Status)
	}

	// Retry with a healthy execution completes processing.
	retry, err := service.Process(context.Background(), testOperator, request.RequestID, ports.ArtifactInput{ContentID: "bafy"}, &scriptedExecution{})
	if err != nil {
		t.Fatalf("expected retried process success, got error: %v", err)
	}
	if !retry.Success {
		t.Fatal("expected successful retry result")
	}
}

func TestProcessRecordsChildFailuresAsSentinels(t *testing.T) {
	ledger := newFakeLedger(map[string]uint64{"mb1owner": 20})
	service, store := newTestService(ledger, nil)

	request, err := service.Create(context.Background(), ports.CreateRequestInput{
		OwnerIdentity: "mb1owner",
		Digest:        digestWithAttachments(3),
	})
	if err != nil {
		t.Fatalf("expected create success, got error: %v", err)
	}
	if _, err := service.Authorize(context.Background(), "mb1owner", request.RequestID, "good-signature"); err != nil {
		t.Fatalf("expected authorize success, got error: %v", err)
	}

	exec := &scriptedExecution{childErrs: map[int]error{1: errors.New("upload failed")}}
	input := ports.ArtifactInput{
		ContentID: "bafy",
		Attachments: []ports.AttachmentInput{
			{Filename: "a.pdf"},
			{Filename: "b.pdf"},
			{Filename: "c.pdf"},
		},
	}

	result, err := service.Process(context.Background(), testOperator, request.RequestID, input, exec)
	if err != nil {
		t.Fatalf("expected process success, got error: %v", err)
	}
	if !result.Success {
		t.Fatal("expected successful result despite child failure")
	}
	if len(result.ChildArtifactIDs) != 3 {
		t.Fatalf("expected 3 child slots, got %d", len(result.ChildArtifactIDs))
	}
	if result.ChildArtifactIDs[0] == "" || result.ChildArtifactIDs[2] == "" {
		t.Fatalf("expected surviving children, got %v", result.ChildArtifactIDs)
	}
	if result.ChildArtifactIDs[1] != "" {
		t.Fatalf("expected empty sentinel at failed index, got %q", result.ChildArtifactIDs[1])
	}
	if result.CreditsSpent != 10 {
		t.Fatalf("expected credits spent 10 for 3 attachments, got %d", result.CreditsSpent)
	}

	stored, err := store.GetRequest(context.Background(), request.RequestID)
	if err != nil {
		t.Fatalf("expected lookup success, got error: %v", err)
	}
	if stored.Status != entities.StatusProcessed {
		t.Fatalf("expected processed, got %s", stored.Status)
	}
}

func TestExpireSweepAndValidity(t *testing.T) {
	ledger := newFakeLedger(map[string]uint64{"mb1owner": 100})
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	service, _ := newTestService(ledger, clock)

	pending, err := service.Create(context.Background(), ports.CreateRequestInput{
		OwnerIdentity: "mb1owner",
		Digest:        digestWithAttachments(0),
	})
	if err != nil {
		t.Fatalf("expected create success, got error: %v", err)
	}
	authorized, err := service.Create(context.Background(), ports.CreateRequestInput{
		OwnerIdentity: "mb1owner",
		Digest:        digestWithAttachments(0),
	})
	if err != nil {
		t.Fatalf("expected create success, got error: %v", err)
	}
	if _, err := service.Authorize(context.Background(), "mb1owner", authorized.RequestID, "good-signature"); err != nil {
		t.Fatalf("expected authorize success, got error: %v", err)
	}

	valid, err := service.IsValid(context.Background(), pending.RequestID)
	if err != nil || !valid {
		t.Fatalf("expected fresh request valid, got %v / %v", valid, err)
	}

	clock.advance(ExpiryWindow + time.Minute)

	expired, err := service.ExpireSweep(context.Background(), nil)
	if err != nil {
		t.Fatalf("expected sweep success, got error: %v", err)
	}
	if len(expired) != 1 || expired[0] != pending.RequestID {
		t.Fatalf("expected only the pending request to expire, got %v", expired)
	}

	valid, err = service.IsValid(context.Background(), pending.RequestID)
	if err != nil || valid {
		t.Fatalf("expected expired request invalid, got %v / %v", valid, err)
	}
	valid, err = service.IsValid(context.Background(), "missing-request")
	if err != nil || valid {
		t.Fatalf("expected missing request invalid without error, got %v / %v", valid, err)
	}
}

func TestLifecycleEventsReachOutbox(t *testing.T) {
	ledger := newFakeLedger(map[string]uint64{"mb1owner": 100})
	service, store := newTestService(ledger, nil)

	request, err := service.Create(context.Background(), ports.CreateRequestInput{
		OwnerIdentity: "mb1owner",
		Digest:        digestWithAttachments(0),
	})
	if err != nil {
		t.Fatalf("expected create success, got error: %v", err)
	}
	if _, err := service.Authorize(context.Background(), "mb1owner", request.RequestID, "good-signature"); err != nil {
		t.Fatalf("expected authorize success, got error: %v", err)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("expected outbox list success, got error: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 lifecycle events, got %d", len(pending))
	}
	types := map[string]bool{}
	for _, message := range pending {
		types[message.EventType] = true
	}
	if !types[EventRequestCreated] || !types[EventRequestAuthorized] {
		t.Fatalf("expected created and authorized events, got %v", types)
	}
}
