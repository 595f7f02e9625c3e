package transfer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"atlasbank/internal/models"
	"atlasbank/internal/repositories"
	"atlasbank/internal/services/account"
	"atlasbank/internal/services/otp"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCode = "482913"

// fakeStore backs the repository fakes with one shared state. The mutex is
// held across a whole ExecuteInTransaction closure, mirroring the row-lock
// linearization the real repositories get from the database, and the state
// is snapshotted so a failing closure rolls everything back.
type fakeStore struct {
	mu        sync.Mutex
	accounts  map[uuid.UUID]*models.Account
	transfers map[uuid.UUID]*models.Transfer
	batches   [][]*models.Transaction
	ledgerErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts:  make(map[uuid.UUID]*models.Account),
		transfers: make(map[uuid.UUID]*models.Transfer),
	}
}

type storeSnapshot struct {
	accounts  map[uuid.UUID]*models.Account
	transfers map[uuid.UUID]*models.Transfer
	batches   [][]*models.Transaction
}

func (s *fakeStore) snapshot() storeSnapshot {
	snap := storeSnapshot{
		accounts:  make(map[uuid.UUID]*models.Account, len(s.accounts)),
		transfers: make(map[uuid.UUID]*models.Transfer, len(s.transfers)),
		batches:   append([][]*models.Transaction(nil), s.batches...),
	}
	for id, acct := range s.accounts {
		cp := *acct
		snap.accounts[id] = &cp
	}
	for id, tr := range s.transfers {
		cp := *tr
		snap.transfers[id] = &cp
	}
	return snap
}

func (s *fakeStore) restore(snap storeSnapshot) {
	s.accounts = snap.accounts
	s.transfers = snap.transfers
	s.batches = snap.batches
}

func (s *fakeStore) addAccount(userID uuid.UUID, balance string) *models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := &models.Account{
		ID:       uuid.New(),
		UserID:   userID,
		Balance:  decimal.RequireFromString(balance),
		Currency: account.DefaultCurrency,
		Type:     models.AccountTypeChecking,
		Status:   models.AccountStatusActive,
	}
	s.accounts[acct.ID] = acct
	return acct
}

func (s *fakeStore) balance(id uuid.UUID) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[id].Balance
}

func (s *fakeStore) setBalance(id uuid.UUID, balance string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[id].Balance = decimal.RequireFromString(balance)
}

type fakeAccountRepo struct {
	s  *fakeStore
	tx bool
}

func (r *fakeAccountRepo) lock() func() {
	if r.tx {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *fakeAccountRepo) Create(acct *models.Account) error {
	defer r.lock()()
	if acct.ID == uuid.Nil {
		acct.ID = uuid.New()
	}
	cp := *acct
	r.s.accounts[acct.ID] = &cp
	return nil
}

func (r *fakeAccountRepo) GetByID(id uuid.UUID) (*models.Account, error) {
	defer r.lock()()
	acct, ok := r.s.accounts[id]
	if !ok {
		return nil, repositories.ErrAccountNotFound
	}
	cp := *acct
	return &cp, nil
}

func (r *fakeAccountRepo) GetForUpdate(id uuid.UUID) (*models.Account, error) {
	return r.GetByID(id)
}

func (r *fakeAccountRepo) ListByUser(userID uuid.UUID) ([]*models.Account, error) {
	defer r.lock()()
	var out []*models.Account
	for _, acct := range r.s.accounts {
		if acct.UserID == userID {
			cp := *acct
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) Update(acct *models.Account) error {
	defer r.lock()()
	if _, ok := r.s.accounts[acct.ID]; !ok {
		return repositories.ErrAccountNotFound
	}
	cp := *acct
	r.s.accounts[acct.ID] = &cp
	return nil
}

func (r *fakeAccountRepo) ExecuteInTransaction(fn func(repositories.UnitOfWork) error) error {
	defer r.lock()()
	return runFakeTransaction(r.s, fn)
}

type fakeTransferRepo struct {
	s  *fakeStore
	tx bool
}

func (r *fakeTransferRepo) lock() func() {
	if r.tx {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *fakeTransferRepo) Create(tr *models.Transfer) error {
	defer r.lock()()
	if tr.ID == uuid.Nil {
		tr.ID = uuid.New()
	}
	cp := *tr
	r.s.transfers[tr.ID] = &cp
	return nil
}

func (r *fakeTransferRepo) GetByID(id uuid.UUID) (*models.Transfer, error) {
	defer r.lock()()
	tr, ok := r.s.transfers[id]
	if !ok {
		return nil, repositories.ErrTransferNotFound
	}
	cp := *tr
	return &cp, nil
}

func (r *fakeTransferRepo) GetForUpdate(id uuid.UUID) (*models.Transfer, error) {
	return r.GetByID(id)
}

func (r *fakeTransferRepo) Update(tr *models.Transfer) error {
	defer r.lock()()
	if _, ok := r.s.transfers[tr.ID]; !ok {
		return repositories.ErrTransferNotFound
	}
	cp := *tr
	r.s.transfers[tr.ID] = &cp
	return nil
}

func (r *fakeTransferRepo) TransitionStatus(id uuid.UUID, from, to models.TransferStatus, reason string) (bool, error) {
	defer r.lock()()
	tr, ok := r.s.transfers[id]
	if !ok || tr.Status != from {
		return false, nil
	}
	tr.Status = to
	tr.RejectionReason = reason
	return true, nil
}

func (r *fakeTransferRepo) ListByAccount(accountID uuid.UUID, limit, offset int) ([]*models.Transfer, int64, error) {
	defer r.lock()()
	var out []*models.Transfer
	for _, tr := range r.s.transfers {
		if tr.SourceAccountID == accountID {
			cp := *tr
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeTransferRepo) ExecuteInTransaction(fn func(repositories.UnitOfWork) error) error {
	defer r.lock()()
	return runFakeTransaction(r.s, fn)
}

// runFakeTransaction must be called with the store mutex held.
func runFakeTransaction(s *fakeStore, fn func(repositories.UnitOfWork) error) error {
	snap := s.snapshot()
	uow := repositories.UnitOfWork{
		Accounts:  &fakeAccountRepo{s: s, tx: true},
		Ledger:    &fakeLedgerRepo{s: s},
		Transfers: &fakeTransferRepo{s: s, tx: true},
	}
	if err := fn(uow); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// fakeLedgerRepo only participates inside a transaction, so it never locks.
type fakeLedgerRepo struct {
	s *fakeStore
}

func (r *fakeLedgerRepo) Create(entry *models.Transaction) error {
	if r.s.ledgerErr != nil {
		return r.s.ledgerErr
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.s.batches = append(r.s.batches, []*models.Transaction{entry})
	return nil
}

func (r *fakeLedgerRepo) CreateBatch(entries []*models.Transaction) error {
	if r.s.ledgerErr != nil {
		return r.s.ledgerErr
	}
	for _, entry := range entries {
		if entry.ID == uuid.Nil {
			entry.ID = uuid.New()
		}
	}
	r.s.batches = append(r.s.batches, entries)
	return nil
}

func (r *fakeLedgerRepo) ListByAccount(uuid.UUID, int, int) ([]*models.Transaction, error) {
	return nil, nil
}

func (r *fakeLedgerRepo) SumDeltas(uuid.UUID) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

// fakeAccounts plays the account service: ownership checks over the shared
// store. Balance mutations go through the settlement transaction instead.
type fakeAccounts struct {
	s *fakeStore
}

func (f *fakeAccounts) GetOwned(ctx context.Context, id, userID uuid.UUID) (*models.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	acct, ok := f.s.accounts[id]
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	if acct.UserID != userID {
		return nil, account.ErrAccessDenied
	}
	cp := *acct
	return &cp, nil
}

type fakeOTP struct {
	mu         sync.Mutex
	challenges map[uuid.UUID]*models.OTPChallenge
	verifyErr  error
}

func newFakeOTP() *fakeOTP {
	return &fakeOTP{challenges: make(map[uuid.UUID]*models.OTPChallenge)}
}

func (f *fakeOTP) Issue(ctx context.Context, userID uuid.UUID, purpose models.OTPPurpose, ttl time.Duration, maxAttempts int) (*otp.Challenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &models.OTPChallenge{
		ID:          uuid.New(),
		UserID:      userID,
		Code:        testCode,
		Purpose:     purpose,
		MaxAttempts: maxAttempts,
		ExpiresAt:   time.Now().UTC().Add(ttl),
	}
	f.challenges[c.ID] = c
	return &otp.Challenge{ID: c.ID, ExpiresAt: c.ExpiresAt}, nil
}

func (f *fakeOTP) Verify(ctx context.Context, challengeID uuid.UUID, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.verifyErr != nil {
		return f.verifyErr
	}
	c, ok := f.challenges[challengeID]
	if !ok {
		return otp.ErrChallengeNotFound
	}
	if c.IsUsed {
		return otp.ErrAlreadyUsed
	}
	if code != c.Code {
		return otp.ErrCodeMismatch
	}
	c.IsUsed = true
	return nil
}

func (f *fakeOTP) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.challenges)
}

type fakeBeneficiaries struct {
	beneficiaries map[uuid.UUID]*models.Beneficiary
}

func newFakeBeneficiaries() *fakeBeneficiaries {
	return &fakeBeneficiaries{beneficiaries: make(map[uuid.UUID]*models.Beneficiary)}
}

func (f *fakeBeneficiaries) add(userID uuid.UUID, verified bool) *models.Beneficiary {
	b := &models.Beneficiary{
		ID:         uuid.New(),
		UserID:     userID,
		Name:       "Jamila Haddad",
		BankName:   "Banque du Sud",
		IBAN:       "TN5910006035183598478831",
		IsVerified: verified,
	}
	f.beneficiaries[b.ID] = b
	return b
}

func (f *fakeBeneficiaries) GetByID(id uuid.UUID) (*models.Beneficiary, error) {
	b, ok := f.beneficiaries[id]
	if !ok {
		return nil, repositories.ErrBeneficiaryNotFound
	}
	return b, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent int
}

func (f *fakeNotifier) SendTransferNotification(ctx context.Context, _ uuid.UUID, _ *models.Transfer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent++
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (string, error) { return "", repositories.ErrCacheMiss }

func (noopCache) Set(context.Context, string, string, time.Duration) error { return nil }

func (noopCache) SetNX(context.Context, string, string, time.Duration) (bool, error) {
	return true, nil
}

func (noopCache) Delete(context.Context, string) error { return nil }

func (noopCache) GetAccount(context.Context, uuid.UUID) (*models.Account, error) {
	return nil, repositories.ErrCacheMiss
}

func (noopCache) SetAccount(context.Context, *models.Account) error { return nil }

func (noopCache) DeleteAccount(context.Context, uuid.UUID) error { return nil }

func (noopCache) Close() error { return nil }

type fixture struct {
	svc      Service
	store    *fakeStore
	repo     *fakeTransferRepo
	otps     *fakeOTP
	bens     *fakeBeneficiaries
	notifier *fakeNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newFakeStore()
	f := &fixture{
		store:    store,
		repo:     &fakeTransferRepo{s: store},
		otps:     newFakeOTP(),
		bens:     newFakeBeneficiaries(),
		notifier: &fakeNotifier{},
	}
	f.svc = NewService(f.repo, &fakeAccounts{s: store}, f.otps, f.bens, f.notifier, noopCache{})
	return f
}

func (f *fixture) initiateToAccount(t *testing.T, userID uuid.UUID, src, dst *models.Account, amount string) *InitiateResult {
	t.Helper()
	result, err := f.svc.Initiate(context.Background(), userID, InitiateRequest{
		SourceAccountID: src.ID,
		DestAccountID:   &dst.ID,
		Amount:          decimal.RequireFromString(amount),
	})
	require.NoError(t, err)
	return result
}

func TestInitiate(t *testing.T) {
	ctx := context.Background()

	t.Run("returns a token and the challenge expiry", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		src := f.store.addAccount(userID, "100.00")
		dst := f.store.addAccount(userID, "0.00")

		result := f.initiateToAccount(t, userID, src, dst, "30.00")
		assert.NotEqual(t, uuid.Nil, result.TransferToken)
		assert.True(t, result.ExpiresAt.After(time.Now()))
		assert.Equal(t, "CHECKING account", result.DestinationName)

		// No money moves at initiation.
		assert.True(t, f.store.balance(src.ID).Equal(decimal.RequireFromString("100.00")))

		tr, err := f.repo.GetByID(result.TransferToken)
		require.NoError(t, err)
		assert.Equal(t, models.TransferStatusPending, tr.Status)
	})

	t.Run("beneficiary destination uses its name", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		src := f.store.addAccount(userID, "100.00")
		ben := f.bens.add(userID, true)

		result, err := f.svc.Initiate(ctx, userID, InitiateRequest{
			SourceAccountID: src.ID,
			BeneficiaryID:   &ben.ID,
			Amount:          decimal.RequireFromString("30.00"),
		})
		require.NoError(t, err)
		assert.Equal(t, ben.Name, result.DestinationName)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		src := f.store.addAccount(userID, "100.00")
		dst := f.store.addAccount(userID, "0.00")

		for _, amount := range []string{"0", "-5.00"} {
			_, err := f.svc.Initiate(ctx, userID, InitiateRequest{
				SourceAccountID: src.ID,
				DestAccountID:   &dst.ID,
				Amount:          decimal.RequireFromString(amount),
			})
			assert.ErrorIs(t, err, ErrInvalidAmount)
		}
	})

	t.Run("requires exactly one destination", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		src := f.store.addAccount(userID, "100.00")
		dst := f.store.addAccount(userID, "0.00")
		ben := f.bens.add(userID, true)

		_, err := f.svc.Initiate(ctx, userID, InitiateRequest{
			SourceAccountID: src.ID,
			Amount:          decimal.NewFromInt(1),
		})
		assert.ErrorIs(t, err, ErrInvalidDestination)

		_, err = f.svc.Initiate(ctx, userID, InitiateRequest{
			SourceAccountID: src.ID,
			DestAccountID:   &dst.ID,
			BeneficiaryID:   &ben.ID,
			Amount:          decimal.NewFromInt(1),
		})
		assert.ErrorIs(t, err, ErrInvalidDestination)
	})

	t.Run("insufficient balance creates nothing", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		src := f.store.addAccount(userID, "10.00")
		dst := f.store.addAccount(userID, "0.00")

		_, err := f.svc.Initiate(ctx, userID, InitiateRequest{
			SourceAccountID: src.ID,
			DestAccountID:   &dst.ID,
			Amount:          decimal.RequireFromString("10.01"),
		})
		assert.ErrorIs(t, err, account.ErrInsufficientFunds)
		assert.Empty(t, f.store.transfers)
		assert.Zero(t, f.otps.count())
	})

	t.Run("unverified beneficiary is refused", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		src := f.store.addAccount(userID, "100.00")
		ben := f.bens.add(userID, false)

		_, err := f.svc.Initiate(ctx, userID, InitiateRequest{
			SourceAccountID: src.ID,
			BeneficiaryID:   &ben.ID,
			Amount:          decimal.NewFromInt(1),
		})
		assert.ErrorIs(t, err, ErrBeneficiaryNotVerified)
	})

	t.Run("someone else's beneficiary is refused", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		src := f.store.addAccount(userID, "100.00")
		ben := f.bens.add(uuid.New(), true)

		_, err := f.svc.Initiate(ctx, userID, InitiateRequest{
			SourceAccountID: src.ID,
			BeneficiaryID:   &ben.ID,
			Amount:          decimal.NewFromInt(1),
		})
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("someone else's source account is refused", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		src := f.store.addAccount(uuid.New(), "100.00")
		dst := f.store.addAccount(userID, "0.00")

		_, err := f.svc.Initiate(ctx, userID, InitiateRequest{
			SourceAccountID: src.ID,
			DestAccountID:   &dst.ID,
			Amount:          decimal.NewFromInt(1),
		})
		assert.ErrorIs(t, err, account.ErrAccessDenied)
	})
}

func TestConfirm(t *testing.T) {
	ctx := context.Background()

	t.Run("correct code executes exactly once", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		src := f.store.addAccount(userID, "100.00")
		dst := f.store.addAccount(userID, "0.00")

		result := f.initiateToAccount(t, userID, src, dst, "30.00")

		tr, err := f.svc.Confirm(ctx, userID, result.TransferToken, testCode)
		require.NoError(t, err)
		assert.Equal(t, models.TransferStatusValidated, tr.Status)

		assert.True(t, f.store.balance(src.ID).Equal(decimal.RequireFromString("70.00")))
		assert.True(t, f.store.balance(dst.ID).Equal(decimal.RequireFromString("30.00")))

		// One balanced ledger pair sharing the transfer's reference.
		require.Len(t, f.store.batches, 1)
		require.Len(t, f.store.batches[0], 2)
		debit, credit := f.store.batches[0][0], f.store.batches[0][1]
		assert.Equal(t, models.TransactionTypeDebit, debit.Type)
		assert.Equal(t, models.TransactionTypeCredit, credit.Type)
		assert.True(t, debit.Amount.Equal(credit.Amount))
		assert.Equal(t, tr.Reference, debit.Reference)
		assert.Equal(t, tr.Reference, credit.Reference)

		assert.Equal(t, 1, f.notifier.count())
	})

	t.Run("duplicate confirm is idempotent", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		src := f.store.addAccount(userID, "100.00")
		dst := f.store.addAccount(userID, "0.00")

		result := f.initiateToAccount(t, userID, src, dst, "30.00")

		_, err := f.svc.Confirm(ctx, userID, result.TransferToken, testCode)
		require.NoError(t, err)

		tr, err := f.svc.Confirm(ctx, userID, result.TransferToken, testCode)
		require.NoError(t, err)
		assert.Equal(t, models.TransferStatusValidated, tr.Status)

		// Money moved once, one ledger pair.
		assert.True(t, f.store.balance(src.ID).Equal(decimal.RequireFromString("70.00")))
		assert.Len(t, f.store.batches, 1)
	})

	t.Run("concurrent confirms move the money once", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		src := f.store.addAccount(userID, "100.00")
		dst := f.store.addAccount(userID, "0.00")

		result := f.initiateToAccount(t, userID, src, dst, "30.00")

		// Both callers present the correct code at the same time. The row
		// lock lets one execute; the other returns the stored outcome.
		errs := make(chan error, 2)
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.svc.Confirm(ctx, userID, result.TransferToken, testCode)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			assert.NoError(t, err)
		}

		assert.True(t, f.store.balance(src.ID).Equal(decimal.RequireFromString("70.00")))
		assert.True(t, f.store.balance(dst.ID).Equal(decimal.RequireFromString("30.00")))
		assert.Len(t, f.store.batches, 1)
		assert.Equal(t, 1, f.notifier.count())

		stored, err := f.repo.GetByID(result.TransferToken)
		require.NoError(t, err)
		assert.Equal(t, models.TransferStatusValidated, stored.Status)
	})

	t.Run("failed ledger write rolls back the movement", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		src := f.store.addAccount(userID, "100.00")
		dst := f.store.addAccount(userID, "0.00")

		result := f.initiateToAccount(t, userID, src, dst, "30.00")
		ledgerDown := errors.New("ledger unavailable")
		f.store.ledgerErr = ledgerDown

		_, err := f.svc.Confirm(ctx, userID, result.TransferToken, testCode)
		assert.ErrorIs(t, err, ledgerDown)

		// No money moved, no ledger pair, transfer still pending.
		assert.True(t, f.store.balance(src.ID).Equal(decimal.RequireFromString("100.00")))
		assert.True(t, f.store.balance(dst.ID).Equal(decimal.RequireFromString("0.00")))
		assert.Empty(t, f.store.batches)

		stored, err := f.repo.GetByID(result.TransferToken)
		require.NoError(t, err)
		assert.Equal(t, models.TransferStatusPending, stored.Status)
	})

	t.Run("wrong code keeps the transfer pending", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		src := f.store.addAccount(userID, "100.00")
		dst := f.store.addAccount(userID, "0.00")

		result := f.initiateToAccount(t, userID, src, dst, "30.00")

		_, err := f.svc.Confirm(ctx, userID, result.TransferToken, "000000")
		assert.ErrorIs(t, err, otp.ErrCodeMismatch)

		stored, _ := f.repo.GetByID(result.TransferToken)
		assert.Equal(t, models.TransferStatusPending, stored.Status)

		// Retry with the correct code succeeds.
		tr, err := f.svc.Confirm(ctx, userID, result.TransferToken, testCode)
		require.NoError(t, err)
		assert.Equal(t, models.TransferStatusValidated, tr.Status)
	})

	t.Run("expired challenge rejects the transfer", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		src := f.store.addAccount(userID, "100.00")
		dst := f.store.addAccount(userID, "0.00")

		result := f.initiateToAccount(t, userID, src, dst, "30.00")
		f.otps.verifyErr = otp.ErrExpired

		_, err := f.svc.Confirm(ctx, userID, result.TransferToken, testCode)
		assert.ErrorIs(t, err, otp.ErrExpired)

		stored, _ := f.repo.GetByID(result.TransferToken)
		assert.Equal(t, models.TransferStatusRejected, stored.Status)
		assert.Equal(t, RejectionExpired, stored.RejectionReason)

		// A rejected transfer is dead even with the correct code.
		f.otps.verifyErr = nil
		_, err = f.svc.Confirm(ctx, userID, result.TransferToken, testCode)
		assert.ErrorIs(t, err, ErrTransferAlreadyFinalized)
	})

	t.Run("exhausted attempts reject the transfer", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		src := f.store.addAccount(userID, "100.00")
		dst := f.store.addAccount(userID, "0.00")

		result := f.initiateToAccount(t, userID, src, dst, "30.00")
		f.otps.verifyErr = otp.ErrAttemptsExhausted

		_, err := f.svc.Confirm(ctx, userID, result.TransferToken, testCode)
		assert.ErrorIs(t, err, otp.ErrAttemptsExhausted)

		stored, _ := f.repo.GetByID(result.TransferToken)
		assert.Equal(t, models.TransferStatusRejected, stored.Status)
		assert.Equal(t, RejectionAttemptsExhausted, stored.RejectionReason)
	})

	t.Run("balance drained between phases rejects at confirmation", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		src := f.store.addAccount(userID, "100.00")
		dst := f.store.addAccount(userID, "0.00")

		result := f.initiateToAccount(t, userID, src, dst, "80.00")

		// Drain the source after initiation.
		f.store.setBalance(src.ID, "50.00")

		_, err := f.svc.Confirm(ctx, userID, result.TransferToken, testCode)
		assert.ErrorIs(t, err, account.ErrInsufficientFunds)

		stored, _ := f.repo.GetByID(result.TransferToken)
		assert.Equal(t, models.TransferStatusRejected, stored.Status)
		assert.Equal(t, RejectionInsufficientFunds, stored.RejectionReason)
		assert.Empty(t, f.store.batches)
	})

	t.Run("beneficiary settlement debits the source only", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		src := f.store.addAccount(userID, "100.00")
		ben := f.bens.add(userID, true)

		result, err := f.svc.Initiate(ctx, userID, InitiateRequest{
			SourceAccountID: src.ID,
			BeneficiaryID:   &ben.ID,
			Amount:          decimal.RequireFromString("40.00"),
		})
		require.NoError(t, err)

		tr, err := f.svc.Confirm(ctx, userID, result.TransferToken, testCode)
		require.NoError(t, err)
		assert.Equal(t, models.TransferStatusValidated, tr.Status)

		assert.True(t, f.store.balance(src.ID).Equal(decimal.RequireFromString("60.00")))

		require.Len(t, f.store.batches, 1)
		require.Len(t, f.store.batches[0], 2)
		credit := f.store.batches[0][1]
		assert.Nil(t, credit.AccountID)
		require.NotNil(t, credit.BeneficiaryID)
		assert.Equal(t, ben.ID, *credit.BeneficiaryID)
	})

	t.Run("another user cannot confirm", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		src := f.store.addAccount(userID, "100.00")
		dst := f.store.addAccount(userID, "0.00")

		result := f.initiateToAccount(t, userID, src, dst, "30.00")

		_, err := f.svc.Confirm(ctx, uuid.New(), result.TransferToken, testCode)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("unknown token", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Confirm(ctx, uuid.New(), uuid.New(), testCode)
		assert.ErrorIs(t, err, ErrTransferNotFound)
	})
}

func TestDirectTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("moves funds between own accounts without a challenge", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		src := f.store.addAccount(userID, "100.00")
		dst := f.store.addAccount(userID, "0.00")

		result, err := f.svc.DirectTransfer(ctx, userID, src.ID, dst.ID, decimal.RequireFromString("25.00"), "")
		require.NoError(t, err)
		assert.True(t, result.SourceBalance.Equal(decimal.RequireFromString("75.00")))
		assert.True(t, result.DestBalance.Equal(decimal.RequireFromString("25.00")))
		assert.NotEmpty(t, result.Reference)

		assert.Zero(t, f.otps.count())
		assert.Len(t, f.store.batches, 1)
	})

	t.Run("failed ledger write rolls back the movement", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		src := f.store.addAccount(userID, "100.00")
		dst := f.store.addAccount(userID, "0.00")

		ledgerDown := errors.New("ledger unavailable")
		f.store.ledgerErr = ledgerDown

		_, err := f.svc.DirectTransfer(ctx, userID, src.ID, dst.ID, decimal.NewFromInt(25), "")
		assert.ErrorIs(t, err, ledgerDown)

		assert.True(t, f.store.balance(src.ID).Equal(decimal.RequireFromString("100.00")))
		assert.True(t, f.store.balance(dst.ID).Equal(decimal.RequireFromString("0.00")))
		assert.Empty(t, f.store.batches)
	})

	t.Run("destination must belong to the caller", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		src := f.store.addAccount(userID, "100.00")
		dst := f.store.addAccount(uuid.New(), "0.00")

		_, err := f.svc.DirectTransfer(ctx, userID, src.ID, dst.ID, decimal.NewFromInt(1), "")
		assert.ErrorIs(t, err, account.ErrAccessDenied)
	})
}

func TestGet(t *testing.T) {
	ctx := context.Background()

	t.Run("lazily rejects an expired pending transfer", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		src := f.store.addAccount(userID, "100.00")
		dst := f.store.addAccount(userID, "0.00")

		result := f.initiateToAccount(t, userID, src, dst, "30.00")

		// Backdate the expiry.
		stored, _ := f.repo.GetByID(result.TransferToken)
		stored.ExpiresAt = time.Now().UTC().Add(-time.Minute)
		require.NoError(t, f.repo.Update(stored))

		tr, err := f.svc.Get(ctx, userID, result.TransferToken)
		require.NoError(t, err)
		assert.Equal(t, models.TransferStatusRejected, tr.Status)
		assert.Equal(t, RejectionExpired, tr.RejectionReason)
	})

	t.Run("lazy rejection never overwrites a finalized transfer", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		src := f.store.addAccount(userID, "100.00")
		dst := f.store.addAccount(userID, "0.00")

		result := f.initiateToAccount(t, userID, src, dst, "30.00")

		_, err := f.svc.Confirm(ctx, userID, result.TransferToken, testCode)
		require.NoError(t, err)

		// Backdating the expiry must not demote a validated transfer.
		stored, _ := f.repo.GetByID(result.TransferToken)
		stored.ExpiresAt = time.Now().UTC().Add(-time.Minute)
		require.NoError(t, f.repo.Update(stored))

		tr, err := f.svc.Get(ctx, userID, result.TransferToken)
		require.NoError(t, err)
		assert.Equal(t, models.TransferStatusValidated, tr.Status)
	})

	t.Run("other users cannot read a transfer", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		src := f.store.addAccount(userID, "100.00")
		dst := f.store.addAccount(userID, "0.00")

		result := f.initiateToAccount(t, userID, src, dst, "30.00")

		_, err := f.svc.Get(ctx, uuid.New(), result.TransferToken)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})
}

func TestListByAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New()
	src := f.store.addAccount(userID, "100.00")
	dst := f.store.addAccount(userID, "0.00")

	f.initiateToAccount(t, userID, src, dst, "10.00")
	f.initiateToAccount(t, userID, src, dst, "20.00")

	transfers, total, err := f.svc.ListByAccount(ctx, userID, src.ID, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, transfers, 2)

	_, _, err = f.svc.ListByAccount(ctx, uuid.New(), src.ID, 20, 0)
	assert.ErrorIs(t, err, account.ErrAccessDenied)
}
