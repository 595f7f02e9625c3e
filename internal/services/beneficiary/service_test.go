package beneficiary

import (
	"context"
	"testing"

	"atlasbank/internal/models"
	"atlasbank/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBeneficiaryRepo struct {
	beneficiaries map[uuid.UUID]*models.Beneficiary
}

func newFakeRepo() *fakeBeneficiaryRepo {
	return &fakeBeneficiaryRepo{beneficiaries: make(map[uuid.UUID]*models.Beneficiary)}
}

func (r *fakeBeneficiaryRepo) Create(b *models.Beneficiary) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	cp := *b
	r.beneficiaries[b.ID] = &cp
	return nil
}

func (r *fakeBeneficiaryRepo) GetByID(id uuid.UUID) (*models.Beneficiary, error) {
	b, ok := r.beneficiaries[id]
	if !ok {
		return nil, repositories.ErrBeneficiaryNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBeneficiaryRepo) ListByUser(userID uuid.UUID) ([]*models.Beneficiary, error) {
	var out []*models.Beneficiary
	for _, b := range r.beneficiaries {
		if b.UserID == userID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeBeneficiaryRepo) Update(b *models.Beneficiary) error {
	if _, ok := r.beneficiaries[b.ID]; !ok {
		return repositories.ErrBeneficiaryNotFound
	}
	cp := *b
	r.beneficiaries[b.ID] = &cp
	return nil
}

func (r *fakeBeneficiaryRepo) Delete(id uuid.UUID) error {
	if _, ok := r.beneficiaries[id]; !ok {
		return repositories.ErrBeneficiaryNotFound
	}
	delete(r.beneficiaries, id)
	return nil
}

const testIBAN = "TN59 1000 6035 1835 9847 8831"

func TestCreate(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("starts unverified and normalizes the iban", func(t *testing.T) {
		svc := NewService(newFakeRepo())

		b, err := svc.Create(ctx, userID, CreateRequest{
			Name:     "Jamila Haddad",
			BankName: "Banque du Sud",
			IBAN:     testIBAN,
		})
		require.NoError(t, err)
		assert.False(t, b.IsVerified)
		assert.Equal(t, "TN5910006035183598478831", b.IBAN)
	})

	t.Run("requires a name", func(t *testing.T) {
		svc := NewService(newFakeRepo())

		_, err := svc.Create(ctx, userID, CreateRequest{IBAN: testIBAN})
		assert.ErrorIs(t, err, ErrMissingName)
	})

	t.Run("rejects malformed ibans", func(t *testing.T) {
		svc := NewService(newFakeRepo())

		for _, iban := range []string{"", "TN59", "1159100060351835984788", "TNX910006035183598478831"} {
			_, err := svc.Create(ctx, userID, CreateRequest{Name: "X", IBAN: iban})
			assert.ErrorIs(t, err, ErrInvalidIBAN, "iban %q", iban)
		}
	})
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("marks verified once", func(t *testing.T) {
		svc := NewService(newFakeRepo())
		b, err := svc.Create(ctx, userID, CreateRequest{Name: "X", IBAN: testIBAN})
		require.NoError(t, err)

		verified, err := svc.Verify(ctx, userID, b.ID)
		require.NoError(t, err)
		assert.True(t, verified.IsVerified)

		_, err = svc.Verify(ctx, userID, b.ID)
		assert.ErrorIs(t, err, ErrAlreadyVerified)
	})

	t.Run("only the owner can verify", func(t *testing.T) {
		svc := NewService(newFakeRepo())
		b, err := svc.Create(ctx, userID, CreateRequest{Name: "X", IBAN: testIBAN})
		require.NoError(t, err)

		_, err = svc.Verify(ctx, uuid.New(), b.ID)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("updates only the provided fields", func(t *testing.T) {
		svc := NewService(newFakeRepo())
		b, err := svc.Create(ctx, userID, CreateRequest{Name: "X", BankName: "Old Bank", IBAN: testIBAN})
		require.NoError(t, err)

		updated, err := svc.Update(ctx, userID, b.ID, UpdateRequest{Email: "x@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "x@example.com", updated.Email)
		assert.Equal(t, "Old Bank", updated.BankName)
	})

	t.Run("delete removes the payee", func(t *testing.T) {
		repo := newFakeRepo()
		svc := NewService(repo)
		b, err := svc.Create(ctx, userID, CreateRequest{Name: "X", IBAN: testIBAN})
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, userID, b.ID))
		_, err = svc.Get(ctx, userID, b.ID)
		assert.ErrorIs(t, err, ErrBeneficiaryNotFound)
	})

	t.Run("only the owner can delete", func(t *testing.T) {
		svc := NewService(newFakeRepo())
		b, err := svc.Create(ctx, userID, CreateRequest{Name: "X", IBAN: testIBAN})
		require.NoError(t, err)

		assert.ErrorIs(t, svc.Delete(ctx, uuid.New(), b.ID), ErrAccessDenied)
	})
}
