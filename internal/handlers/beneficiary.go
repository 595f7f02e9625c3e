package handlers

import (
	"errors"

	"atlasbank/internal/services/beneficiary"
	"atlasbank/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type BeneficiaryHandler struct {
	beneficiaryService beneficiary.Service
}

func NewBeneficiaryHandler(beneficiaryService beneficiary.Service) *BeneficiaryHandler {
	return &BeneficiaryHandler{
		beneficiaryService: beneficiaryService,
	}
}

// CreateBeneficiary registers a new external payee. It starts unverified.
func (h *BeneficiaryHandler) CreateBeneficiary(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return response.Unauthorized(c)
	}

	var input beneficiary.CreateRequest
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	b, err := h.beneficiaryService.Create(c.Context(), userID, input)
	if err != nil {
		return beneficiaryError(c, err)
	}

	return response.Created(c, "Beneficiary created", b)
}

// ListBeneficiaries returns all of the user's payees.
func (h *BeneficiaryHandler) ListBeneficiaries(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return response.Unauthorized(c)
	}

	beneficiaries, err := h.beneficiaryService.List(c.Context(), userID)
	if err != nil {
		return response.ServerError(c, "Failed to list beneficiaries")
	}

	return response.Success(c, "Beneficiaries", beneficiaries)
}

// GetBeneficiary returns one of the user's payees.
func (h *BeneficiaryHandler) GetBeneficiary(c *fiber.Ctx) error {
	userID, beneficiaryID, err := userAndAccountID(c)
	if err != nil {
		return paramError(c, err)
	}

	b, err := h.beneficiaryService.Get(c.Context(), userID, beneficiaryID)
	if err != nil {
		return beneficiaryError(c, err)
	}

	return response.Success(c, "Beneficiary", b)
}

// UpdateBeneficiary changes the payee's contact details.
func (h *BeneficiaryHandler) UpdateBeneficiary(c *fiber.Ctx) error {
	userID, beneficiaryID, err := userAndAccountID(c)
	if err != nil {
		return paramError(c, err)
	}

	var input beneficiary.UpdateRequest
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	b, err := h.beneficiaryService.Update(c.Context(), userID, beneficiaryID, input)
	if err != nil {
		return beneficiaryError(c, err)
	}

	return response.Success(c, "Beneficiary updated", b)
}

// VerifyBeneficiary marks the payee as verified, making it a valid transfer
// destination.
func (h *BeneficiaryHandler) VerifyBeneficiary(c *fiber.Ctx) error {
	userID, beneficiaryID, err := userAndAccountID(c)
	if err != nil {
		return paramError(c, err)
	}

	b, err := h.beneficiaryService.Verify(c.Context(), userID, beneficiaryID)
	if err != nil {
		return beneficiaryError(c, err)
	}

	return response.Success(c, "Beneficiary verified", b)
}

// DeleteBeneficiary removes the payee.
func (h *BeneficiaryHandler) DeleteBeneficiary(c *fiber.Ctx) error {
	userID, beneficiaryID, err := userAndAccountID(c)
	if err != nil {
		return paramError(c, err)
	}

	if err := h.beneficiaryService.Delete(c.Context(), userID, beneficiaryID); err != nil {
		return beneficiaryError(c, err)
	}

	return response.Success(c, "Beneficiary deleted", nil)
}

func beneficiaryError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, beneficiary.ErrBeneficiaryNotFound):
		return response.NotFound(c, "Beneficiary not found")
	case errors.Is(err, beneficiary.ErrAccessDenied):
		return response.Forbidden(c, "Access denied")
	case errors.Is(err, beneficiary.ErrAlreadyVerified):
		return response.Conflict(c, "Beneficiary already verified")
	case errors.Is(err, beneficiary.ErrInvalidIBAN),
		errors.Is(err, beneficiary.ErrMissingName):
		return response.BadRequest(c, err.Error())
	default:
		return response.ServerError(c, "Operation failed")
	}
}
