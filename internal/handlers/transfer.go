package handlers

import (
	"errors"

	"atlasbank/internal/services/account"
	"atlasbank/internal/services/otp"
	"atlasbank/internal/services/transfer"
	"atlasbank/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransferHandler struct {
	transferService transfer.Service
}

func NewTransferHandler(transferService transfer.Service) *TransferHandler {
	return &TransferHandler{
		transferService: transferService,
	}
}

// InitiateTransfer starts the two-phase protocol: it validates the request,
// issues an OTP challenge, and returns an opaque transfer token. No money
// moves here.
func (h *TransferHandler) InitiateTransfer(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return response.Unauthorized(c)
	}

	var input struct {
		SourceAccountID uuid.UUID       `json:"source_account_id"`
		DestAccountID   *uuid.UUID      `json:"dest_account_id"`
		BeneficiaryID   *uuid.UUID      `json:"beneficiary_id"`
		Amount          decimal.Decimal `json:"amount"`
		Reference       string          `json:"reference"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.transferService.Initiate(c.Context(), userID, transfer.InitiateRequest{
		SourceAccountID: input.SourceAccountID,
		DestAccountID:   input.DestAccountID,
		BeneficiaryID:   input.BeneficiaryID,
		Amount:          input.Amount,
		Reference:       input.Reference,
	})
	if err != nil {
		return transferError(c, err)
	}

	return response.Created(c, "Transfer initiated", result)
}

// ConfirmTransfer completes the protocol: it verifies the submitted OTP code
// and, on success, executes the movement exactly once.
func (h *TransferHandler) ConfirmTransfer(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return response.Unauthorized(c)
	}

	var input struct {
		TransferToken uuid.UUID `json:"transfer_token"`
		Code          string    `json:"otp_code"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if input.Code == "" {
		return response.BadRequest(c, "Code is required")
	}

	tr, err := h.transferService.Confirm(c.Context(), userID, input.TransferToken, input.Code)
	if err != nil {
		return transferError(c, err)
	}

	return response.Success(c, "Transfer confirmed", tr)
}

// DirectTransfer moves funds between two of the user's own accounts without
// an OTP challenge.
func (h *TransferHandler) DirectTransfer(c *fiber.Ctx) error {
	userID, sourceID, err := userAndAccountID(c)
	if err != nil {
		return paramError(c, err)
	}

	var input struct {
		DestAccountID uuid.UUID       `json:"dest_account_id"`
		Amount        decimal.Decimal `json:"amount"`
		Reference     string          `json:"reference"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.transferService.DirectTransfer(c.Context(), userID, sourceID, input.DestAccountID, input.Amount, input.Reference)
	if err != nil {
		return transferError(c, err)
	}

	return response.Success(c, "Transfer completed", result)
}

// GetTransfer returns one transfer, finalizing it first if it expired.
func (h *TransferHandler) GetTransfer(c *fiber.Ctx) error {
	userID, transferID, err := userAndAccountID(c)
	if err != nil {
		return paramError(c, err)
	}

	tr, err := h.transferService.Get(c.Context(), userID, transferID)
	if err != nil {
		return transferError(c, err)
	}

	return response.Success(c, "Transfer", tr)
}

// ListTransfers pages through an account's transfers, most recent first.
func (h *TransferHandler) ListTransfers(c *fiber.Ctx) error {
	userID, accountID, err := userAndAccountID(c)
	if err != nil {
		return paramError(c, err)
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	transfers, total, err := h.transferService.ListByAccount(c.Context(), userID, accountID, limit, offset)
	if err != nil {
		return transferError(c, err)
	}

	return response.Success(c, "Transfers", fiber.Map{
		"transfers": transfers,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}

func transferError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, transfer.ErrTransferNotFound):
		return response.NotFound(c, "Transfer not found")
	case errors.Is(err, transfer.ErrBeneficiaryNotFound):
		return response.NotFound(c, "Beneficiary not found")
	case errors.Is(err, transfer.ErrAccessDenied):
		return response.Forbidden(c, "Access denied")
	case errors.Is(err, transfer.ErrTransferAlreadyFinalized):
		return response.Conflict(c, "Transfer already finalized")
	case errors.Is(err, transfer.ErrInvalidAmount),
		errors.Is(err, transfer.ErrInvalidDestination),
		errors.Is(err, transfer.ErrBeneficiaryNotVerified):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, otp.ErrCodeMismatch):
		return response.Error(c, fiber.StatusUnauthorized, "Incorrect code")
	case errors.Is(err, otp.ErrExpired),
		errors.Is(err, otp.ErrAlreadyUsed),
		errors.Is(err, otp.ErrAttemptsExhausted):
		return response.Error(c, fiber.StatusGone, err.Error())
	case errors.Is(err, account.ErrInsufficientFunds):
		return response.Error(c, fiber.StatusUnprocessableEntity, "Insufficient funds")
	case errors.Is(err, account.ErrAccountNotFound),
		errors.Is(err, account.ErrAccessDenied),
		errors.Is(err, account.ErrAccountNotActive),
		errors.Is(err, account.ErrCurrencyMismatch),
		errors.Is(err, account.ErrSameAccount):
		return accountError(c, err)
	default:
		return response.ServerError(c, "Transfer failed")
	}
}
