package handlers

import (
	"context"
	"errors"

	"atlasbank/internal/models"
	"atlasbank/internal/services/account"
	"atlasbank/internal/services/ledger"
	"atlasbank/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	errNoClaims = errors.New("no authenticated user in context")
	errBadID    = errors.New("invalid id parameter")
)

type AccountHandler struct {
	accountService account.Service
	ledgerService  ledger.Service
}

func NewAccountHandler(accountService account.Service, ledgerService ledger.Service) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		ledgerService:  ledgerService,
	}
}

// OpenAccount creates a new account for the authenticated user.
func (h *AccountHandler) OpenAccount(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return response.Unauthorized(c)
	}

	var input struct {
		Type           models.AccountType `json:"type"`
		Currency       string             `json:"currency"`
		InitialBalance decimal.Decimal    `json:"initial_balance"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	acc, err := h.accountService.Open(c.Context(), userID, input.Type, input.Currency, input.InitialBalance)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	return response.Created(c, "Account opened", acc)
}

// ListAccounts returns all of the user's accounts.
func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return response.Unauthorized(c)
	}

	accounts, err := h.accountService.List(c.Context(), userID)
	if err != nil {
		return response.ServerError(c, "Failed to list accounts")
	}

	return response.Success(c, "Accounts", accounts)
}

// GetAccount returns one of the user's accounts.
func (h *AccountHandler) GetAccount(c *fiber.Ctx) error {
	userID, accountID, err := userAndAccountID(c)
	if err != nil {
		return paramError(c, err)
	}

	acc, err := h.accountService.GetOwned(c.Context(), accountID, userID)
	if err != nil {
		return accountError(c, err)
	}

	return response.Success(c, "Account", acc)
}

// GetBalance returns the current balance of one of the user's accounts.
func (h *AccountHandler) GetBalance(c *fiber.Ctx) error {
	userID, accountID, err := userAndAccountID(c)
	if err != nil {
		return paramError(c, err)
	}

	acc, err := h.accountService.GetOwned(c.Context(), accountID, userID)
	if err != nil {
		return accountError(c, err)
	}

	return response.Success(c, "Balance", fiber.Map{
		"account_id": acc.ID,
		"balance":    acc.Balance,
		"currency":   acc.Currency,
	})
}

// Deposit credits the account and records a ledger entry.
func (h *AccountHandler) Deposit(c *fiber.Ctx) error {
	return h.adjustment(c, h.accountService.Deposit, "Deposit completed")
}

// Withdraw debits the account and records a ledger entry.
func (h *AccountHandler) Withdraw(c *fiber.Ctx) error {
	return h.adjustment(c, h.accountService.Withdraw, "Withdrawal completed")
}

// BlockAccount suspends an ACTIVE account.
func (h *AccountHandler) BlockAccount(c *fiber.Ctx) error {
	return h.statusChange(c, h.accountService.Block, "Account blocked")
}

// UnblockAccount reactivates a BLOCKED account.
func (h *AccountHandler) UnblockAccount(c *fiber.Ctx) error {
	return h.statusChange(c, h.accountService.Unblock, "Account unblocked")
}

// CloseAccount moves the account to its terminal status.
func (h *AccountHandler) CloseAccount(c *fiber.Ctx) error {
	return h.statusChange(c, h.accountService.Close, "Account closed")
}

// GetStatement lists the account's ledger entries, most recent first.
func (h *AccountHandler) GetStatement(c *fiber.Ctx) error {
	userID, accountID, err := userAndAccountID(c)
	if err != nil {
		return paramError(c, err)
	}

	// Ownership gate before touching the ledger.
	if _, err := h.accountService.GetOwned(c.Context(), accountID, userID); err != nil {
		return accountError(c, err)
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	entries, err := h.ledgerService.Statement(c.Context(), accountID, limit, offset)
	if err != nil {
		return response.ServerError(c, "Failed to load statement")
	}

	return response.Success(c, "Statement", entries)
}

type adjustmentFn func(ctx context.Context, accountID, userID uuid.UUID, amount decimal.Decimal) (*models.Account, error)

func (h *AccountHandler) adjustment(c *fiber.Ctx, fn adjustmentFn, message string) error {
	userID, accountID, err := userAndAccountID(c)
	if err != nil {
		return paramError(c, err)
	}

	var input struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	acc, err := fn(c.Context(), accountID, userID, input.Amount)
	if err != nil {
		return accountError(c, err)
	}

	return response.Success(c, message, acc)
}

type statusChangeFn func(ctx context.Context, accountID, userID uuid.UUID) error

func (h *AccountHandler) statusChange(c *fiber.Ctx, fn statusChangeFn, message string) error {
	userID, accountID, err := userAndAccountID(c)
	if err != nil {
		return paramError(c, err)
	}

	if err := fn(c.Context(), accountID, userID); err != nil {
		return accountError(c, err)
	}

	return response.Success(c, message, nil)
}

func userAndAccountID(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return uuid.Nil, uuid.Nil, errNoClaims
	}
	accountID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, errBadID
	}
	return userID, accountID, nil
}

func paramError(c *fiber.Ctx, err error) error {
	if errors.Is(err, errNoClaims) {
		return response.Unauthorized(c)
	}
	return response.BadRequest(c, err.Error())
}

func accountError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, account.ErrAccountNotFound):
		return response.NotFound(c, "Account not found")
	case errors.Is(err, account.ErrAccessDenied):
		return response.Forbidden(c, "Access denied")
	case errors.Is(err, account.ErrInsufficientFunds):
		return response.Error(c, fiber.StatusUnprocessableEntity, "Insufficient funds")
	case errors.Is(err, account.ErrAccountNotActive),
		errors.Is(err, account.ErrAccountClosed),
		errors.Is(err, account.ErrInvalidTransition):
		return response.Conflict(c, err.Error())
	case errors.Is(err, account.ErrInvalidAmount),
		errors.Is(err, account.ErrCurrencyMismatch),
		errors.Is(err, account.ErrSameAccount):
		return response.BadRequest(c, err.Error())
	default:
		return response.ServerError(c, "Operation failed")
	}
}
