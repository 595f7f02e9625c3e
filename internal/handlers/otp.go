package handlers

import (
	"errors"

	"atlasbank/internal/models"
	"atlasbank/internal/services/otp"
	"atlasbank/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type OTPHandler struct {
	otpService otp.Service
}

func NewOTPHandler(otpService otp.Service) *OTPHandler {
	return &OTPHandler{
		otpService: otpService,
	}
}

// ResendOTP reissues the active challenge for the given purpose, rate
// limited by a per-user cooldown.
func (h *OTPHandler) ResendOTP(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return response.Unauthorized(c)
	}

	var input struct {
		Purpose models.OTPPurpose `json:"purpose"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if input.Purpose == "" {
		input.Purpose = models.OTPPurposeTransaction
	}

	challenge, err := h.otpService.Resend(c.Context(), userID, input.Purpose)
	if err != nil {
		if errors.Is(err, otp.ErrCooldownActive) {
			return response.Error(c, fiber.StatusTooManyRequests, "Please wait before requesting another code")
		}
		return response.ServerError(c, "Failed to resend code")
	}

	return response.Success(c, "Code sent", fiber.Map{
		"challenge_id": challenge.ID,
		"expires_at":   challenge.ExpiresAt,
	})
}
