package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vconnect/portal-backend/internal/middleware"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/response"
	"github.com/vconnect/portal-backend/internal/service"
	"github.com/vconnect/portal-backend/internal/validator"
)

// IDCardHandler handles digital ID cards and their public verification.
type IDCardHandler struct {
	cardService *service.IDCardService
}

// NewIDCardHandler creates a new IDCardHandler.
func NewIDCardHandler(cardService *service.IDCardService) *IDCardHandler {
	return &IDCardHandler{cardService: cardService}
}

// IssueCard godoc
// POST /api/v1/id-cards/:user_id
// Issues a card, superseding any card the user already holds.
func (h *IDCardHandler) IssueCard(c *gin.Context) {
	userID, ok := paramUUID(c, "user_id")
	if !ok {
		return
	}

	card, err := h.cardService.Issue(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"card": card})
}

// RevokeCard godoc
// DELETE /api/v1/id-cards/:user_id
func (h *IDCardHandler) RevokeCard(c *gin.Context) {
	userID, ok := paramUUID(c, "user_id")
	if !ok {
		return
	}

	if err := h.cardService.Revoke(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "card revoked"})
}

// MyCard godoc
// GET /api/v1/id-cards/me
func (h *IDCardHandler) MyCard(c *gin.Context) {
	claims := middleware.GetClaims(c)

	card, err := h.cardService.ForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"card": card})
}

// MyCardQR godoc
// GET /api/v1/id-cards/me/qr.png
func (h *IDCardHandler) MyCardQR(c *gin.Context) {
	claims := middleware.GetClaims(c)

	png, err := h.cardService.QRCode(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// VerifyCard godoc
// POST /api/v1/public/id-cards/verify
// Always 200 for a well-formed request; data.valid carries the outcome.
func (h *IDCardHandler) VerifyCard(c *gin.Context) {
	var req model.VerifyCardRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.cardService.Verify(c.Request.Context(), req.Payload)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}
