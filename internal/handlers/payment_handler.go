package handlers

import (
	"io"

	"pathgo/internal/services"
	"pathgo/internal/utils"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	settlementService services.SettlementService
	partnerService    services.PartnerService
}

func NewPaymentHandler(settlementService services.SettlementService, partnerService services.PartnerService) *PaymentHandler {
	return &PaymentHandler{
		settlementService: settlementService,
		partnerService:    partnerService,
	}
}

// SettleCash is the driver confirming cash in hand.
func (h *PaymentHandler) SettleCash(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rideID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	partner, err := h.partnerService.DriverProfile(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	ride, err := h.settlementService.SettleCash(c.Request.Context(), rideID, partner.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Payment recorded", ride)
}

// CreateOrder opens a gateway order for the rider to pay online.
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rideID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	order, err := h.settlementService.CreatePaymentOrder(c.Request.Context(), rideID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Payment order created", order)
}

// ConfirmPayment verifies the gateway response the client got and
// settles the ride.
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rideID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req services.PaymentConfirmation
	if !bindAndValidate(c, &req) {
		return
	}

	ride, err := h.settlementService.ConfirmOnlinePayment(c.Request.Context(), rideID, userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Payment confirmed", ride)
}

// HandleWebhook receives gateway notifications. Always answers 200 for
// recognized-but-already-settled events so the gateway stops retrying.
func (h *PaymentHandler) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		utils.BadRequestResponse(c, "Could not read payload")
		return
	}

	signature := c.GetHeader("X-Razorpay-Signature")
	if signature == "" {
		signature = c.GetHeader("Stripe-Signature")
	}

	if err := h.settlementService.HandleWebhook(c.Request.Context(), payload, signature); err != nil {
		utils.BadRequestResponse(c, "Webhook rejected")
		return
	}
	utils.SuccessResponse(c, "ok", nil)
}

func (h *PaymentHandler) GetUserTransactions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	txns, total, err := h.settlementService.UserTransactions(c.Request.Context(), userID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponseWithMeta(c, "Transactions retrieved", txns, &utils.Meta{Pagination: params.BuildMeta(total)})
}

func (h *PaymentHandler) GetPartnerTransactions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	partner, err := h.partnerService.DriverProfile(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	params := utils.GetPaginationParams(c)
	txns, total, err := h.settlementService.PartnerTransactions(c.Request.Context(), partner.ID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponseWithMeta(c, "Transactions retrieved", txns, &utils.Meta{Pagination: params.BuildMeta(total)})
}
