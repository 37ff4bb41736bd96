package handler

import (
	"net/http"

	"skillenergy/internal/api/v1/dto"
	"skillenergy/internal/api/v1/response"
	"skillenergy/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// PaymentHandler handles premium plans, plan payments and the active subscription
type PaymentHandler struct {
	planService    service.PlanService
	paymentService service.PaymentService
	validate       *validator.Validate
	log            zerolog.Logger
}

func NewPaymentHandler(planService service.PlanService, paymentService service.PaymentService, validate *validator.Validate, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		planService:    planService,
		paymentService: paymentService,
		validate:       validate,
		log:            logger.With().Str("handler", "PaymentHandler").Logger(),
	}
}

// RegisterRoutes mounts plan and payment routes
func (h *PaymentHandler) RegisterRoutes(mux *http.ServeMux, mw Middlewares) {
	mux.Handle("POST /api/plans", mw.Admin(http.HandlerFunc(h.createPlan)))
	mux.HandleFunc("GET /api/plans", h.listPlans)
	mux.HandleFunc("GET /api/plans/{id}", h.getPlan)
	mux.Handle("PATCH /api/plans/{id}", mw.Admin(http.HandlerFunc(h.updatePlan)))
	mux.Handle("DELETE /api/plans/{id}", mw.Admin(http.HandlerFunc(h.deletePlan)))

	mux.Handle("POST /api/payments", mw.Auth(http.HandlerFunc(h.createPayment)))
	mux.Handle("GET /api/payments", mw.Admin(http.HandlerFunc(h.listPayments)))
	mux.Handle("GET /api/payments/{id}", mw.Auth(http.HandlerFunc(h.getPayment)))
	mux.Handle("PATCH /api/payments/{id}", mw.Auth(http.HandlerFunc(h.updatePayment)))
	mux.Handle("DELETE /api/payments/{id}", mw.Auth(http.HandlerFunc(h.deletePayment)))
	mux.Handle("GET /api/subscriptions/active", mw.Auth(http.HandlerFunc(h.activeSubscription)))
}

func planFields(req dto.PlanDTO) service.PlanFields {
	return service.PlanFields{
		Name:        req.PlanName,
		Price:       req.Price,
		Description: req.Description,
		Duration:    req.Duration,
		IsActive:    req.IsActive,
	}
}

// createPlan godoc
// @Summary Create a premium plan
// @Tags plans
// @Accept json
// @Produce json
// @Param plan body dto.PlanDTO true "Plan"
// @Success 201 {object} response.Envelope{data=model.PremiumPlan}
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /plans [post]
func (h *PaymentHandler) createPlan(w http.ResponseWriter, r *http.Request) {
	var req dto.PlanDTO
	if err := decode(w, r, h.validate, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	p, err := h.planService.Create(r.Context(), planFields(req))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.Created(w, "Premium plan created successfully", p)
}

// listPlans godoc
// @Summary List premium plans
// @Tags plans
// @Produce json
// @Success 200 {object} response.Envelope{data=[]model.PremiumPlan}
// @Router /plans [get]
func (h *PaymentHandler) listPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.planService.List(r.Context())
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Premium plans fetched successfully", plans)
}

// getPlan godoc
// @Summary Get a premium plan
// @Tags plans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} response.Envelope{data=model.PremiumPlan}
// @Failure 404 {object} response.Envelope
// @Router /plans/{id} [get]
func (h *PaymentHandler) getPlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	p, err := h.planService.Get(r.Context(), id)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Premium plan fetched successfully", p)
}

// updatePlan godoc
// @Summary Update a premium plan
// @Tags plans
// @Accept json
// @Produce json
// @Param id path string true "Plan ID"
// @Param plan body dto.PlanDTO true "Fields to change"
// @Success 200 {object} response.Envelope{data=model.PremiumPlan}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /plans/{id} [patch]
func (h *PaymentHandler) updatePlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	var req dto.PlanDTO
	if err := decode(w, r, h.validate, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	p, err := h.planService.Update(r.Context(), id, planFields(req))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Premium plan updated successfully", p)
}

// deletePlan godoc
// @Summary Delete a premium plan
// @Tags plans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /plans/{id} [delete]
func (h *PaymentHandler) deletePlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if err := h.planService.Delete(r.Context(), id); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Premium plan deleted successfully", nil)
}

// createPayment godoc
// @Summary Buy a premium plan
// @Description Pays with CreditCard or UPI and sets the caller's plan and end date.
// @Tags payments
// @Accept json
// @Produce json
// @Param payment body dto.PaymentCreateDTO true "Checkout"
// @Success 201 {object} response.Envelope{data=model.Payment}
// @Failure 400 {object} response.Envelope "Invalid payment details or plan already active"
// @Failure 404 {object} response.Envelope "Premium plan not found."
// @Security BearerAuth
// @Router /payments [post]
func (h *PaymentHandler) createPayment(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	var req dto.PaymentCreateDTO
	if err := decode(w, r, h.validate, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	p, err := h.paymentService.Purchase(r.Context(), actor.UserID, service.PurchaseInput{
		PlanID:           req.PremiumPlan,
		Method:           req.PaymentMethodType,
		CardNumber:       req.CardNumber,
		CardHolderName:   req.CardHolderName,
		ExpiryDate:       req.ExpiryDate,
		CVV:              req.CVV,
		UPIID:            req.UPIID,
		BillingAddressID: req.BillingAddressID,
	})
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.Created(w, "Payment created successfully", p)
}

// listPayments godoc
// @Summary List all plan payments
// @Tags payments
// @Produce json
// @Success 200 {object} response.Envelope{data=[]model.Payment}
// @Security BearerAuth
// @Router /payments [get]
func (h *PaymentHandler) listPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.paymentService.List(r.Context())
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Payments fetched successfully", payments)
}

// getPayment godoc
// @Summary Get a plan payment
// @Tags payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope{data=model.Payment}
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /payments/{id} [get]
func (h *PaymentHandler) getPayment(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	p, err := h.paymentService.Get(r.Context(), actor, id)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Payment fetched successfully", p)
}

// updatePayment godoc
// @Summary Change the billing address of a payment
// @Tags payments
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Param body body dto.PaymentUpdateDTO true "Billing address"
// @Success 200 {object} response.Envelope{data=model.Payment}
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /payments/{id} [patch]
func (h *PaymentHandler) updatePayment(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	var req dto.PaymentUpdateDTO
	if err := decode(w, r, h.validate, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	p, err := h.paymentService.UpdateBillingAddress(r.Context(), actor, id, req.BillingAddressID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Payment updated successfully", p)
}

// deletePayment godoc
// @Summary Delete a plan payment
// @Description Clears the owner's plan, end date and subscription flag.
// @Tags payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope "Payment record not found."
// @Security BearerAuth
// @Router /payments/{id} [delete]
func (h *PaymentHandler) deletePayment(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if err := h.paymentService.Delete(r.Context(), actor, id); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Payment deleted successfully", nil)
}

// activeSubscription godoc
// @Summary Get the caller's active subscription
// @Tags payments
// @Produce json
// @Success 200 {object} response.Envelope{data=model.ActiveSubscription}
// @Failure 404 {object} response.Envelope "No active subscription found"
// @Security BearerAuth
// @Router /subscriptions/active [get]
func (h *PaymentHandler) activeSubscription(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	sub, err := h.paymentService.GetActiveSubscription(r.Context(), actor.UserID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.OK(w, "Active subscription fetched successfully", sub)
}
