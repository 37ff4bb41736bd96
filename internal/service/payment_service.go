package service

import (
	"context"
	"strings"
	"time"

	"skillenergy/internal/apperr"
	"skillenergy/internal/model"
	"skillenergy/internal/pubsub"
	"skillenergy/internal/repository"

	"github.com/rs/zerolog"
)

const (
	EventPaymentCreated = "payment.created"
	EventPaymentDeleted = "payment.deleted"
)

// PurchaseInput is a plan purchase request. Card fields and UPIID are mutually exclusive.
type PurchaseInput struct {
	PlanID           string
	Method           string
	CardNumber       string
	CardHolderName   string
	ExpiryDate       string
	CVV              string
	UPIID            string
	BillingAddressID *string
}

// PaymentService is the subscription ledger. It turns plan purchases into a time-bounded
// entitlement on the user and keeps the immutable payment records.
type PaymentService interface {
	Purchase(ctx context.Context, userID string, in PurchaseInput) (*model.Payment, error)
	Get(ctx context.Context, actor Actor, id string) (*model.Payment, error)
	List(ctx context.Context) ([]model.Payment, error)
	UpdateBillingAddress(ctx context.Context, actor Actor, id string, billingAddressID *string) (*model.Payment, error)
	Delete(ctx context.Context, actor Actor, id string) error
	GetActiveSubscription(ctx context.Context, userID string) (*model.ActiveSubscription, error)
}

type paymentService struct {
	payments  repository.PaymentRepository
	users     repository.UserRepository
	plans     repository.PlanRepository
	publisher pubsub.Publisher
	topic     string
	now       Clock
	log       zerolog.Logger
}

func NewPaymentService(
	payments repository.PaymentRepository,
	users repository.UserRepository,
	plans repository.PlanRepository,
	publisher pubsub.Publisher,
	topic string,
	now Clock,
	logger zerolog.Logger,
) PaymentService {
	if now == nil {
		now = time.Now
	}
	return &paymentService{
		payments:  payments,
		users:     users,
		plans:     plans,
		publisher: publisher,
		topic:     topic,
		now:       now,
		log:       logger.With().Str("service", "PaymentService").Logger(),
	}
}

// PlanEndDate adds a plan duration to from. Months and years use calendar arithmetic,
// so Jan 31 plus one month normalizes into March.
func PlanEndDate(duration string, from time.Time) (time.Time, error) {
	switch duration {
	case model.DurationWeekly:
		return from.AddDate(0, 0, 7), nil
	case model.DurationMonthly:
		return from.AddDate(0, 1, 0), nil
	case model.DurationYearly:
		return from.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, apperr.Validation("Invalid premium plan duration.")
	}
}

// NormalizeMethod accepts "Credit Card" as a spelling of CreditCard.
func NormalizeMethod(method string) string {
	if strings.EqualFold(strings.ReplaceAll(method, " ", ""), model.MethodCreditCard) {
		return model.MethodCreditCard
	}
	if strings.EqualFold(method, model.MethodUPI) {
		return model.MethodUPI
	}
	return method
}

func validateMethod(in *PurchaseInput) error {
	hasCard := in.CardNumber != "" || in.CardHolderName != "" || in.ExpiryDate != "" || in.CVV != ""
	switch in.Method {
	case model.MethodCreditCard:
		if in.CardNumber == "" || in.CardHolderName == "" || in.ExpiryDate == "" || in.CVV == "" {
			return apperr.Validation("Card number, card holder name, expiry date, and CVV are required for Credit Card payments.")
		}
		if in.UPIID != "" {
			return apperr.Validation("UPI ID should not be provided for Credit Card payments.")
		}
		digits := strings.ReplaceAll(in.CardNumber, " ", "")
		if len(digits) < 12 || len(digits) > 19 || strings.Trim(digits, "0123456789") != "" {
			return apperr.Validation("Card number must contain 12 to 19 digits.")
		}
	case model.MethodUPI:
		if in.UPIID == "" {
			return apperr.Validation("UPI ID is required for UPI payments.")
		}
		if hasCard {
			return apperr.Validation("Card details should not be provided for UPI payments.")
		}
	default:
		return apperr.Validation("paymentMethodType must be CreditCard or UPI")
	}
	return nil
}

// Purchase records a plan purchase. Buying the plan the user already holds while it is
// still active is refused; buying a different plan replaces the current one.
func (s *paymentService) Purchase(ctx context.Context, userID string, in PurchaseInput) (*model.Payment, error) {
	if in.PlanID == "" || in.Method == "" {
		return nil, apperr.Validation("Missing required fields: paymentMethodType, premiumPlan")
	}
	in.Method = NormalizeMethod(in.Method)
	if err := validateMethod(&in); err != nil {
		return nil, err
	}

	now := s.now()
	payment, err := s.payments.Purchase(ctx, userID, in.PlanID, func(user *model.User, plan *model.PremiumPlan) (*model.Payment, error) {
		if plan == nil {
			return nil, apperr.NotFound("Premium plan not found.")
		}
		if user == nil {
			return nil, apperr.NotFound("User not found.")
		}
		if user.HasActivePlan(now) && *user.PlanID == plan.ID {
			return nil, apperr.Conflict("You already have an active subscription for this plan. You can renew it after it expires.")
		}
		endDate, err := PlanEndDate(plan.Duration, now)
		if err != nil {
			return nil, err
		}

		p := &model.Payment{
			UserID:           user.ID,
			PlanID:           plan.ID,
			Method:           in.Method,
			UPIID:            in.UPIID,
			PlanName:         plan.Name,
			Price:            plan.Price,
			Discount:         0,
			Total:            plan.Price,
			BillingAddressID: in.BillingAddressID,
			EndDate:          endDate,
		}
		if in.Method == model.MethodCreditCard {
			digits := strings.ReplaceAll(in.CardNumber, " ", "")
			p.CardHolderName = in.CardHolderName
			p.CardLast4 = digits[len(digits)-4:]
			p.CardExpiry = in.ExpiryDate
		}
		return p, nil
	})
	if err != nil {
		return nil, apperr.Wrap(err, "purchase plan")
	}

	s.log.Info().Str("payment_id", payment.ID).Str("user_id", userID).Str("plan_id", payment.PlanID).Time("end_date", payment.EndDate).Msg("Plan purchased")
	s.publish(ctx, EventPaymentCreated, payment)
	return payment, nil
}

func (s *paymentService) Get(ctx context.Context, actor Actor, id string) (*model.Payment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "load payment")
	}
	if p == nil {
		return nil, apperr.NotFound("Payment record not found.")
	}
	if !actor.owns(p.UserID) {
		return nil, apperr.Forbidden("Access denied. You can only access your own payment records.")
	}
	return p, nil
}

func (s *paymentService) List(ctx context.Context) ([]model.Payment, error) {
	payments, err := s.payments.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, "list payments")
	}
	return payments, nil
}

// UpdateBillingAddress changes the only mutable field of a payment.
func (s *paymentService) UpdateBillingAddress(ctx context.Context, actor Actor, id string, billingAddressID *string) (*model.Payment, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	p, err := s.payments.UpdateBillingAddress(ctx, id, billingAddressID)
	if err != nil {
		return nil, apperr.Wrap(err, "update payment billing address")
	}
	if p == nil {
		return nil, apperr.NotFound("Payment record not found.")
	}
	return p, nil
}

// Delete removes the payment and clears the owner's entitlement unconditionally.
func (s *paymentService) Delete(ctx context.Context, actor Actor, id string) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	p, err := s.payments.Delete(ctx, id)
	if err != nil {
		return apperr.Wrap(err, "delete payment")
	}
	if p == nil {
		return apperr.NotFound("Payment record not found.")
	}
	s.log.Info().Str("payment_id", id).Str("user_id", p.UserID).Msg("Payment deleted and subscription cleared")
	s.publish(ctx, EventPaymentDeleted, p)
	return nil
}

// GetActiveSubscription evaluates expiry against the clock on every call.
func (s *paymentService) GetActiveSubscription(ctx context.Context, userID string) (*model.ActiveSubscription, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(err, "load user")
	}
	if user == nil || user.PlanID == nil || user.EndDate == nil || user.EndDate.Before(s.now()) {
		return nil, apperr.NotFound("No active subscription found")
	}
	plan, err := s.plans.GetByID(ctx, *user.PlanID)
	if err != nil {
		return nil, apperr.Wrap(err, "load plan")
	}
	if plan == nil {
		return nil, apperr.NotFound("Subscription plan not found")
	}
	return &model.ActiveSubscription{
		PlanID:        plan.ID,
		Name:          plan.Name,
		Price:         plan.Price,
		ValidTill:     user.EndDate.Format("02 Jan 2006"),
		EndDate:       *user.EndDate,
		Specification: plan.Description,
	}, nil
}

func (s *paymentService) publish(ctx context.Context, eventType string, p *model.Payment) {
	data := map[string]any{
		"payment_id": p.ID,
		"user_id":    p.UserID,
		"plan_id":    p.PlanID,
		"total":      p.Total,
		"end_date":   p.EndDate,
	}
	if _, err := pubsub.PublishEvent(context.WithoutCancel(ctx), s.publisher, s.topic, eventType, data); err != nil {
		s.log.Error().Err(err).Str("event", eventType).Str("topic", s.topic).Msg("Failed to publish payment event")
	}
}
