package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"skillenergy/internal/apperr"
	"skillenergy/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerFixture struct {
	svc       PaymentService
	users     *fakeUsers
	plans     *fakePlans
	payments  *fakePayments
	publisher *fakePublisher
	now       time.Time
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	f := &ledgerFixture{
		users: newFakeUsers(
			&model.User{ID: "u1", Email: "ana@example.com"},
			&model.User{ID: "u2", Email: "bo@example.com"},
		),
		plans: newFakePlans(
			&model.PremiumPlan{ID: "monthly", Name: model.PlanPersonal, Price: 499, Duration: model.DurationMonthly, Description: []string{"HD video"}},
			&model.PremiumPlan{ID: "yearly", Name: model.PlanTeam, Price: 4999, Duration: model.DurationYearly},
			&model.PremiumPlan{ID: "weekly", Name: model.PlanPersonal, Price: 99, Duration: model.DurationWeekly},
			&model.PremiumPlan{ID: "broken", Name: model.PlanPersonal, Price: 1, Duration: "Fortnightly"},
		),
		publisher: &fakePublisher{},
		now:       time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	f.payments = newFakePayments(f.users, f.plans)
	f.svc = NewPaymentService(f.payments, f.users, f.plans, f.publisher, "payments", fixedClock(&f.now), zerolog.Nop())
	return f
}

func upi(planID string) PurchaseInput {
	return PurchaseInput{PlanID: planID, Method: model.MethodUPI, UPIID: "ana@upi"}
}

func TestPlanEndDate(t *testing.T) {
	from := time.Date(2023, 1, 31, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		duration string
		from     time.Time
		want     time.Time
	}{
		{model.DurationWeekly, from, time.Date(2023, 2, 7, 10, 0, 0, 0, time.UTC)},
		{model.DurationMonthly, from, time.Date(2023, 3, 3, 10, 0, 0, 0, time.UTC)},
		{model.DurationMonthly, time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC), time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)},
		{model.DurationYearly, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.duration+" "+tt.from.Format(time.DateOnly), func(t *testing.T) {
			got, err := PlanEndDate(tt.duration, tt.from)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := PlanEndDate("Daily", from)
	assertKind(t, err, apperr.KindValidation, "Invalid premium plan duration.")
}

func TestPurchaseSetsEntitlement(t *testing.T) {
	f := newLedgerFixture(t)
	p, err := f.svc.Purchase(context.Background(), "u1", upi("monthly"))
	require.NoError(t, err)

	assert.Equal(t, "monthly", p.PlanID)
	assert.Equal(t, 499.0, p.Total)
	assert.Equal(t, time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC), p.EndDate)

	u := f.users.user("u1")
	require.NotNil(t, u.PlanID)
	assert.Equal(t, "monthly", *u.PlanID)
	assert.Equal(t, p.EndDate, *u.EndDate)
	assert.True(t, u.IsSubscribed)

	msgs := f.publisher.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "payments", msgs[0].topic)
	var ev struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msgs[0].payload, &ev))
	assert.Equal(t, EventPaymentCreated, ev.Type)
	assert.Equal(t, p.ID, ev.Data["payment_id"])
}

func TestPurchaseSamePlanWhileActiveIsRejected(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	first, err := f.svc.Purchase(ctx, "u1", upi("monthly"))
	require.NoError(t, err)

	_, err = f.svc.Purchase(ctx, "u1", upi("monthly"))
	assertKind(t, err, apperr.KindConflict, "You already have an active subscription for this plan. You can renew it after it expires.")
	assert.Equal(t, first.EndDate, *f.users.user("u1").EndDate)

	// once expired the same plan can be bought again
	f.now = first.EndDate.Add(time.Minute)
	renewed, err := f.svc.Purchase(ctx, "u1", upi("monthly"))
	require.NoError(t, err)
	assert.True(t, renewed.EndDate.After(first.EndDate))
}

func TestPurchaseDifferentPlanOverwrites(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	_, err := f.svc.Purchase(ctx, "u1", upi("monthly"))
	require.NoError(t, err)

	yearly, err := f.svc.Purchase(ctx, "u1", upi("yearly"))
	require.NoError(t, err)
	u := f.users.user("u1")
	assert.Equal(t, "yearly", *u.PlanID)
	assert.Equal(t, yearly.EndDate, *u.EndDate)
	assert.Equal(t, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), yearly.EndDate)

	all, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2, "earlier payments are kept")
}

func TestPurchaseMethodValidation(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	card := PurchaseInput{
		PlanID:         "weekly",
		Method:         "Credit Card",
		CardNumber:     "4111 1111 1111 1234",
		CardHolderName: "Ana",
		ExpiryDate:     "12/29",
		CVV:            "123",
	}

	tests := []struct {
		name string
		edit func(in *PurchaseInput)
		msg  string
	}{
		{"missing plan", func(in *PurchaseInput) { in.PlanID = "" }, "Missing required fields: paymentMethodType, premiumPlan"},
		{"unknown method", func(in *PurchaseInput) { in.Method = "Cash" }, "paymentMethodType must be CreditCard or UPI"},
		{"card without cvv", func(in *PurchaseInput) { in.CVV = "" }, "Card number, card holder name, expiry date, and CVV are required for Credit Card payments."},
		{"card with upi", func(in *PurchaseInput) { in.UPIID = "x@upi" }, "UPI ID should not be provided for Credit Card payments."},
		{"short card", func(in *PurchaseInput) { in.CardNumber = "4111" }, "Card number must contain 12 to 19 digits."},
		{"upi with card", func(in *PurchaseInput) { in.Method = model.MethodUPI; in.UPIID = "x@upi" }, "Card details should not be provided for UPI payments."},
		{"upi without id", func(in *PurchaseInput) { *in = PurchaseInput{PlanID: "weekly", Method: "upi"} }, "UPI ID is required for UPI payments."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := card
			tt.edit(&in)
			_, err := f.svc.Purchase(ctx, "u1", in)
			assertKind(t, err, apperr.KindValidation, tt.msg)
		})
	}
	assert.Empty(t, f.publisher.messages())

	p, err := f.svc.Purchase(ctx, "u1", card)
	require.NoError(t, err)
	assert.Equal(t, model.MethodCreditCard, p.Method)
	assert.Equal(t, "1234", p.CardLast4)
	assert.Empty(t, p.UPIID)
}

func TestPurchaseMissingRecords(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.svc.Purchase(ctx, "u1", upi("nope"))
	assertKind(t, err, apperr.KindNotFound, "Premium plan not found.")

	_, err = f.svc.Purchase(ctx, "ghost", upi("monthly"))
	assertKind(t, err, apperr.KindNotFound, "User not found.")

	_, err = f.svc.Purchase(ctx, "u1", upi("broken"))
	assertKind(t, err, apperr.KindValidation, "Invalid premium plan duration.")
	assert.Nil(t, f.users.user("u1").PlanID)
}

func TestPurchasePublishFailureIsNotFatal(t *testing.T) {
	f := newLedgerFixture(t)
	f.publisher.err = errBoom
	_, err := f.svc.Purchase(context.Background(), "u1", upi("monthly"))
	require.NoError(t, err)
	assert.True(t, f.users.user("u1").IsSubscribed)
}

func TestDeletePaymentResetsUser(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	p, err := f.svc.Purchase(ctx, "u1", upi("monthly"))
	require.NoError(t, err)

	err = f.svc.Delete(ctx, Actor{UserID: "u2"}, p.ID)
	assertKind(t, err, apperr.KindForbidden, "")

	require.NoError(t, f.svc.Delete(ctx, Actor{UserID: "u1"}, p.ID))
	u := f.users.user("u1")
	assert.Nil(t, u.PlanID)
	assert.Nil(t, u.EndDate)
	assert.False(t, u.IsSubscribed)

	err = f.svc.Delete(ctx, Actor{UserID: "u1"}, p.ID)
	assertKind(t, err, apperr.KindNotFound, "Payment record not found.")

	msgs := f.publisher.messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, string(msgs[1].payload), EventPaymentDeleted)
}

func TestGetActiveSubscription(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetActiveSubscription(ctx, "u1")
	assertKind(t, err, apperr.KindNotFound, "No active subscription found")

	p, err := f.svc.Purchase(ctx, "u1", upi("monthly"))
	require.NoError(t, err)

	sub, err := f.svc.GetActiveSubscription(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "monthly", sub.PlanID)
	assert.Equal(t, "10 Apr 2024", sub.ValidTill)
	assert.Equal(t, []string{"HD video"}, sub.Specification)

	f.now = p.EndDate.Add(time.Second)
	_, err = f.svc.GetActiveSubscription(ctx, "u1")
	assertKind(t, err, apperr.KindNotFound, "No active subscription found")
	assert.True(t, f.users.user("u1").IsSubscribed, "expiry is evaluated on read, not written back")
}

func TestPaymentAccess(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	p, err := f.svc.Purchase(ctx, "u1", upi("monthly"))
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, Actor{UserID: "u2"}, p.ID)
	assertKind(t, err, apperr.KindForbidden, "Access denied. You can only access your own payment records.")

	got, err := f.svc.Get(ctx, Actor{UserID: "u2", IsAdmin: true}, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	addr := "billing-1"
	updated, err := f.svc.UpdateBillingAddress(ctx, Actor{UserID: "u1"}, p.ID, &addr)
	require.NoError(t, err)
	assert.Equal(t, &addr, updated.BillingAddressID)
	assert.Equal(t, p.Total, updated.Total)
}
