package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"skillenergy/internal/apperr"
	"skillenergy/internal/model"
	"skillenergy/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePaymentService struct {
	userID    string
	purchase  *service.PurchaseInput
	actor     service.Actor
	deletedID string
	active    *model.ActiveSubscription
	err       error
	calls     int
}

func (f *fakePaymentService) Purchase(_ context.Context, userID string, in service.PurchaseInput) (*model.Payment, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	f.userID = userID
	f.purchase = &in
	return &model.Payment{ID: "p1", UserID: userID, PlanID: in.PlanID, Method: in.Method, PlanName: "Personal Plans", Total: 499}, nil
}

func (f *fakePaymentService) Get(_ context.Context, actor service.Actor, id string) (*model.Payment, error) {
	f.calls++
	f.actor = actor
	if f.err != nil {
		return nil, f.err
	}
	return &model.Payment{ID: id}, nil
}

func (f *fakePaymentService) List(context.Context) ([]model.Payment, error) {
	f.calls++
	return []model.Payment{{ID: "p1"}, {ID: "p2"}}, f.err
}

func (f *fakePaymentService) UpdateBillingAddress(_ context.Context, actor service.Actor, id string, billingAddressID *string) (*model.Payment, error) {
	f.calls++
	f.actor = actor
	if f.err != nil {
		return nil, f.err
	}
	return &model.Payment{ID: id, BillingAddressID: billingAddressID}, nil
}

func (f *fakePaymentService) Delete(_ context.Context, actor service.Actor, id string) error {
	f.calls++
	f.actor = actor
	f.deletedID = id
	return f.err
}

func (f *fakePaymentService) GetActiveSubscription(_ context.Context, _ string) (*model.ActiveSubscription, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.active, nil
}

func paymentMux(svc *fakePaymentService) *http.ServeMux {
	return newTestMux(NewPaymentHandler(nil, svc, NewValidator(), zerolog.Nop()))
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCreatePayment(t *testing.T) {
	svc := &fakePaymentService{}
	planID := newID()
	body := `{"premiumPlan":"` + planID + `","paymentMethodType":"CreditCard","cardNumber":"4111111111111111",` +
		`"cardHolderName":"Ada","expiryDate":"12/30","cvv":"123"}`

	rec, env := serve(t, paymentMux(svc), asUser(jsonRequest(http.MethodPost, "/api/payments", body), "u1"))
	require.Equal(t, http.StatusCreated, rec.Code, env.Message)
	assert.Equal(t, "Payment created successfully", env.Message)

	assert.Equal(t, "u1", svc.userID)
	require.NotNil(t, svc.purchase)
	assert.Equal(t, planID, svc.purchase.PlanID)
	assert.Equal(t, "CreditCard", svc.purchase.Method)
	assert.Equal(t, "4111111111111111", svc.purchase.CardNumber)
	assert.Equal(t, "Ada", svc.purchase.CardHolderName)
	assert.Equal(t, "12/30", svc.purchase.ExpiryDate)
	assert.Equal(t, "123", svc.purchase.CVV)
	assert.Nil(t, svc.purchase.BillingAddressID)

	var p model.Payment
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, planID, p.PlanID)
	assert.Equal(t, "u1", p.UserID)
}

func TestCreatePaymentBadBodies(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"empty", "", "Request body is required"},
		{"malformed", `{"premiumPlan":`, "Invalid JSON payload"},
		{"plan id", `{"premiumPlan":"plan-1","paymentMethodType":"UPI"}`, "premiumPlan must be a valid id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakePaymentService{}
			rec, env := serve(t, paymentMux(svc), asUser(jsonRequest(http.MethodPost, "/api/payments", tt.body), "u1"))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, env.Message)
			assert.Zero(t, svc.calls)
		})
	}
}

func TestCreatePaymentServiceRejects(t *testing.T) {
	svc := &fakePaymentService{err: apperr.Validation("You already have an active plan.")}
	body := `{"premiumPlan":"` + newID() + `","paymentMethodType":"UPI","upiId":"ada@bank"}`

	rec, env := serve(t, paymentMux(svc), asUser(jsonRequest(http.MethodPost, "/api/payments", body), "u1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You already have an active plan.", env.Message)
	assert.Equal(t, 1, svc.calls)
}

func TestPaymentsNeedAuthentication(t *testing.T) {
	svc := &fakePaymentService{}
	for _, req := range []*http.Request{
		jsonRequest(http.MethodPost, "/api/payments", `{}`),
		httptest.NewRequest(http.MethodGet, "/api/subscriptions/active", nil),
		httptest.NewRequest(http.MethodDelete, "/api/payments/"+newID(), nil),
	} {
		rec, env := serve(t, paymentMux(svc), req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, req.URL.Path)
		assert.Equal(t, "Token is not valid", env.Message)
	}

	rec, _ := serve(t, paymentMux(svc), asUser(httptest.NewRequest(http.MethodGet, "/api/payments", nil), "u1"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, svc.calls)
}

func TestListPaymentsAsAdmin(t *testing.T) {
	svc := &fakePaymentService{}
	rec, env := serve(t, paymentMux(svc), asAdmin(httptest.NewRequest(http.MethodGet, "/api/payments", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	var payments []model.Payment
	require.NoError(t, json.Unmarshal(env.Data, &payments))
	assert.Len(t, payments, 2)
}

func TestDeletePaymentPassesActor(t *testing.T) {
	svc := &fakePaymentService{}
	id := newID()

	rec, env := serve(t, paymentMux(svc), asUser(httptest.NewRequest(http.MethodDelete, "/api/payments/"+id, nil), "u7"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Payment deleted successfully", env.Message)
	assert.Equal(t, id, svc.deletedID)
	assert.Equal(t, service.Actor{UserID: "u7"}, svc.actor)

	svc.err = apperr.Forbidden("You are not allowed to delete this payment")
	rec, env = serve(t, paymentMux(svc), asUser(httptest.NewRequest(http.MethodDelete, "/api/payments/"+id, nil), "u8"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You are not allowed to delete this payment", env.Message)
}

func TestUpdatePaymentBillingAddress(t *testing.T) {
	svc := &fakePaymentService{}
	addressID := newID()
	req := jsonRequest(http.MethodPatch, "/api/payments/"+newID(), `{"billingAddressId":"`+addressID+`"}`)

	rec, env := serve(t, paymentMux(svc), asAdmin(req))
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	assert.True(t, svc.actor.IsAdmin)
	var p model.Payment
	require.NoError(t, json.Unmarshal(env.Data, &p))
	require.NotNil(t, p.BillingAddressID)
	assert.Equal(t, addressID, *p.BillingAddressID)
}

func TestActiveSubscription(t *testing.T) {
	end := time.Date(2026, 11, 14, 0, 0, 0, 0, time.UTC)
	svc := &fakePaymentService{active: &model.ActiveSubscription{
		PlanID: "plan-1", Name: "Personal Plans", Price: 499, ValidTill: "14 Nov 2026", EndDate: end,
		Specification: []string{"All courses"},
	}}

	rec, env := serve(t, paymentMux(svc), asUser(httptest.NewRequest(http.MethodGet, "/api/subscriptions/active", nil), "u1"))
	require.Equal(t, http.StatusOK, rec.Code)
	var sub model.ActiveSubscription
	require.NoError(t, json.Unmarshal(env.Data, &sub))
	assert.Equal(t, "Personal Plans", sub.Name)
	assert.True(t, end.Equal(sub.EndDate))

	svc.err = apperr.NotFound("No active subscription found")
	rec, env = serve(t, paymentMux(svc), asUser(httptest.NewRequest(http.MethodGet, "/api/subscriptions/active", nil), "u1"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No active subscription found", env.Message)
}
