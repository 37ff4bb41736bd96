package dto

// PlanDTO is used to create and patch premium plans. Omitted fields stay unchanged on update.
type PlanDTO struct {
	PlanName    *string   `json:"plan_name,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Description *[]string `json:"description,omitempty" validate:"omitempty,dive,max=500"`
	Duration    *string   `json:"duration,omitempty"`
	IsActive    *bool     `json:"isActive,omitempty"`
}

// PaymentCreateDTO is the checkout request for a premium plan.
// Method specific rules are enforced by the payment service.
type PaymentCreateDTO struct {
	PremiumPlan       string  `json:"premiumPlan" validate:"omitempty,uuid"`
	PaymentMethodType string  `json:"paymentMethodType"`
	CardNumber        string  `json:"cardNumber"`
	CardHolderName    string  `json:"cardHolderName"`
	ExpiryDate        string  `json:"expiryDate"`
	CVV               string  `json:"cvv"`
	UPIID             string  `json:"upiId"`
	BillingAddressID  *string `json:"billingAddressId,omitempty" validate:"omitempty,uuid"`
}

type PaymentUpdateDTO struct {
	BillingAddressID *string `json:"billingAddressId" validate:"omitempty,uuid"`
}

type CoursePaymentCreateDTO struct {
	TransactionID string `json:"transactionId" validate:"required,max=200"`
	CourseID      string `json:"courseId" validate:"required,uuid"`
}
