package model

import "time"

const (
	PlanPersonal   = "Personal Plans"
	PlanTeam       = "Team Plans"
	PlanEnterprise = "Enterprise Plan"

	DurationWeekly  = "Weekly"
	DurationMonthly = "Monthly"
	DurationYearly  = "Yearly"

	MethodCreditCard = "CreditCard"
	MethodUPI        = "UPI"
)

// PremiumPlan is a subscription tier with a price and billing duration.
type PremiumPlan struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"plan_name" json:"plan_name"`
	Price       float64   `db:"price" json:"price"`
	Description []string  `db:"description" json:"description"`
	Duration    string    `db:"duration" json:"duration"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Payment is the immutable record of a plan purchase.
type Payment struct {
	ID               string    `db:"id" json:"id"`
	UserID           string    `db:"user_id" json:"userId"`
	PlanID           string    `db:"plan_id" json:"premiumPlan"`
	Method           string    `db:"payment_method" json:"paymentMethodType"`
	CardHolderName   string    `db:"card_holder_name" json:"cardHolderName,omitempty"`
	CardLast4        string    `db:"card_last4" json:"cardLast4,omitempty"`
	CardExpiry       string    `db:"card_expiry" json:"expiryDate,omitempty"`
	UPIID            string    `db:"upi_id" json:"upiId,omitempty"`
	PlanName         string    `db:"plan_name" json:"planName"`
	Price            float64   `db:"price" json:"price"`
	Discount         float64   `db:"discount" json:"discount"`
	Total            float64   `db:"total" json:"total"`
	BillingAddressID *string   `db:"billing_address_id" json:"billingAddressId"`
	EndDate          time.Time `db:"end_date" json:"endDate"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}

// ActiveSubscription describes the plan a user is currently entitled to.
type ActiveSubscription struct {
	PlanID        string    `json:"planId"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	ValidTill     string    `json:"validTill"`
	EndDate       time.Time `json:"endDate"`
	Specification []string  `json:"specification"`
}
