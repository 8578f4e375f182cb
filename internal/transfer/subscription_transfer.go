package transfer

import "time"

const (
	EventSubscriptionPaid     = "subscription.paid"
	EventSubscriptionCanceled = "subscription.canceled"
	EventSubscriptionExpired  = "subscription.expired"
)

// SubscriptionEvent is the billing provider webhook body. Only the fields
// needed to maintain entitlement are decoded.
type SubscriptionEvent struct {
	ID        string `json:"id"`
	EventType string `json:"eventType"`
	CreatedAt int64  `json:"created_at"`
	Object    struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		Customer struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"customer"`
		CurrentPeriodStartDate time.Time  `json:"current_period_start_date"`
		CurrentPeriodEndDate   time.Time  `json:"current_period_end_date"`
		CanceledAt             *time.Time `json:"canceled_at"`
	} `json:"object"`
}
