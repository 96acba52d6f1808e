package customer

import "time"

// Customer is the live wholesale-customer record. Its tier assignment and
// quota bounds are only ever rewritten by executing an approved registration.
type Customer struct {
	ID              string
	Name            string
	TierID          *string
	QuotaMinQuarter int64
	QuotaMaxQuarter int64
	QuotaMinYear    int64
	QuotaMaxYear    int64
	TermsEffective  *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Terms is the approved tier assignment applied to a customer.
type Terms struct {
	TierID          string
	QuotaMinQuarter int64
	QuotaMaxQuarter int64
	QuotaMinYear    int64
	QuotaMaxYear    int64
	EffectiveDate   time.Time
}
