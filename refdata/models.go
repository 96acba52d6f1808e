package refdata

// Tier is a registration tier from the catalog, carrying the default quota
// bounds proposed when a registration draft is prefilled.
type Tier struct {
	ID              string
	Name            string
	QuotaMinQuarter int64
	QuotaMaxQuarter int64
	QuotaMinYear    int64
	QuotaMaxYear    int64
}

// Stage is a lifecycle stage from the catalog.
type Stage struct {
	ID   string
	Name string
}

// Status is a lifecycle status from the catalog. Each status belongs to
// exactly one stage.
type Status struct {
	ID      string
	StageID string
	Name    string
}
