package models

import "time"

// AnalysisRecord is the persisted result of one ROAS computation.
// Records are created once and never updated or deleted.
type AnalysisRecord struct {
	ID     string `bson:"_id" json:"id"`
	LeadID string `bson:"lead_id" json:"lead_id"`

	// Inputs and result
	InvestedAmount   float64    `bson:"invested_amount" json:"invested_amount"`
	GeneratedRevenue float64    `bson:"generated_revenue" json:"generated_revenue"`
	ROAS             float64    `bson:"roas" json:"roas"`
	Platform         *string    `bson:"platform,omitempty" json:"platform,omitempty"`
	CampaignDate     *time.Time `bson:"campaign_date,omitempty" json:"campaign_date,omitempty"`

	// Narrative
	InsightText string `bson:"insight_text" json:"insight_text"`
	AIGenerated bool   `bson:"ai_generated" json:"ai_generated"`

	// Bucketing
	ReferenceMonth string `bson:"reference_month" json:"reference_month"` // YYYY-MM

	// Report. ReportURL is nil when the document is not stored separately;
	// in that case ReportPayload holds the full data URI.
	ReportPayload string  `bson:"report_payload" json:"-"`
	ReportURL     *string `bson:"report_url" json:"report_url"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`

	// Populated on reads that join the owning lead.
	Lead *LeadRef `bson:"-" json:"lead,omitempty"`
}

// LeadRef is the slice of a lead shown next to its analyses.
type LeadRef struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	UserID *string `json:"user_id,omitempty"`
}

// MonthlyBucket aggregates the analyses of one reference month.
// It is derived on every read and never persisted.
type MonthlyBucket struct {
	ReferenceMonth string  `json:"reference_month"`
	TotalInvested  float64 `json:"total_invested"`
	TotalRevenue   float64 `json:"total_revenue"`
	AnalysisCount  int     `json:"analysis_count"`
	AverageROAS    float64 `json:"average_roas"` // TotalRevenue / TotalInvested
}

// Profit returns revenue minus investment for the month.
func (b MonthlyBucket) Profit() float64 {
	return b.TotalRevenue - b.TotalInvested
}

// Summary aggregates every analysis of a dashboard.
type Summary struct {
	TotalAnalyses int     `json:"total_analyses"`
	MeanROAS      float64 `json:"mean_roas"` // arithmetic mean of per-record ratios
	TotalInvested float64 `json:"total_invested"`
	TotalRevenue  float64 `json:"total_revenue"`
}
