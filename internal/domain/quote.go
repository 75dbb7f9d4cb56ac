// Package domain defines the core business entities of the lead-generation
// backend: role requests and quotes, tracked content views, users and
// recommended candidates. These models are independent of external services.
package domain

import "time"

// ============================================================
// Seniority levels
// ============================================================

// Level is the seniority tier a salary estimate belongs to.
type Level string

const (
	LevelEntry  Level = "entry"
	LevelMid    Level = "mid"
	LevelSenior Level = "senior"
)

// Valid reports whether l is one of the known tiers.
func (l Level) Valid() bool {
	switch l {
	case LevelEntry, LevelMid, LevelSenior:
		return true
	}
	return false
}

// ============================================================
// Workspace types
// ============================================================

// WorkspaceType is the physical work arrangement of a role.
type WorkspaceType string

const (
	WorkspaceWFH         WorkspaceType = "Work from Home"
	WorkspaceHybrid      WorkspaceType = "Hybrid"
	WorkspaceFullOffice  WorkspaceType = "Full Office"
	WorkspaceOfficeSpace WorkspaceType = "Office Space"
)

// Valid reports whether w is one of the known workspace types.
func (w WorkspaceType) Valid() bool {
	switch w {
	case WorkspaceWFH, WorkspaceHybrid, WorkspaceFullOffice, WorkspaceOfficeSpace:
		return true
	}
	return false
}

// ============================================================
// Salary estimation
// ============================================================

// RoleRequest is one role the client wants priced.
type RoleRequest struct {
	Title    string `json:"title"`
	Industry string `json:"industry,omitempty"`
	Level    Level  `json:"level,omitempty"` // desired seniority, optional
}

// SalarySource tells where a salary estimate came from.
type SalarySource string

const (
	SalarySourceProvided  SalarySource = "provided"
	SalarySourceLLM       SalarySource = "llm"
	SalarySourceHeuristic SalarySource = "heuristic"
)

// SalaryEstimate is a monthly base salary in PHP with its seniority tier.
// SalaryPHP is always > 0 once produced by the estimator.
type SalaryEstimate struct {
	SalaryPHP float64      `json:"salary"`
	Level     Level        `json:"level"`
	Source    SalarySource `json:"source,omitempty"`
}

// SalaryEstimateRequest is the body of POST /api/estimate-salaries.
type SalaryEstimateRequest struct {
	Roles    []RoleRequest `json:"roles"`
	Industry string        `json:"industry,omitempty"`
}

// SalaryEstimateResponse maps each distinct title to its estimate, in the
// shape generate-quote accepts as rolesSalaryData.
type SalaryEstimateResponse struct {
	RolesSalaryData map[string]SalaryEstimate `json:"rolesSalaryData"`
}

// ============================================================
// Quote request / response
// ============================================================

// UserLocation is the client location detected by the page.
type UserLocation struct {
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
	City        string `json:"city,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
}

// QuoteRequest is the body of POST /api/generate-quote.
type QuoteRequest struct {
	Roles               []RoleRequest             `json:"roles"`
	RoleCount           map[string]int            `json:"roleCount,omitempty"`
	Industry            string                    `json:"industry,omitempty"`
	RolesSalaryData     map[string]SalaryEstimate `json:"rolesSalaryData,omitempty"`
	SetupSelections     map[string]WorkspaceType  `json:"setupSelections,omitempty"`
	BulkSetup           WorkspaceType             `json:"bulkSetup,omitempty"`
	OfficeSpaceSelected bool                      `json:"officeSpaceSelected"`
	OfficeSize          string                    `json:"officeSize,omitempty"`
	Currency            string                    `json:"currency,omitempty"`
	UserLocation        *UserLocation             `json:"userLocation,omitempty"`
	UserID              string                    `json:"userId,omitempty"`
}

// QuoteLine is the priced result for one role.
type QuoteLine struct {
	Title           string        `json:"title"`
	Level           Level         `json:"level"`
	Count           int           `json:"count"`
	SalaryPHP       float64       `json:"salaryPhp"`
	SalarySource    SalarySource  `json:"salarySource"`
	NightShift      bool          `json:"nightShift"`
	WorkspaceType   WorkspaceType `json:"workspaceType"`
	UnitMonthlyCost float64       `json:"unitMonthlyCost"`
	WorkspaceFee    float64       `json:"workspaceFee"`
	MonthlyCost     float64       `json:"monthlyCost"`
	SetupFee        float64       `json:"setupFee"`
}

// OfficeSpaceLine is the facility line item added when office space is selected.
type OfficeSpaceLine struct {
	Size        string  `json:"size"`
	MonthlyCost float64 `json:"monthlyCost"`
}

// Quote is an itemized monthly quote. Immutable once returned.
type Quote struct {
	ID               string           `json:"id"`
	Roles            []QuoteLine      `json:"roles"`
	OfficeSpace      *OfficeSpaceLine `json:"officeSpace,omitempty"`
	TotalMonthlyCost float64          `json:"totalMonthlyCost"`
	TotalSetupCost   float64          `json:"totalSetupCost"`
	Currency         string           `json:"currency"`
	CurrencySymbol   string           `json:"currencySymbol"`
	ExchangeRate     float64          `json:"exchangeRate"`
	RateSource       string           `json:"rateSource"`
	Industry         string           `json:"industry,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// ExchangeRate is a PHP→X rate with the provider that produced it.
type ExchangeRate struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Value  float64 `json:"value"`
	Source string  `json:"source"` // identity, cache, primary, secondary, static
}
