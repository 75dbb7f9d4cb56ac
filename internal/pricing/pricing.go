// Package pricing holds the static rate tables used by the quote engine:
// seniority multipliers, heuristic salaries, night-shift rules, currency
// symbols and fallback exchange rates, and the setup/workspace/facility fees.
package pricing

import (
	"sort"
	"strings"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"
)

// BaseCurrency is the currency every salary is estimated in.
const BaseCurrency = "PHP"

// NightShiftDifferential is the wage premium for roles covering the client's
// business hours during the Philippine night.
const NightShiftDifferential = 0.10

// DefaultCurrency is used when neither the request nor the location gives one.
const DefaultCurrency = "USD"

var multipliers = map[domain.Level]float64{
	domain.LevelEntry:  1.7,
	domain.LevelMid:    1.5,
	domain.LevelSenior: 1.4,
}

var heuristicSalaries = map[domain.Level]float64{
	domain.LevelEntry:  25000,
	domain.LevelMid:    45000,
	domain.LevelSenior: 80000,
}

// Multiplier returns the markup over base local salary for a tier.
func Multiplier(level domain.Level) float64 {
	if m, ok := multipliers[level]; ok {
		return m
	}
	return multipliers[domain.LevelEntry]
}

// HeuristicSalary returns the fixed PHP salary used when no estimate is available.
func HeuristicSalary(level domain.Level) float64 {
	if s, ok := heuristicSalaries[level]; ok {
		return s
	}
	return heuristicSalaries[domain.LevelEntry]
}

// ============================================================
// Currencies
// ============================================================

type currencyInfo struct {
	symbol     string
	staticRate float64 // PHP -> currency
}

var currencies = map[string]currencyInfo{
	"USD": {symbol: "$", staticRate: 0.018},
	"AUD": {symbol: "A$", staticRate: 0.027},
	"CAD": {symbol: "C$", staticRate: 0.024},
	"GBP": {symbol: "£", staticRate: 0.014},
	"EUR": {symbol: "€", staticRate: 0.016},
	"NZD": {symbol: "NZ$", staticRate: 0.029},
	"PHP": {symbol: "₱", staticRate: 1},
}

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Supported reports whether quotes can be produced in the currency.
func Supported(code string) bool {
	_, ok := currencies[NormalizeCurrency(code)]
	return ok
}

// Currencies returns the supported currency codes, sorted.
func Currencies() []string {
	out := make([]string, 0, len(currencies))
	for c := range currencies {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Symbol returns the display symbol, or the code itself when unknown.
func Symbol(code string) string {
	code = NormalizeCurrency(code)
	if c, ok := currencies[code]; ok {
		return c.symbol
	}
	return code
}

// StaticRate returns the hard-coded PHP→code rate used when every exchange
// API failed.
func StaticRate(code string) (float64, error) {
	c, ok := currencies[NormalizeCurrency(code)]
	if !ok {
		return 0, &domain.ErrValidation{Field: "currency", Message: "unsupported currency: " + code}
	}
	return c.staticRate, nil
}

// ============================================================
// Markets
// ============================================================

var countryCurrency = map[string]string{
	"US": "USD", "CA": "CAD", "GB": "GBP", "UK": "GBP", "AU": "AUD", "NZ": "NZD", "PH": "PHP",
	"IE": "EUR", "DE": "EUR", "FR": "EUR", "ES": "EUR", "IT": "EUR", "NL": "EUR",
	"BE": "EUR", "AT": "EUR", "PT": "EUR", "FI": "EUR", "GR": "EUR", "LU": "EUR",
}

// Countries whose business day falls in the Philippine night (UTC+8 vs
// roughly UTC-10 .. UTC+4).
var nightShiftCountries = map[string]bool{
	"US": true, "CA": true, "MX": true, "BR": true, "AR": true, "CL": true, "CO": true, "PE": true,
	"GB": true, "UK": true, "IE": true, "DE": true, "FR": true, "ES": true, "IT": true, "NL": true,
	"BE": true, "AT": true, "PT": true, "FI": true, "GR": true, "LU": true, "CH": true, "SE": true,
	"NO": true, "DK": true, "PL": true, "AE": true, "SA": true, "IL": true, "ZA": true, "NG": true,
	"KE": true, "EG": true,
}

// CurrencyForCountry returns the display currency for an ISO country code,
// or "" when the country has no configured currency.
func CurrencyForCountry(countryCode string) string {
	return countryCurrency[strings.ToUpper(strings.TrimSpace(countryCode))]
}

// RequiresNightShift reports whether serving a client in countryCode means
// Philippine staff work nights. Without a detected location no differential
// applies.
func RequiresNightShift(countryCode string) bool {
	// Unlisted countries are Asia-Pacific markets that overlap PH daytime.
	return nightShiftCountries[strings.ToUpper(strings.TrimSpace(countryCode))]
}

// ============================================================
// Fees
// ============================================================

// Fee is a one-off setup fee plus a monthly workspace fee.
type Fee struct {
	Setup   float64
	Monthly float64
}

var workspaceFees = map[string]map[domain.WorkspaceType]Fee{
	"USD": {
		domain.WorkspaceWFH:        {Setup: 500, Monthly: 150},
		domain.WorkspaceHybrid:     {Setup: 800, Monthly: 250},
		domain.WorkspaceFullOffice: {Setup: 1200, Monthly: 350},
	},
	"AUD": {
		domain.WorkspaceWFH:        {Setup: 770, Monthly: 230},
		domain.WorkspaceHybrid:     {Setup: 1230, Monthly: 385},
		domain.WorkspaceFullOffice: {Setup: 1850, Monthly: 540},
	},
	"CAD": {
		domain.WorkspaceWFH:        {Setup: 680, Monthly: 205},
		domain.WorkspaceHybrid:     {Setup: 1090, Monthly: 340},
		domain.WorkspaceFullOffice: {Setup: 1630, Monthly: 475},
	},
	"GBP": {
		domain.WorkspaceWFH:        {Setup: 395, Monthly: 120},
		domain.WorkspaceHybrid:     {Setup: 630, Monthly: 200},
		domain.WorkspaceFullOffice: {Setup: 945, Monthly: 275},
	},
	"EUR": {
		domain.WorkspaceWFH:        {Setup: 460, Monthly: 140},
		domain.WorkspaceHybrid:     {Setup: 735, Monthly: 230},
		domain.WorkspaceFullOffice: {Setup: 1105, Monthly: 320},
	},
	"NZD": {
		domain.WorkspaceWFH:        {Setup: 835, Monthly: 250},
		domain.WorkspaceHybrid:     {Setup: 1335, Monthly: 415},
		domain.WorkspaceFullOffice: {Setup: 2000, Monthly: 585},
	},
	"PHP": {
		domain.WorkspaceWFH:        {Setup: 28000, Monthly: 8500},
		domain.WorkspaceHybrid:     {Setup: 45000, Monthly: 14000},
		domain.WorkspaceFullOffice: {Setup: 67000, Monthly: 19500},
	},
}

// WorkspaceFee returns the setup and monthly fee for a workspace type.
// Office Space is billed as a facility line item, so its per-role fees are 0.
func WorkspaceFee(currency string, ws domain.WorkspaceType) (Fee, error) {
	if !ws.Valid() {
		return Fee{}, &domain.ErrValidation{Field: "workspaceType", Message: "unknown workspace type: " + string(ws)}
	}
	table, ok := workspaceFees[NormalizeCurrency(currency)]
	if !ok {
		return Fee{}, &domain.ErrValidation{Field: "currency", Message: "unsupported currency: " + currency}
	}
	if ws == domain.WorkspaceOfficeSpace {
		return Fee{}, nil
	}
	return table[ws], nil
}

// Office sizes for the facility fee.
const (
	OfficeSmall      = "small"
	OfficeMedium     = "medium"
	OfficeLarge      = "large"
	OfficeEnterprise = "enterprise"
)

var facilityFees = map[string]map[string]float64{
	"USD": {OfficeSmall: 2500, OfficeMedium: 5000, OfficeLarge: 9000, OfficeEnterprise: 15000},
	"AUD": {OfficeSmall: 3850, OfficeMedium: 7700, OfficeLarge: 13850, OfficeEnterprise: 23100},
	"CAD": {OfficeSmall: 3400, OfficeMedium: 6800, OfficeLarge: 12250, OfficeEnterprise: 20400},
	"GBP": {OfficeSmall: 1975, OfficeMedium: 3950, OfficeLarge: 7100, OfficeEnterprise: 11850},
	"EUR": {OfficeSmall: 2300, OfficeMedium: 4600, OfficeLarge: 8300, OfficeEnterprise: 13800},
	"NZD": {OfficeSmall: 4150, OfficeMedium: 8300, OfficeLarge: 14950, OfficeEnterprise: 24900},
	"PHP": {OfficeSmall: 140000, OfficeMedium: 280000, OfficeLarge: 500000, OfficeEnterprise: 835000},
}

// FacilityFee returns the monthly office-space fee for a size.
func FacilityFee(currency, size string) (float64, error) {
	table, ok := facilityFees[NormalizeCurrency(currency)]
	if !ok {
		return 0, &domain.ErrValidation{Field: "currency", Message: "unsupported currency: " + currency}
	}
	fee, ok := table[strings.ToLower(strings.TrimSpace(size))]
	if !ok {
		return 0, &domain.ErrValidation{Field: "officeSize", Message: "unknown office size: " + size}
	}
	return fee, nil
}
