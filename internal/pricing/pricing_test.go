package pricing_test

import (
	"testing"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/pricing"
	"github.com/smartystreets/goconvey/convey"
)

func TestMultipliers(t *testing.T) {
	convey.Convey("Given the seniority tiers", t, func() {
		convey.Convey("Then each tier carries its markup", func() {
			convey.So(pricing.Multiplier(domain.LevelEntry), convey.ShouldEqual, 1.7)
			convey.So(pricing.Multiplier(domain.LevelMid), convey.ShouldEqual, 1.5)
			convey.So(pricing.Multiplier(domain.LevelSenior), convey.ShouldEqual, 1.4)
		})

		convey.Convey("Then an unknown tier is priced as entry", func() {
			convey.So(pricing.Multiplier(domain.Level("intern")), convey.ShouldEqual, 1.7)
			convey.So(pricing.HeuristicSalary(domain.Level("")), convey.ShouldEqual, 25000)
		})
	})
}

func TestWorkspaceFee(t *testing.T) {
	convey.Convey("Given USD workspace fees", t, func() {
		convey.Convey("When the role works from home", func() {
			fee, err := pricing.WorkspaceFee("usd", domain.WorkspaceWFH)

			convey.Convey("Then the monthly fee is 150", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(fee.Monthly, convey.ShouldEqual, 150)
				convey.So(fee.Setup, convey.ShouldEqual, 500)
			})
		})

		convey.Convey("When the role sits in a dedicated office space", func() {
			fee, err := pricing.WorkspaceFee("USD", domain.WorkspaceOfficeSpace)

			convey.Convey("Then both fees are zero", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(fee, convey.ShouldResemble, pricing.Fee{})
			})
		})

		convey.Convey("When the workspace type is unknown", func() {
			_, err := pricing.WorkspaceFee("USD", domain.WorkspaceType("Beach"))

			convey.Convey("Then a validation error is returned", func() {
				var verr *domain.ErrValidation
				convey.So(err, convey.ShouldHaveSameTypeAs, verr)
			})
		})
	})

	convey.Convey("Every supported currency has fees for every paid workspace type", t, func() {
		for _, c := range pricing.Currencies() {
			for _, ws := range []domain.WorkspaceType{domain.WorkspaceWFH, domain.WorkspaceHybrid, domain.WorkspaceFullOffice} {
				fee, err := pricing.WorkspaceFee(c, ws)
				convey.So(err, convey.ShouldBeNil)
				convey.So(fee.Monthly, convey.ShouldBeGreaterThan, 0)
				convey.So(fee.Setup, convey.ShouldBeGreaterThan, fee.Monthly)
			}
			_, err := pricing.FacilityFee(c, pricing.OfficeSmall)
			convey.So(err, convey.ShouldBeNil)
			_, err = pricing.StaticRate(c)
			convey.So(err, convey.ShouldBeNil)
		}
	})
}

func TestFacilityFee(t *testing.T) {
	convey.Convey("Given a facility size", t, func() {
		fee, err := pricing.FacilityFee("USD", " Medium ")
		convey.So(err, convey.ShouldBeNil)
		convey.So(fee, convey.ShouldEqual, 5000)

		_, err = pricing.FacilityFee("USD", "galactic")
		convey.So(err, convey.ShouldNotBeNil)

		_, err = pricing.FacilityFee("JPY", pricing.OfficeSmall)
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestRequiresNightShift(t *testing.T) {
	convey.Convey("Given a client market", t, func() {
		convey.So(pricing.RequiresNightShift("US"), convey.ShouldBeTrue)
		convey.So(pricing.RequiresNightShift(" gb"), convey.ShouldBeTrue)
		convey.So(pricing.RequiresNightShift("AU"), convey.ShouldBeFalse)
		convey.So(pricing.RequiresNightShift("SG"), convey.ShouldBeFalse)
		convey.So(pricing.RequiresNightShift("PH"), convey.ShouldBeFalse)

		convey.Convey("When no location was detected", func() {
			convey.So(pricing.RequiresNightShift(""), convey.ShouldBeFalse)
		})
	})
}

func TestCurrencies(t *testing.T) {
	convey.Convey("Given the currency tables", t, func() {
		convey.So(pricing.Symbol("gbp"), convey.ShouldEqual, "£")
		convey.So(pricing.Symbol("JPY"), convey.ShouldEqual, "JPY")
		convey.So(pricing.CurrencyForCountry("de"), convey.ShouldEqual, "EUR")
		convey.So(pricing.CurrencyForCountry("JP"), convey.ShouldEqual, "")
		convey.So(pricing.Supported("php"), convey.ShouldBeTrue)

		rate, err := pricing.StaticRate("USD")
		convey.So(err, convey.ShouldBeNil)
		convey.So(rate, convey.ShouldEqual, 0.018)
	})
}
