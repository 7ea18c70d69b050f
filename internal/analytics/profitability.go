package analytics

import (
	"math"
	"strconv"
	"strings"
)

const centnersPerTonne = 10.0

// Projection is a what-if revenue and profit estimate. When Computable is
// false the figures are meaningless and should not be shown.
type Projection struct {
	Computable   bool    `json:"computable"`
	RevenuePerHa float64 `json:"revenuePerHa"`
	ProfitPerHa  float64 `json:"profitPerHa"`
	TotalRevenue float64 `json:"totalRevenue"`
	TotalProfit  float64 `json:"totalProfit"`
}

// ProjectProfitability estimates revenue and profit from a planned yield in
// centners per hectare and a price per tonne. A field without area yields
// an all-zero projection.
func ProjectProfitability(costPerHa, area, plannedYield, plannedPrice float64) Projection {
	if !finite(costPerHa, area, plannedYield, plannedPrice) {
		return Projection{}
	}
	p := Projection{Computable: true}
	if area <= 0 {
		return p
	}
	p.RevenuePerHa = plannedYield / centnersPerTonne * plannedPrice
	p.ProfitPerHa = p.RevenuePerHa - costPerHa
	p.TotalRevenue = p.RevenuePerHa * area
	p.TotalProfit = p.ProfitPerHa * area
	return p
}

// ParseFloat reads a number typed into a form. Both "12.5" and "12,5" are
// accepted; anything else, including NaN and infinities, is rejected.
func ParseFloat(raw string) (float64, bool) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || !finite(v) {
		return 0, false
	}
	return v, true
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
