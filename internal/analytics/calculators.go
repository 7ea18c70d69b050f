package analytics

import (
	"errors"
	"math"
)

var ErrNotComputable = errors.New("inputs are not computable")

// SeedingRate returns the seeding rate in kg/ha from the target density in
// million plants per hectare, the thousand-seed weight in grams and the
// germination percentage.
func SeedingRate(densityMillions, thousandSeedWeight, germination float64) (float64, error) {
	if !finite(densityMillions, thousandSeedWeight, germination) || germination <= 0 {
		return 0, ErrNotComputable
	}
	return round1(densityMillions * thousandSeedWeight / (germination / 100)), nil
}

// Nutrients is an NPK amount in kilograms.
type Nutrients struct {
	N float64 `json:"n"`
	P float64 `json:"p"`
	K float64 `json:"k"`
}

type FertilizerNeed struct {
	PerHectare Nutrients `json:"perHectare"`
	Total      Nutrients `json:"total"`
}

// FertilizerRequirement computes the NPK removed by a planned yield, given
// per-tonne removal in kilograms.
func FertilizerRequirement(plannedYield, area float64, removal Nutrients) (FertilizerNeed, error) {
	inputs := []float64{plannedYield, area, removal.N, removal.P, removal.K}
	if !finite(inputs...) {
		return FertilizerNeed{}, ErrNotComputable
	}
	for _, v := range inputs {
		if v < 0 {
			return FertilizerNeed{}, ErrNotComputable
		}
	}

	tonnes := plannedYield / centnersPerTonne
	perHa := Nutrients{N: tonnes * removal.N, P: tonnes * removal.P, K: tonnes * removal.K}
	return FertilizerNeed{
		PerHectare: perHa,
		Total:      Nutrients{N: perHa.N * area, P: perHa.P * area, K: perHa.K * area},
	}, nil
}

type ProfitabilityResult struct {
	TotalCost     float64 `json:"totalCost"`
	Profit        float64 `json:"profit"`
	Profitability float64 `json:"profitability"`
}

// Profitability compares revenue per hectare with the listed per-hectare
// costs. Profitability is a percentage of cost, rounded to one decimal.
func Profitability(revenue float64, costs ...float64) (ProfitabilityResult, error) {
	if !finite(revenue) || !finite(costs...) {
		return ProfitabilityResult{}, ErrNotComputable
	}
	var res ProfitabilityResult
	for _, c := range costs {
		res.TotalCost += c
	}
	res.Profit = revenue - res.TotalCost
	if res.TotalCost > 0 {
		res.Profitability = round1(res.Profit / res.TotalCost * 100)
	}
	return res, nil
}

// Nozzle is a flat-fan spray tip with its rated flow in l/min at 3 bar.
type Nozzle struct {
	Name       string  `json:"name"`
	Color      string  `json:"color"`
	FlowAt3Bar float64 `json:"flowAt3Bar"`
}

var Nozzles = []Nozzle{
	{Name: "ISO 110-01", Color: "Оранжевая", FlowAt3Bar: 0.39},
	{Name: "ISO 110-015", Color: "Зеленая", FlowAt3Bar: 0.58},
	{Name: "ISO 110-02", Color: "Желтая", FlowAt3Bar: 0.78},
	{Name: "ISO 110-03", Color: "Синяя", FlowAt3Bar: 1.17},
	{Name: "ISO 110-04", Color: "Красная", FlowAt3Bar: 1.56},
	{Name: "ISO 110-05", Color: "Коричневая", FlowAt3Bar: 1.95},
	{Name: "ISO 110-06", Color: "Серая", FlowAt3Bar: 2.34},
}

const nozzleSpacingMeters = 0.5

// SprayRate returns the application rate in l/ha for a nozzle index into
// Nozzles, tractor speed in km/h and pressure in bar.
func SprayRate(nozzle int, speed, pressure float64) (float64, error) {
	if nozzle < 0 || nozzle >= len(Nozzles) || !finite(speed, pressure) || speed <= 0 || pressure <= 0 {
		return 0, ErrNotComputable
	}
	flow := Nozzles[nozzle].FlowAt3Bar * math.Sqrt(pressure/3)
	return round1(flow * 600 / (speed * nozzleSpacingMeters)), nil
}
