package analytics

import (
	"sort"

	"field-service/internal/model"
	"field-service/internal/utils"
)

// fallowCrop marks a field left unsown for the season.
const fallowCrop = "пар"

type CropShare struct {
	Crop       string  `json:"crop"`
	TotalArea  float64 `json:"totalArea"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type PortfolioSummary struct {
	TotalFields   int         `json:"totalFields"`
	TotalArea     float64     `json:"totalArea"`
	CropStructure []CropShare `json:"cropStructure"`
}

// Portfolio summarises all fields. Crop shares are percentages of the sown
// area; fallow fields count towards the total area only.
func Portfolio(fields []model.Field) PortfolioSummary {
	summary := PortfolioSummary{CropStructure: []CropShare{}}
	if len(fields) == 0 {
		return summary
	}

	var totalArea, sownArea float64
	byCrop := make(map[string]*CropShare)
	var order []string
	for _, f := range fields {
		totalArea += f.Area
		if utils.NormalizeLabel(f.CurrentCrop) == fallowCrop {
			continue
		}
		sownArea += f.Area
		share, ok := byCrop[f.CurrentCrop]
		if !ok {
			share = &CropShare{Crop: f.CurrentCrop}
			byCrop[f.CurrentCrop] = share
			order = append(order, f.CurrentCrop)
		}
		share.TotalArea += f.Area
		share.Count++
	}

	for _, crop := range order {
		share := byCrop[crop]
		if sownArea > 0 {
			share.Percentage = share.TotalArea / sownArea * 100
		}
		summary.CropStructure = append(summary.CropStructure, *share)
	}
	sort.SliceStable(summary.CropStructure, func(i, j int) bool {
		return summary.CropStructure[i].TotalArea > summary.CropStructure[j].TotalArea
	})

	summary.TotalFields = len(fields)
	summary.TotalArea = round2(totalArea)
	return summary
}
