// Package analytics derives cost structure, profitability projections and
// agronomic calculator results from field records. Nothing here is stored;
// every result is recomputed from its inputs.
package analytics

import (
	"sort"
	"strings"

	"field-service/internal/model"
	"field-service/internal/utils"
)

type Bucket string

const (
	BucketSeeds          Bucket = "Seeds"
	BucketFertilizer     Bucket = "Fertilizer"
	BucketCropProtection Bucket = "CropProtection"
	BucketSoilTreatment  Bucket = "SoilTreatment"
	BucketHarvest        Bucket = "Harvest"
	BucketOther          Bucket = "Other"
)

// Order matters: the first bucket with a matching keyword wins.
var bucketKeywords = []struct {
	bucket   Bucket
	keywords []string
}{
	{BucketSeeds, []string{"посев", "семена", "seed", "sowing"}},
	{BucketFertilizer, []string{"удобр", "подкормка", "fertiliz"}},
	{BucketCropProtection, []string{"гербицид", "инсектицид", "фунгицид", "herbicide", "insecticide", "fungicide"}},
	{BucketSoilTreatment, []string{"вспашка", "дискование", "культивация", "plough", "plow", "disking", "cultivat"}},
	{BucketHarvest, []string{"уборка", "harvest"}},
}

var bucketRank = map[Bucket]int{
	BucketSeeds:          0,
	BucketFertilizer:     1,
	BucketCropProtection: 2,
	BucketSoilTreatment:  3,
	BucketHarvest:        4,
	BucketOther:          5,
}

var bucketLabels = map[Bucket]string{
	BucketSeeds:          "Семена",
	BucketFertilizer:     "Удобрения",
	BucketCropProtection: "СЗР",
	BucketSoilTreatment:  "Обработка почвы",
	BucketHarvest:        "Уборка",
	BucketOther:          "Прочее",
}

// Label is the Russian display name of the bucket.
func (b Bucket) Label() string {
	return bucketLabels[b]
}

// Classify assigns a free-text operation type to a cost bucket.
func Classify(operationType string) Bucket {
	normalized := utils.NormalizeLabel(operationType)
	for _, candidate := range bucketKeywords {
		for _, keyword := range candidate.keywords {
			if strings.Contains(normalized, keyword) {
				return candidate.bucket
			}
		}
	}
	return BucketOther
}

type CostBucket struct {
	Bucket     Bucket  `json:"bucket"`
	Label      string  `json:"label"`
	Cost       float64 `json:"cost"`
	Percentage float64 `json:"percentage"`
	Operations int     `json:"operations"`
}

type CostSummary struct {
	TotalCost      float64      `json:"totalCost"`
	CostPerHectare float64      `json:"costPerHectare"`
	Buckets        []CostBucket `json:"buckets"`
}

// AggregateCosts sums operation costs and breaks them down by bucket. Only
// buckets that received an operation are listed, most expensive first.
func AggregateCosts(ops []model.FieldOperation, area float64) CostSummary {
	summary := CostSummary{Buckets: []CostBucket{}}

	byBucket := make(map[Bucket]*CostBucket)
	for _, op := range ops {
		cost := op.CostValue()
		summary.TotalCost += cost

		bucket := Classify(op.Type)
		entry, ok := byBucket[bucket]
		if !ok {
			entry = &CostBucket{Bucket: bucket, Label: bucket.Label()}
			byBucket[bucket] = entry
		}
		entry.Cost += cost
		entry.Operations++
	}

	if area > 0 {
		summary.CostPerHectare = summary.TotalCost / area
	}

	for _, entry := range byBucket {
		if summary.TotalCost > 0 {
			entry.Percentage = entry.Cost / summary.TotalCost * 100
		}
		summary.Buckets = append(summary.Buckets, *entry)
	}
	sort.Slice(summary.Buckets, func(i, j int) bool {
		a, b := summary.Buckets[i], summary.Buckets[j]
		if a.Cost != b.Cost {
			return a.Cost > b.Cost
		}
		return bucketRank[a.Bucket] < bucketRank[b.Bucket]
	})

	return summary
}
