package model

import (
	"time"

	"field-service/internal/geo"
)

// Field is a named plot of land with an optional boundary. Area is always
// derived from the boundary, never entered by hand.
type Field struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Area        float64   `gorm:"not null;default:0" json:"area"`
	CurrentCrop string    `gorm:"type:varchar(255);not null" json:"currentCrop"`
	Polygon     geo.Ring  `gorm:"type:text;serializer:json" json:"polygon,omitempty"`
	GeometryWKT string    `gorm:"type:text" json:"-"`
	CentroidLat *float64  `json:"centroidLat,omitempty"`
	CentroidLon *float64  `json:"centroidLon,omitempty"`
	ImageURL    string    `gorm:"type:text" json:"imageUrl"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (Field) TableName() string {
	return "fields"
}

// ApplyBoundary replaces the boundary and recomputes every derived column.
func (f *Field) ApplyBoundary(ring geo.Ring) {
	f.Polygon = ring.Clone()
	f.Area = geo.AreaHectares(ring)
	f.GeometryWKT = geo.WKT(ring)
	f.CentroidLat, f.CentroidLon = nil, nil
	if c, ok := geo.Centroid(ring); ok {
		lat, lon := c.Lat, c.Lon
		f.CentroidLat, f.CentroidLon = &lat, &lon
	}
}

// CropHistory is a read-only record of what grew on a field in a given year.
type CropHistory struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	FieldID uint   `gorm:"not null;index" json:"fieldId"`
	Year    int    `gorm:"not null" json:"year"`
	Crop    string `gorm:"type:varchar(255);not null" json:"crop"`
}

func (CropHistory) TableName() string {
	return "crop_history"
}
