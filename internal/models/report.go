package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const ReportCollection = "reportes"

type ReportStatus string

const (
	ReportPending  ReportStatus = "Pendiente"
	ReportInReview ReportStatus = "En Revisión"
	ReportResolved ReportStatus = "Resuelto"
)

// GeoPoint is a GeoJSON point; coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// Report is a geolocated citizen report. Deletion by the author is
// interpreted as "resolved".
type Report struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	AuthorID    primitive.ObjectID `bson:"autor" json:"autor"`
	Description string             `bson:"descripcion" json:"descripcion"`
	Location    GeoPoint           `bson:"ubicacion" json:"ubicacion"`
	ImagePath   string             `bson:"urlFoto" json:"urlFoto"`
	Status      ReportStatus       `bson:"estado" json:"estado"`
}
