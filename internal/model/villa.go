package model

import (
	"time"

	"golang.org/x/text/cases"
)

// VillaFields holds the descriptive fields shared by the stored villa and
// every transfer view. JSON names are part of the public API.
type VillaFields struct {
	Name         string  `json:"nombre" validate:"notblank,max=30"`
	Detail       string  `json:"detalle"`
	ImageURL     string  `json:"imagenUrl" validate:"omitempty,max=500"`
	Occupants    int     `json:"ocupantes" validate:"min=0"`
	Rate         float64 `json:"tarifa" validate:"min=0"`
	SquareMeters float64 `json:"metrosCuadrados" validate:"min=0"`
	Amenity      string  `json:"amenidad"`
}

// Villa is a rentable property as persisted.
type Villa struct {
	ID int64 `json:"id"`
	VillaFields
	CreatedAt time.Time `json:"fechaCreacion"`
	UpdatedAt time.Time `json:"fechaActualizacion"`
}

// VillaDTO is the read view returned to clients.
type VillaDTO struct {
	ID int64 `json:"id"`
	VillaFields
}

// VillaCreateDTO is the create request body. The identity is assigned by the
// store; ID is only decoded so a caller-supplied value can be rejected.
type VillaCreateDTO struct {
	ID int64 `json:"id,omitempty"`
	VillaFields
}

// VillaUpdateDTO is the replace request body and the working copy patches are
// applied to.
type VillaUpdateDTO struct {
	ID int64 `json:"id"`
	VillaFields
}

// NameKey is the case-folded form of a villa name. Two names are the same
// villa name when their keys are equal.
func NameKey(name string) string {
	// A Caser is stateful, so each call gets its own.
	return cases.Fold().String(name)
}
