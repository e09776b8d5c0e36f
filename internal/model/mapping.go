package model

import "github.com/erazemk/magicvilla/internal/patch"

// ToDTO converts a stored villa to its read view.
func ToDTO(v *Villa) VillaDTO {
	return VillaDTO{ID: v.ID, VillaFields: v.VillaFields}
}

// ToDTOs converts a list of stored villas, preserving order.
func ToDTOs(villas []Villa) []VillaDTO {
	out := make([]VillaDTO, len(villas))
	for i := range villas {
		out[i] = ToDTO(&villas[i])
	}
	return out
}

// FromCreateDTO builds an unsaved villa from a create request. The ID is
// always left zero.
func FromCreateDTO(d VillaCreateDTO) Villa {
	return Villa{VillaFields: d.VillaFields}
}

// FromUpdateDTO builds a villa from a replace request or patched working copy.
func FromUpdateDTO(d VillaUpdateDTO) Villa {
	return Villa{ID: d.ID, VillaFields: d.VillaFields}
}

// ToUpdateDTO converts a stored villa into a patchable working copy.
func ToUpdateDTO(v *Villa) VillaUpdateDTO {
	return VillaUpdateDTO{ID: v.ID, VillaFields: v.VillaFields}
}

// UpdateSchema lists the fields of VillaUpdateDTO a patch document may
// address. The identity can be tested but not changed.
var UpdateSchema = patch.NewSchema(
	patch.ReadOnly("id", func(d *VillaUpdateDTO) *int64 { return &d.ID }),
	patch.Member("nombre", func(d *VillaUpdateDTO) *string { return &d.Name }),
	patch.Member("detalle", func(d *VillaUpdateDTO) *string { return &d.Detail }),
	patch.Member("imagenUrl", func(d *VillaUpdateDTO) *string { return &d.ImageURL }),
	patch.Member("ocupantes", func(d *VillaUpdateDTO) *int { return &d.Occupants }),
	patch.Member("tarifa", func(d *VillaUpdateDTO) *float64 { return &d.Rate }),
	patch.Member("metrosCuadrados", func(d *VillaUpdateDTO) *float64 { return &d.SquareMeters }),
	patch.Member("amenidad", func(d *VillaUpdateDTO) *string { return &d.Amenity }),
)
