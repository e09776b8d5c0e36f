package model

import (
	"encoding/json"
	"sort"
	"testing"
	"time"
)

func sampleFields() VillaFields {
	return VillaFields{
		Name:         "Villa Real",
		Detail:       "Detalle de la Villa",
		ImageURL:     "https://example.com/real.jpg",
		Occupants:    5,
		Rate:         200,
		SquareMeters: 50,
		Amenity:      "piscina",
	}
}

func TestCreateRoundTrip(t *testing.T) {
	in := VillaCreateDTO{VillaFields: sampleFields()}

	v := FromCreateDTO(in)
	if v.ID != 0 {
		t.Errorf("expected unsaved villa to have ID 0, got %d", v.ID)
	}

	out := ToDTO(&v)
	if out.VillaFields != in.VillaFields {
		t.Errorf("round trip changed fields: got %+v, want %+v", out.VillaFields, in.VillaFields)
	}
}

func TestFromCreateDTOIgnoresID(t *testing.T) {
	v := FromCreateDTO(VillaCreateDTO{ID: 42, VillaFields: sampleFields()})
	if v.ID != 0 {
		t.Errorf("expected ID 0, got %d", v.ID)
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	stored := Villa{
		ID:          7,
		VillaFields: sampleFields(),
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	view := ToUpdateDTO(&stored)
	if view.ID != 7 || view.VillaFields != stored.VillaFields {
		t.Fatalf("unexpected update view: %+v", view)
	}

	back := FromUpdateDTO(view)
	if back.ID != 7 || back.VillaFields != stored.VillaFields {
		t.Errorf("unexpected entity: %+v", back)
	}
	if !back.CreatedAt.IsZero() || !back.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be left for the caller to set")
	}
}

func TestToDTOs(t *testing.T) {
	villas := []Villa{
		{ID: 1, VillaFields: VillaFields{Name: "A"}},
		{ID: 2, VillaFields: VillaFields{Name: "B"}},
	}
	dtos := ToDTOs(villas)
	if len(dtos) != 2 || dtos[0].ID != 1 || dtos[1].Name != "B" {
		t.Errorf("unexpected DTOs: %+v", dtos)
	}
	if got := ToDTOs(nil); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestReadViewJSONNames(t *testing.T) {
	data, err := json.Marshal(VillaDTO{ID: 1, VillaFields: sampleFields()})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := jsonKeys(t, data)
	want := []string{"amenidad", "detalle", "id", "imagenUrl", "metrosCuadrados", "nombre", "ocupantes", "tarifa"}
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keys = %v, want %v", got, want)
			break
		}
	}
}

// Every JSON member of the update view must be addressable by a patch.
func TestUpdateSchemaCoversView(t *testing.T) {
	data, err := json.Marshal(VillaUpdateDTO{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	keys := jsonKeys(t, data)

	names := UpdateSchema.Names()
	sort.Strings(names)

	if len(keys) != len(names) {
		t.Fatalf("view has %v, schema has %v", keys, names)
	}
	for i := range keys {
		if keys[i] != names[i] {
			t.Errorf("view has %v, schema has %v", keys, names)
			break
		}
	}
}

func jsonKeys(t *testing.T, data []byte) []string {
	t.Helper()
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
