package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type patchDTO struct {
	Name     *string  `json:"name"`
	Price    *float64 `json:"unit_price"`
	Ignored  *string  `json:"-"`
	NoTag    *string
	Untagged string `json:"untagged"`
}

func TestUpdatesFromPtrDTO(t *testing.T) {
	name := "  Hosting "
	price := 99.999

	dto := patchDTO{Name: &name, Price: &price}
	NormalizePtrDTO(&dto)

	updates := UpdatesFromPtrDTO(&dto, nil)
	assert.Equal(t, map[string]any{
		"name":       "Hosting",
		"unit_price": 100.0,
	}, updates)
}

func TestUpdatesFromPtrDTOSkipsNils(t *testing.T) {
	updates := UpdatesFromPtrDTO(&patchDTO{}, nil)
	assert.Empty(t, updates)
}

func TestUpdatesFromPtrDTORenames(t *testing.T) {
	name := "x"
	updates := UpdatesFromPtrDTO(&patchDTO{Name: &name}, map[string]string{"name": "display_name"})
	assert.Equal(t, map[string]any{"display_name": "x"}, updates)
}
