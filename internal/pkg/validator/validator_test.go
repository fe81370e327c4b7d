package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name string `json:"name" validate:"required"`
	Day  string `json:"day" validate:"omitempty,date"`
	Pct  int    `json:"pct" validate:"min=1,max=100"`
}

func TestValidate_UsesJSONNames(t *testing.T) {
	errs := Validate(sample{Day: "2025-13-40", Pct: 0})

	require.NotNil(t, errs)
	assert.Equal(t, "required", errs["name"])
	assert.Equal(t, "date", errs["day"])
	assert.Equal(t, "min", errs["pct"])
}

func TestValidate_OK(t *testing.T) {
	assert.Nil(t, Validate(sample{Name: "x", Day: "2025-06-01", Pct: 100}))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2025-06-01 ")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", d.Format(DateLayout))

	_, err = ParseDate("06/01/2025")
	assert.Error(t, err)
}
