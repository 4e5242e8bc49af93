package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bindForm struct {
	Slug  string `json:"slug" binding:"required,slug"`
	Title string `json:"title" binding:"required"`
}

type validateForm struct {
	Slug string `json:"slug" validate:"slug"`
}

func TestCustomValidator_ValidateStruct(t *testing.T) {
	v := NewCustomValidator()

	assert.NoError(t, v.ValidateStruct(&bindForm{Slug: "normal-sodium", Title: "Sodium"}))
	assert.NoError(t, v.ValidateStruct(nil))

	err := v.ValidateStruct(bindForm{Slug: "Bad Slug", Title: "x"})
	require.Error(t, err)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "slug", verrs[0].Tag())

	_, ok := v.Engine().(*validator.Validate)
	assert.True(t, ok)
}

func TestNew_UsesJSONNames(t *testing.T) {
	err := New().Struct(validateForm{Slug: "-x"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "slug", verrs[0].Field())
}

func TestIsSlug(t *testing.T) {
	tests := map[string]bool{
		"cbc":            true,
		"complete-blood": true,
		"a1-b2":          true,
		"":               false,
		"UPPER":          false,
		"double--dash":   false,
		"trailing-":      false,
	}
	for in, want := range tests {
		assert.Equal(t, want, IsSlug(in), in)
	}
}
