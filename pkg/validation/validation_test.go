package validation_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/attest/pkg/validation"
)

func TestErrorsAccumulate(t *testing.T) {
	var v validation.Errors
	v.Required("type_name", "  ")
	v.Required("spec_link", "")
	v.Check(false, "verifiers", "must not be empty")
	v.Required("display_name", "ok")

	err := v.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, validation.ErrInvalidInput))

	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{
		"type_name: must not be blank",
		"spec_link: must not be blank",
		"verifiers: must not be empty",
	}, verr.Messages)
	assert.Contains(t, err.Error(), "type_name: must not be blank; spec_link")
}

func TestErrorsEmpty(t *testing.T) {
	var v validation.Errors
	v.Required("field", "value")
	assert.NoError(t, v.Err())
	assert.Equal(t, 0, v.Len())
}

func TestErrorsMerge(t *testing.T) {
	var inner validation.Errors
	inner.Addf("amount", "must be greater than %d", 0)

	var outer validation.Errors
	outer.Merge("verifiers[0].", &inner)

	var verr *validation.Error
	require.True(t, errors.As(outer.Err(), &verr))
	assert.Equal(t, []string{"verifiers[0].amount: must be greater than 0"}, verr.Messages)
}

func TestMapHTTPStatus(t *testing.T) {
	var v validation.Errors
	v.Add("x", "bad")

	status, ok := validation.MapHTTPStatus(v.Err())
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, status)

	_, ok = validation.MapHTTPStatus(errors.New("other"))
	assert.False(t, ok)
}

func TestBlank(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{" \t\n", true},
		{"a", false},
		{"  a  ", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, validation.Blank(tt.in), "input %q", tt.in)
	}
}
