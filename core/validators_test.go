package core

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsoDateValidation(t *testing.T) {
	validate := validator.New()
	InitValidators(validate, NewTranslator())

	tests := []struct {
		value string
		valid bool
	}{
		{"2024-09-10", true},
		{"2024-09-10T00:00:00Z", true},
		{"2024-09-10 08:30:00.000Z", true},
		{"2024-02-30", false},
		{"10/09/2024", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := validate.Var(tt.value, "isodate")
			assert.Equal(t, tt.valid, err == nil, "%v", err)
		})
	}
}

func TestTranslateFieldError(t *testing.T) {
	validate := validator.New()
	translator := NewTranslator()
	InitValidators(validate, translator)

	err := validate.Var("not-an-email", "email")
	require.Error(t, err)
	fe := TranslateFieldError("email", err.(validator.ValidationErrors)[0], translator)
	assert.Equal(t, FieldError{Field: "email", Error: "email must be a valid email address"}, fe)

	type payload struct {
		Date string `json:"term_start_date" validate:"required"`
	}
	err = validate.Struct(payload{})
	require.Error(t, err)
	fe = TranslateFieldError("term_start_date", err.(validator.ValidationErrors)[0], translator)
	assert.Equal(t, "term_start_date is required", fe.Error)
}

func TestValidationError(t *testing.T) {
	err := NewValidationError(assert.AnError,
		FieldError{Field: "email", Error: "bad"},
		FieldError{Field: "name", Error: "missing"},
	)
	assert.True(t, IsValidationError(err))
	assert.Equal(t, assert.AnError.Error(), err.Error())
	assert.Equal(t, map[string]string{"email": "bad", "name": "missing"}, err.(*ValidationError).FieldMap())
	assert.Nil(t, NewValidationError(assert.AnError).(*ValidationError).FieldMap())
	assert.False(t, IsValidationError(assert.AnError))
}

func TestSnakeCase(t *testing.T) {
	assert.Equal(t, "email_address", SnakeCase("  Email Address "))
	assert.Equal(t, "respond_in_2_days", SnakeCase("Respond in 2 days?"))
	assert.Equal(t, "verify_timetable_accuracy_by_week1", SnakeCase("Verify_Timetable_Accuracy_By_Week1"))
}
