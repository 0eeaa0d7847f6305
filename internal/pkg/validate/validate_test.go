package validate

import (
	"testing"

	"github.com/go-consult-auth/internal/domain"
	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code,omitempty" validate:"omitempty,numeric,len=6"`
	Internal string `json:"-" validate:"omitempty,min=2"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(sample{Email: "a@x.com", Code: "123456"}))
}

func TestStruct_UsesJSONNamesAndWrapsBadRequest(t *testing.T) {
	err := Struct(sample{Email: "nope", Code: "12"})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	assert.Contains(t, err.Error(), "field 'email' failed 'email'")
	assert.Contains(t, err.Error(), "field 'code' failed 'len'")
}
