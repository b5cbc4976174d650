package validator

import (
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"

	"github.com/ciyex-org/ciyex-platform-sdk/internal/model"
)

type keyed struct {
	Key  string      `validate:"objectkey"`
	Name null.String `validate:"omitempty,max=5"`
}

func TestObjectKey(t *testing.T) {
	valid := []string{"a", "org/a.txt", "a/b/c.d", "..a/b"}
	for _, key := range valid {
		assert.NoError(t, Validate(keyed{Key: key}), key)
	}

	invalid := []string{"", "/abs", "a//b", "a/./b", "../up", "a/..", "win\\path", "trailing/"}
	for _, key := range invalid {
		err := Validate(keyed{Key: key})
		assert.True(t, model.HasCode(err, model.ErrValidation.Code()), key)
	}
}

func TestObjectKeyMessageIsTranslated(t *testing.T) {
	err := Validate(keyed{Key: "../x"})
	assert.ErrorContains(t, err, "relative object path")
}

func TestNullStringValidation(t *testing.T) {
	assert.NoError(t, Validate(keyed{Key: "k"}))
	assert.NoError(t, Validate(keyed{Key: "k", Name: null.StringFrom("abc")}))
	assert.Error(t, Validate(keyed{Key: "k", Name: null.StringFrom("toolong")}))
}
