package validator

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/google/uuid"
	"github.com/guregu/null/v6"

	"github.com/ciyex-org/ciyex-platform-sdk/internal/model"
)

var (
	once     sync.Once
	validate *CustomValidator
)

// CustomValidator adapts go-playground/validator to echo.Validator and turns
// failures into model.ErrValidation with translated field messages.
type CustomValidator struct {
	trans     ut.Translator
	validator *validator.Validate
}

func New() (*CustomValidator, error) {
	locale := en.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("en")

	v := validator.New(validator.WithRequiredStructEnabled())
	if err := entranslations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, fmt.Errorf("failed to register translations: %w", err)
	}

	// Optional upload metadata arrives as null.String.
	v.RegisterCustomTypeFunc(ParseNullable, null.String{}, null.Int64{}, uuid.NullUUID{})

	if err := v.RegisterValidation("objectkey", validObjectKey); err != nil {
		return nil, fmt.Errorf("failed to register objectkey: %w", err)
	}
	err := v.RegisterTranslation("objectkey", trans,
		func(ut ut.Translator) error {
			return ut.Add("objectkey", "{0} must be a relative object path without empty, '.' or '..' segments", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T("objectkey", fe.Field())
			return msg
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register objectkey translation: %w", err)
	}

	return &CustomValidator{trans: trans, validator: v}, nil
}

func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if valErr, ok := err.(validator.ValidationErrors); ok {
		text, err := sonic.Marshal(valErr.Translate(cv.trans))
		if err != nil {
			return valErr
		}
		return model.ErrValidation.Fmt(string(text))
	}

	return err
}

type Nullable interface {
	driver.Valuer
}

// Workaround for omitnil not working with "untyped nil"
// https://github.com/go-playground/validator/issues/1209#issuecomment-1892359649
var nilValue *struct{}

// ParseNullable implements validator.CustomTypeFunc
func ParseNullable(field reflect.Value) interface{} {
	if nullValue, ok := field.Interface().(Nullable); ok {
		if val, err := nullValue.Value(); err == nil {
			if val == nil {
				return nilValue
			}
			return val
		}
	}

	return nil
}

// validObjectKey accepts relative slash-separated storage paths.
func validObjectKey(fl validator.FieldLevel) bool {
	key := fl.Field().String()
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}

// Validate checks i with the shared validator instance.
func Validate(i any) error {
	once.Do(func() {
		var err error
		validate, err = New()
		if err != nil {
			panic(fmt.Sprintf("failed to create validator: %v", err))
		}
	})
	return validate.Validate(i)
}
