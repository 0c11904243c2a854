package http

import (
	"encoding/json"
	"reflect"
	"strings"

	cn "github.com/thirdway-labs/modelctl/common/constant"
	"github.com/google/uuid"

	"github.com/thirdway-labs/modelctl/common"

	"github.com/gofiber/fiber/v2"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	en2 "github.com/go-playground/validator/translations/en"

	"gopkg.in/go-playground/validator.v9"
)

// DecodeHandlerFunc is a handler which works with withBody decorator.
// It receives a struct which was decoded by withBody decorator before.
// Ex: json -> withBody -> DecodeHandlerFunc.
type DecodeHandlerFunc func(p any, c *fiber.Ctx) error

// PayloadContextValue is a wrapper type used to keep Context.Locals safe.
type PayloadContextValue string

// ConstructorFunc representing a constructor of any type.
type ConstructorFunc func() any

// decoderHandler decodes payload coming from requests.
type decoderHandler struct {
	handler      DecodeHandlerFunc
	constructor  ConstructorFunc
	structSource any
}

func newOfType(s any) any {
	t := reflect.TypeOf(s)
	v := reflect.New(t.Elem())

	return v.Interface()
}

// FiberHandlerFunc decodes the request body into a Go struct, rejects fields
// the struct doesn't recognize, validates it, and calls the wrapped handler.
func (d *decoderHandler) FiberHandlerFunc(c *fiber.Ctx) error {
	var s any

	if d.constructor != nil {
		s = d.constructor()
	} else {
		s = newOfType(d.structSource)
	}

	bodyBytes := c.Body()

	if err := json.Unmarshal(bodyBytes, s); err != nil {
		return BadRequest(c, ValidationKnownFieldsError{
			Code:    cn.ErrMissingFieldsInRequest.Error(),
			Title:   "Malformed Request Body",
			Message: "The request body could not be parsed as JSON.",
		})
	}

	if unknown := unknownFields(bodyBytes, s); len(unknown) > 0 {
		return BadRequest(c, ValidationUnknownFieldsError{
			Code:    cn.ErrMissingFieldsInRequest.Error(),
			Title:   "Unrecognized Fields In Request",
			Message: "The request contains fields the server does not recognize.",
			Fields:  unknown,
		})
	}

	if err := ValidateStruct(s); err != nil {
		return BadRequest(c, err)
	}

	return d.handler(s, c)
}

// WithDecode wraps a handler function, providing it with a struct instance created using the provided constructor function.
func WithDecode(c ConstructorFunc, h DecodeHandlerFunc) fiber.Handler {
	d := &decoderHandler{
		handler:     h,
		constructor: c,
	}

	return d.FiberHandlerFunc
}

// WithBody wraps a handler function, providing it with an instance of the specified struct.
func WithBody(s any, h DecodeHandlerFunc) fiber.Handler {
	d := &decoderHandler{
		handler:      h,
		structSource: s,
	}

	return d.FiberHandlerFunc
}

// SetBodyInContext is a higher-order function that wraps a Fiber handler, injecting the decoded body into the request context.
func SetBodyInContext(handler fiber.Handler) DecodeHandlerFunc {
	return func(s any, c *fiber.Ctx) error {
		c.Locals(string(PayloadContextValue("payload")), s)
		return handler(c)
	}
}

// GetPayloadFromContext retrieves the decoded request payload from the Fiber context.
func GetPayloadFromContext(c *fiber.Ctx) any {
	return c.Locals(string(PayloadContextValue("payload")))
}

// unknownFields returns JSON object keys present in body but not recognized
// by s's json tags, one level deep.
func unknownFields(body []byte, s any) UnknownFields {
	var originalMap, marshaledMap map[string]any

	if err := json.Unmarshal(body, &originalMap); err != nil {
		return nil
	}

	marshaled, err := json.Marshal(s)
	if err != nil {
		return nil
	}

	if err := json.Unmarshal(marshaled, &marshaledMap); err != nil {
		return nil
	}

	diff := make(UnknownFields)

	for key, value := range originalMap {
		if _, ok := marshaledMap[key]; !ok {
			diff[key] = value
		}
	}

	return diff
}

// ValidateStruct validates a struct against its `validate` tags, using the go-playground validator.
func ValidateStruct(s any) error {
	v, trans := newValidator()

	k := reflect.ValueOf(s).Kind()
	if k == reflect.Ptr {
		k = reflect.ValueOf(s).Elem().Kind()
	}

	if k != reflect.Struct {
		return nil
	}

	err := v.Struct(s)
	if err != nil {
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}

		return malformedRequestErr(fieldErrs, trans)
	}

	return nil
}

// ParseUUIDPathParameters globally, considering all path parameters are UUIDs
func ParseUUIDPathParameters(c *fiber.Ctx) error {
	params := c.AllParams()

	var invalidUUIDs []string

	for param, value := range params {
		parsedUUID, err := uuid.Parse(value)
		if err != nil {
			invalidUUIDs = append(invalidUUIDs, param)
			continue
		}

		c.Locals(param, parsedUUID)
	}

	if len(invalidUUIDs) > 0 {
		err := common.ValidationError{
			Code:    cn.ErrMissingFieldsInRequest.Error(),
			Title:   "Invalid Path Parameter",
			Message: "Path parameter(s) are not valid identifiers: " + strings.Join(invalidUUIDs, ", "),
		}

		return WithError(c, err)
	}

	return c.Next()
}

//nolint:ireturn
func newValidator() (*validator.Validate, ut.Translator) {
	locale := en.New()
	uni := ut.New(locale, locale)

	trans, _ := uni.GetTranslator("en")

	v := validator.New()

	if err := en2.RegisterDefaultTranslations(v, trans); err != nil {
		panic(err)
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	return v, trans
}

// fieldsRequired returns the subset of fields whose validation message
// reports a missing required field.
func fieldsRequired(fields FieldValidations) FieldValidations {
	result := make(FieldValidations)

	for key, value := range fields {
		if strings.Contains(value, "required") {
			result[key] = value
		}
	}

	return result
}

func malformedRequestErr(errs validator.ValidationErrors, trans ut.Translator) ValidationKnownFieldsError {
	fields := make(FieldValidations, len(errs))
	for _, e := range errs {
		fields[e.Field()] = e.Translate(trans)
	}

	return ValidationKnownFieldsError{
		Code:    cn.ErrMissingFieldsInRequest.Error(),
		Title:   "Missing Fields In Request",
		Message: "The request is missing one or more required fields.",
		Fields:  fields,
	}
}
