package middleware

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
}

// Feature: kitchen-store, Property 13: Required field validation works
func TestProperty_RequiredFieldValidationWorks(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("missing required fields are rejected", prop.ForAll(
		func(includeEmail, includePassword, includeName bool) bool {
			reqMap := make(map[string]interface{})
			if includeEmail {
				reqMap["email"] = "cook@example.com"
			}
			if includePassword {
				reqMap["password"] = "secret1"
			}
			if includeName {
				reqMap["name"] = "Julia"
			}

			reqBody, _ := json.Marshal(reqMap)
			req := httptest.NewRequest("POST", "/auth/signup", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")

			var body signupBody
			err := DecodeAndValidate(req, &body)

			if includeEmail && includePassword && includeName {
				return err == nil
			}
			return err != nil
		},
		gen.Bool(),
		gen.Bool(),
		gen.Bool(),
	))

	properties.Property("short passwords are rejected", prop.ForAll(
		func(password string) bool {
			err := ValidateRequest(signupBody{Email: "cook@example.com", Password: password, Name: "Julia"})
			return (err == nil) == (len(password) >= 6)
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestFormatValidationErrors_UsesJSONNames(t *testing.T) {
	err := ValidateRequest(signupBody{Email: "not-an-email", Password: "abc"})
	require.Error(t, err)

	messages := map[string]string{}
	for _, e := range FormatValidationErrors(err) {
		messages[e.Field] = e.Message
	}

	assert.Equal(t, "Invalid email format", messages["email"])
	assert.Equal(t, "Must be at least 6 characters long", messages["password"])
	assert.Equal(t, "This field is required", messages["name"])
}

func TestFormatValidationErrors_IgnoresOtherErrors(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader("{not json"))
	var body signupBody
	err := DecodeAndValidate(req, &body)
	require.Error(t, err)
	assert.Empty(t, FormatValidationErrors(err))
}

func TestDecodeAndValidate_EmptyBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/", nil)
	var body signupBody
	assert.ErrorIs(t, DecodeAndValidate(req, &body), ErrEmptyBody)

	req = httptest.NewRequest("POST", "/", strings.NewReader(""))
	assert.ErrorIs(t, DecodeAndValidate(req, &body), ErrEmptyBody)
}

type lineItem struct {
	ID       string `json:"id" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=1"`
}

type basketBody struct {
	Items []lineItem `json:"items" validate:"required,dive"`
}

func TestFormatValidationErrors_NestedPaths(t *testing.T) {
	err := ValidateRequest(basketBody{Items: []lineItem{{ID: "a", Quantity: 1}, {Quantity: 0}}})
	require.Error(t, err)

	messages := map[string]string{}
	for _, e := range FormatValidationErrors(err) {
		messages[e.Field] = e.Message
	}

	assert.Equal(t, "This field is required", messages["items[1].id"])
	assert.Equal(t, "Value must be greater than or equal to 1", messages["items[1].quantity"])
}
