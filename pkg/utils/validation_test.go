package utils

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestValidationMessage(t *testing.T) {
	validate := validator.New()

	type request struct {
		Question string `validate:"required"`
		Action   string `validate:"required,oneof=approve flag reject escalate"`
	}

	t.Run("required and oneof", func(t *testing.T) {
		err := validate.Struct(request{Action: "shrug"})
		got := ValidationMessage(err)
		want := "question is required; action must be one of: approve flag reject escalate"
		if got != want {
			t.Errorf("message = %q, want %q", got, want)
		}
	})

	t.Run("non validator error", func(t *testing.T) {
		if got := ValidationMessage(errors.New("boom")); got != "request is invalid" {
			t.Errorf("message = %q", got)
		}
	})
}
