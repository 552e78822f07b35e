package jobs

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/ternarybob/scriba/internal/models"
)

// botURLSubmission carries the fields of a bot-identity export request.
type botURLSubmission struct {
	ProfileURL string `validate:"required,profile_url"`
	Email      string `validate:"required,email"`
}

// credentialsSubmission carries the fields of a caller-identity export
// request. Usernames on the target site are email addresses.
type credentialsSubmission struct {
	Username string `validate:"required,email"`
	Password string `validate:"required"`
	Email    string `validate:"required,email"`
}

// submissionValidator checks submissions synchronously before a job record
// is created. The profile URL rule comes from configuration so the accepted
// shape can be tightened without a rebuild.
type submissionValidator struct {
	validate *validator.Validate
}

func newSubmissionValidator(profilePattern string) (*submissionValidator, error) {
	pattern, err := regexp.Compile(profilePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid profile path pattern: %w", err)
	}

	validate := validator.New()
	err = validate.RegisterValidation("profile_url", func(fl validator.FieldLevel) bool {
		return pattern.MatchString(fl.Field().String())
	})
	if err != nil {
		return nil, err
	}

	return &submissionValidator{validate: validate}, nil
}

func (v *submissionValidator) validateBotURL(profileURL, email string) error {
	sub := botURLSubmission{ProfileURL: profileURL, Email: email}
	return v.translate(v.validate.Struct(sub))
}

func (v *submissionValidator) validateCredentials(username, password, email string) error {
	sub := credentialsSubmission{Username: username, Password: password, Email: email}
	return v.translate(v.validate.Struct(sub))
}

// translate maps the first validator failure to the field-level error shape
// the API layer returns. Credentials themselves are never echoed back.
func (v *submissionValidator) translate(err error) error {
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return models.NewValidationError("request", "invalid submission")
	}

	fe := errs[0]
	field := fieldName(fe.StructField())

	switch fe.Tag() {
	case "required":
		return models.NewValidationError(field, "is required")
	case "email":
		return models.NewValidationError(field, "must be a valid email address")
	case "profile_url":
		return models.NewValidationError(field, "must be a public profile URL like https://www.linkedin.com/in/<name>")
	default:
		return models.NewValidationError(field, "is invalid")
	}
}

func fieldName(structField string) string {
	switch structField {
	case "ProfileURL":
		return "profile_url"
	case "Email":
		return "email"
	case "Username":
		return "username"
	case "Password":
		return "password"
	default:
		return structField
	}
}
