package services

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

type RegistrationStep int

const (
	StepBasicInfo RegistrationStep = iota
	StepAdditionalInfo
	StepDocumentsAndAddress
	StepOtpPending
	StepDone
)

func (s RegistrationStep) String() string {
	switch s {
	case StepBasicInfo:
		return "BasicInfo"
	case StepAdditionalInfo:
		return "AdditionalInfo"
	case StepDocumentsAndAddress:
		return "DocumentsAndAddress"
	case StepOtpPending:
		return "OtpPending"
	case StepDone:
		return "Done"
	}
	return fmt.Sprintf("RegistrationStep(%d)", int(s))
}

// IsFormStep reports whether the step collects form fields.
func (s RegistrationStep) IsFormStep() bool {
	return s >= StepBasicInfo && s <= StepDocumentsAndAddress
}

var phonePattern = regexp.MustCompile(`^[6-9][0-9]{9}$`)

// RegistrationForm is the union of fields collected across all steps for
// both students and owners. Field tags name the step that collects them.
type RegistrationForm struct {
	Role          string `json:"role" form:"role" step:"0" validate:"required,oneof=student owner"`
	Name          string `json:"name" form:"name" step:"0" validate:"required,min=2,max=80"`
	Email         string `json:"email" form:"email" step:"0" validate:"required,email"`
	Contact       string `json:"contact" form:"contact" step:"0" validate:"required,phone"`
	Password      string `json:"password" form:"password" step:"0" validate:"required,min=8,max=72"`
	FatherName    string `json:"fatherName" form:"fatherName" step:"1" role:"student" validate:"required,min=2"`
	FatherContact string `json:"fatherContact" form:"fatherContact" step:"1" role:"student" validate:"required,phone"`
	College       string `json:"college" form:"college" step:"1" role:"student" validate:"required"`
	Course        string `json:"course" form:"course" step:"1" role:"student" validate:"omitempty,max=80"`
	BusinessName  string `json:"businessName" form:"businessName" step:"1" role:"owner" validate:"omitempty,max=120"`
	Address       string `json:"address" form:"address" step:"2" validate:"required,min=5"`
}

type FormValidator struct {
	validate *validator.Validate
}

func NewFormValidator() *FormValidator {
	v := validator.New()
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &FormValidator{validate: v}
}

// Struct validates any request DTO carrying validate tags.
func (v *FormValidator) Struct(s interface{}) map[string]string {
	return FormatValidationErrors(v.validate.Struct(s))
}

// ValidateStep checks only the fields the given step collects for the form's
// role. An empty map means the step may advance.
func (v *FormValidator) ValidateStep(form RegistrationForm, step RegistrationStep) map[string]string {
	if !step.IsFormStep() {
		return map[string]string{}
	}
	role := strings.ToLower(strings.TrimSpace(form.Role))
	value := reflect.ValueOf(form)
	typ := value.Type()
	errs := map[string]string{}
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.Tag.Get("step") != fmt.Sprint(int(step)) {
			continue
		}
		if only := field.Tag.Get("role"); only != "" && only != role {
			continue
		}
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		err := v.validate.Var(strings.TrimSpace(value.Field(i).String()), field.Tag.Get("validate"))
		for key, msg := range formatFieldErrors(name, err) {
			errs[key] = msg
		}
	}
	return errs
}

// ValidateAll runs every form step and merges the errors.
func (v *FormValidator) ValidateAll(form RegistrationForm) map[string]string {
	errs := map[string]string{}
	for step := StepBasicInfo; step.IsFormStep(); step++ {
		for key, msg := range v.ValidateStep(form, step) {
			errs[key] = msg
		}
	}
	return errs
}

func formatFieldErrors(name string, err error) map[string]string {
	out := map[string]string{}
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return out
	}
	for _, e := range validationErrs {
		out[name] = describe(name, e)
	}
	return out
}

// FormatValidationErrors turns validator errors into field -> message pairs.
func FormatValidationErrors(err error) map[string]string {
	out := map[string]string{}
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return out
	}
	for _, e := range validationErrs {
		out[e.Field()] = describe(e.Field(), e)
	}
	return out
}

func describe(field string, e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Invalid email format"
	case "phone":
		return "Enter a valid 10-digit mobile number"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, e.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}
