package services

import "testing"

func validStudentForm() RegistrationForm {
	return RegistrationForm{
		Role:          "student",
		Name:          "Asha Rao",
		Email:         "asha@example.com",
		Contact:       "9876543210",
		Password:      "longenough",
		FatherName:    "Mohan Rao",
		FatherContact: "9123456780",
		College:       "City College",
		Address:       "14 Residency Road",
	}
}

func TestValidateStepOnlyChecksStepFields(t *testing.T) {
	v := NewFormValidator()
	form := validStudentForm()
	form.College = ""
	if errs := v.ValidateStep(form, StepBasicInfo); len(errs) != 0 {
		t.Fatalf("basic info should pass, got %v", errs)
	}
	errs := v.ValidateStep(form, StepAdditionalInfo)
	if _, ok := errs["college"]; !ok || len(errs) != 1 {
		t.Fatalf("expected only college error, got %v", errs)
	}
}

func TestValidateStepRoleSpecificFields(t *testing.T) {
	v := NewFormValidator()
	owner := RegistrationForm{
		Role:     "owner",
		Name:     "Prakash",
		Email:    "prakash@example.com",
		Contact:  "9988776655",
		Password: "password1",
		Address:  "Plot 7, Hill Street",
	}
	if errs := v.ValidateAll(owner); len(errs) != 0 {
		t.Fatalf("owner does not need student fields, got %v", errs)
	}
}

func TestValidateStepFormats(t *testing.T) {
	v := NewFormValidator()
	form := validStudentForm()
	form.Email = "not-an-email"
	form.Contact = "12345"
	form.Password = "short"
	errs := v.ValidateStep(form, StepBasicInfo)
	for _, field := range []string{"email", "contact", "password"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("expected error for %s, got %v", field, errs)
		}
	}
	if errs["contact"] != "Enter a valid 10-digit mobile number" {
		t.Errorf("unexpected contact message %q", errs["contact"])
	}
}

func TestValidateStepNonFormSteps(t *testing.T) {
	v := NewFormValidator()
	if errs := v.ValidateStep(RegistrationForm{}, StepOtpPending); len(errs) != 0 {
		t.Fatalf("otp step has no form fields, got %v", errs)
	}
}

func TestValidateAllCollectsEverything(t *testing.T) {
	v := NewFormValidator()
	errs := v.ValidateAll(RegistrationForm{Role: "student"})
	for _, field := range []string{"name", "email", "contact", "password", "fatherName", "fatherContact", "college", "address"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("missing error for %s", field)
		}
	}
	if _, ok := errs["course"]; ok {
		t.Errorf("course is optional")
	}
	if errs := v.ValidateAll(validStudentForm()); len(errs) != 0 {
		t.Fatalf("valid form failed: %v", errs)
	}
}

func TestStructValidationUsesJSONNames(t *testing.T) {
	v := NewFormValidator()
	req := struct {
		HostelID string `json:"hostelId" validate:"required"`
		Rating   int    `json:"rating" validate:"gte=0,lte=5"`
	}{Rating: 9}
	errs := v.Struct(req)
	if _, ok := errs["hostelId"]; !ok {
		t.Fatalf("expected hostelId error, got %v", errs)
	}
	if _, ok := errs["rating"]; !ok {
		t.Fatalf("expected rating error, got %v", errs)
	}
}
