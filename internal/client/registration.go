package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"hostelhub-backend-go/internal/services"
)

var ErrStepIncomplete = errors.New("registration step is not complete")

type Document struct {
	Name string
	Body io.Reader
}

// Registration walks the sign-up steps. A step only advances after the
// server accepts its fields; the form is submitted once, at OtpPending.
type Registration struct {
	c *Client

	Step      services.RegistrationStep
	Form      services.RegistrationForm
	Documents map[string]Document
	UserID    string
	Errors    map[string]string

	otpSent bool
}

func (c *Client) Registration(role string) *Registration {
	return &Registration{
		c:         c,
		Step:      services.StepBasicInfo,
		Form:      services.RegistrationForm{Role: role},
		Documents: map[string]Document{},
	}
}

type validateStepRequest struct {
	Step int `json:"step"`
	services.RegistrationForm
}

type validateStepResponse struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

// Next validates the current step and advances when it is valid. The
// returned map holds the field errors of a blocked step.
func (r *Registration) Next(ctx context.Context) (map[string]string, error) {
	if !r.Step.IsFormStep() {
		return nil, nil
	}
	var resp validateStepResponse
	err := r.c.doJSON(ctx, http.MethodPost, "/api/auth/register/validate-step",
		validateStepRequest{Step: int(r.Step), RegistrationForm: r.Form}, &resp, false)
	if err != nil {
		return nil, err
	}
	r.Errors = resp.Errors
	if !resp.Valid {
		return resp.Errors, nil
	}
	r.Step++
	return nil, nil
}

func (r *Registration) Back() {
	if r.Step > services.StepBasicInfo && r.Step <= services.StepOtpPending && !r.otpSent {
		r.Step--
	}
}

// Submit sends the whole form once every form step has passed. Calling it
// again after the OTP went out returns the same user id without resending.
func (r *Registration) Submit(ctx context.Context) (string, error) {
	if r.otpSent {
		return r.UserID, nil
	}
	if r.Step != services.StepOtpPending {
		return "", ErrStepIncomplete
	}
	contentType, body, err := r.multipart()
	if err != nil {
		return "", err
	}
	var resp struct {
		UserID string `json:"userId"`
	}
	if err := r.c.do(ctx, http.MethodPost, "/api/auth/register", contentType, body, &resp, false); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			r.Errors = apiErr.Fields
		}
		return "", err
	}
	r.UserID = resp.UserID
	r.otpSent = true
	return r.UserID, nil
}

func (r *Registration) VerifyOTP(ctx context.Context, code string) error {
	if !r.otpSent {
		return ErrStepIncomplete
	}
	err := r.c.doJSON(ctx, http.MethodPost, "/api/auth/verify-registration-otp",
		map[string]string{"userId": r.UserID, "otp": code}, nil, false)
	if err != nil {
		return err
	}
	r.Step = services.StepDone
	return nil
}

// ResendOTP asks for a fresh code once the previous one expired or ran out
// of attempts.
func (r *Registration) ResendOTP(ctx context.Context) error {
	if !r.otpSent {
		return ErrStepIncomplete
	}
	return r.c.doJSON(ctx, http.MethodPost, "/api/auth/resend-registration-otp",
		map[string]string{"userId": r.UserID}, nil, false)
}

func (r *Registration) multipart() (string, *bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	f := r.Form
	fields := map[string]string{
		"role":          f.Role,
		"name":          f.Name,
		"email":         f.Email,
		"contact":       f.Contact,
		"password":      f.Password,
		"fatherName":    f.FatherName,
		"fatherContact": f.FatherContact,
		"college":       f.College,
		"course":        f.Course,
		"businessName":  f.BusinessName,
		"address":       f.Address,
	}
	for key, value := range fields {
		if value == "" {
			continue
		}
		if err := mw.WriteField(key, value); err != nil {
			return "", nil, err
		}
	}
	for _, kind := range []string{services.DocumentIDProof, services.DocumentPassportPhoto} {
		doc, ok := r.Documents[kind]
		if !ok {
			continue
		}
		part, err := mw.CreateFormFile(kind, doc.Name)
		if err != nil {
			return "", nil, err
		}
		if _, err := io.Copy(part, doc.Body); err != nil {
			return "", nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return "", nil, err
	}
	return mw.FormDataContentType(), buf, nil
}
