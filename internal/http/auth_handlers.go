package httpapi

import (
	"context"
	"log"
	"net/http"
	"strings"

	"hostelhub-backend-go/internal/services"
)

type ValidateStepRequest struct {
	Step int `json:"step"`
	services.RegistrationForm
}

type ValidateStepResponse struct {
	Step     string            `json:"step"`
	Valid    bool              `json:"valid"`
	Errors   map[string]string `json:"errors"`
	NextStep string            `json:"nextStep"`
}

type VerifyRegistrationRequest struct {
	UserID string `json:"userId" validate:"required"`
	OTP    string `json:"otp" validate:"required,len=6,numeric"`
}

type ResendRegistrationRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ValidateStep reports whether the fields of one registration step are valid.
// Advancing past a step requires Valid.
func (s *Server) ValidateStep(w http.ResponseWriter, r *http.Request) {
	var req ValidateStepRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	step := services.RegistrationStep(req.Step)
	if !step.IsFormStep() {
		WriteError(w, http.StatusBadRequest, "Unknown registration step")
		return
	}
	errs := s.Validator.ValidateStep(req.RegistrationForm, step)
	next := step
	if len(errs) == 0 {
		next = step + 1
	}
	WriteJSON(w, http.StatusOK, ValidateStepResponse{
		Step:     step.String(),
		Valid:    len(errs) == 0,
		Errors:   errs,
		NextStep: next.String(),
	})
}

func registrationFormFrom(r *http.Request) services.RegistrationForm {
	return services.RegistrationForm{
		Role:          r.FormValue("role"),
		Name:          r.FormValue("name"),
		Email:         r.FormValue("email"),
		Contact:       r.FormValue("contact"),
		Password:      r.FormValue("password"),
		FatherName:    r.FormValue("fatherName"),
		FatherContact: r.FormValue("fatherContact"),
		College:       r.FormValue("college"),
		Course:        r.FormValue("course"),
		BusinessName:  r.FormValue("businessName"),
		Address:       r.FormValue("address"),
	}
}

// Register accepts the multipart registration form, creates a pending account
// and mails the registration OTP.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(20 << 20); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	form := registrationFormFrom(r)
	userID, err := services.RegisterAccount(s.DB, s.Config.MediaStoragePath, s.Tokens, s.Validator, form)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	role, _ := services.RoleForForm(form.Role)
	for _, kind := range []string{services.DocumentIDProof, services.DocumentPassportPhoto} {
		file, header, err := r.FormFile(kind)
		if err == http.ErrMissingFile {
			continue
		}
		if err == nil {
			_, err = services.AttachProfileDocument(s.DB, s.Config.MediaStoragePath, userID, role, kind, header.Filename, file)
			_ = file.Close()
		}
		if err != nil {
			s.discardRegistration(userID)
			writeFailure(w, r, err)
			return
		}
	}
	if err := s.sendOTP(r.Context(), services.OTPPurposeRegistration, userID, form.Email); err != nil {
		s.discardRegistration(userID)
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"userId": userID})
}

func (s *Server) discardRegistration(userID string) {
	if err := services.DiscardPendingAccount(s.DB, s.Config.MediaStoragePath, userID); err != nil {
		log.Printf("rollback registration %s: %v", userID, err)
	}
}

// ResendRegistrationOTP issues a fresh registration code for an account that
// has not been verified yet.
func (s *Server) ResendRegistrationOTP(w http.ResponseWriter, r *http.Request) {
	var req ResendRegistrationRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	user, err := services.PendingRegistration(s.DB, req.UserID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if err := s.sendOTP(r.Context(), services.OTPPurposeRegistration, user.ID, user.Email); err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "OTP sent"})
}

func (s *Server) sendOTP(ctx context.Context, purpose, subject, email string) error {
	code, err := s.OTP.Issue(ctx, purpose, subject)
	if err != nil {
		return err
	}
	title, body := services.OTPMessage(purpose, code, s.Config.OTPTTLSeconds/60)
	if err := s.Mailer.Send(ctx, services.NormalizeEmail(email), title, body); err != nil {
		return services.WrapError(err, "send otp mail")
	}
	return nil
}

func (s *Server) VerifyRegistrationOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyRegistrationRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := s.OTP.Verify(r.Context(), services.OTPPurposeRegistration, req.UserID, req.OTP); err != nil {
		writeFailure(w, r, err)
		return
	}
	if err := services.ActivateUser(s.DB, req.UserID); err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Account verified"})
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	result, err := services.Authenticate(s.DB, s.Tokens, req.Email, req.Password)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	result, err := services.RefreshSession(s.DB, s.Tokens, req.RefreshToken)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) SendEmailOTP(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := s.sendOTP(r.Context(), services.OTPPurposeEmail, req.Email, req.Email); err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "OTP sent"})
}

func (s *Server) VerifyEmailOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := s.OTP.Verify(r.Context(), services.OTPPurposeEmail, req.Email, req.OTP); err != nil {
		writeFailure(w, r, err)
		return
	}
	if err := services.MarkEmailVerified(s.DB, req.Email); err != nil {
		if _, ok := services.AsServiceError(err); !ok {
			writeFailure(w, r, err)
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"verified": true})
}

// ForgotPassword answers the same way whether or not the account exists.
func (s *Server) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	user, err := services.FindUserByEmail(s.DB, req.Email)
	switch {
	case err == nil:
		if err := s.sendOTP(r.Context(), services.OTPPurposePasswordReset, user.Email, user.Email); err != nil {
			writeFailure(w, r, err)
			return
		}
	case !isServiceError(err):
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "If the account exists, a reset code has been sent"})
}

func (s *Server) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := services.ResetPassword(r.Context(), s.DB, s.Tokens, s.OTP, req.Email, strings.TrimSpace(req.OTP), req.NewPassword); err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Password updated"})
}

func isServiceError(err error) bool {
	_, ok := services.AsServiceError(err)
	return ok
}
