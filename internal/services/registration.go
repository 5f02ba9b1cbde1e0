package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"hostelhub-backend-go/internal/models"

	"github.com/jmoiron/sqlx"
)

// RoleForForm maps the registration role field to a role code.
func RoleForForm(role string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "student":
		return models.RoleStudent, nil
	case "owner":
		return models.RoleOwner, nil
	}
	return "", ErrValidation(map[string]string{"role": "role must be one of: student owner"})
}

// CanReplaceRegistration reports whether a new sign-up may take over an
// existing account with the same email. Only unverified accounts qualify.
func CanReplaceRegistration(status string) bool {
	return status == models.UserStatusPending
}

// RegisterAccount creates a pending user and its student or owner profile.
// An earlier unverified sign-up with the same email is discarded first.
func RegisterAccount(db *sqlx.DB, basePath string, tokens TokenService, validator *FormValidator, form RegistrationForm) (string, error) {
	if errs := validator.ValidateAll(form); len(errs) > 0 {
		return "", ErrValidation(errs)
	}
	role, err := RoleForForm(form.Role)
	if err != nil {
		return "", err
	}
	existing, err := FindUserByEmail(db, form.Email)
	if err == nil {
		if !CanReplaceRegistration(existing.Status) {
			return "", ErrConflict("An account with this email already exists")
		}
		if err := DiscardPendingAccount(db, basePath, existing.ID); err != nil {
			return "", err
		}
	} else if _, notFound := AsServiceError(err); !notFound {
		return "", err
	}
	hash, err := tokens.HashPassword(form.Password)
	if err != nil {
		return "", err
	}
	tx, err := db.Beginx()
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()
	userID, err := InsertUser(tx, form.Email, hash, models.UserStatusPending, role)
	if err != nil {
		return "", err
	}
	switch role {
	case models.RoleStudent:
		err = InsertStudentProfile(tx, userID, form)
	case models.RoleOwner:
		err = InsertOwnerProfile(tx, userID, form)
	}
	if err != nil {
		return "", err
	}
	return userID, tx.Commit()
}

// DiscardPendingAccount removes an unverified account and the documents it
// uploaded. Verified accounts are left alone.
func DiscardPendingAccount(db *sqlx.DB, basePath, userID string) error {
	var assetIDs []string
	if err := db.Select(&assetIDs, `SELECT id FROM media_assets WHERE owner_user_id = $1`, userID); err != nil {
		return err
	}
	res, err := db.Exec(`DELETE FROM users WHERE id = $1 AND status = $2`, userID, models.UserStatusPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}
	for _, id := range assetIDs {
		if err := DeleteAsset(db, basePath, id); err != nil {
			log.Printf("discard registration %s asset %s: %v", userID, id, err)
		}
	}
	return nil
}

// PendingRegistration returns the account a registration OTP may be resent
// for.
func PendingRegistration(db *sqlx.DB, userID string) (models.User, error) {
	user, err := GetUser(db, userID)
	if err != nil {
		return models.User{}, err
	}
	if !CanReplaceRegistration(user.Status) {
		return models.User{}, ErrConflict("Account is already verified")
	}
	return user, nil
}

const (
	DocumentIDProof       = "idProof"
	DocumentPassportPhoto = "passportPhoto"
)

var documentColumns = map[string]string{
	DocumentIDProof:       "id_proof_media_id",
	DocumentPassportPhoto: "passport_photo_media_id",
}

// AttachProfileDocument stores an uploaded registration document and links it
// to the user's profile.
func AttachProfileDocument(db *sqlx.DB, basePath, userID, role, kind, filename string, body io.Reader) (string, error) {
	column, ok := documentColumns[kind]
	if !ok {
		return "", ErrBadRequest("Unknown document " + kind)
	}
	table := "students"
	if role == models.RoleOwner {
		table = "owners"
	}
	mediaID, err := SaveMediaAsset(db, basePath, BucketDocuments, filename, userID, body)
	if err != nil {
		return "", err
	}
	query := fmt.Sprintf(`UPDATE %s SET %s = $1 WHERE id = $2`, table, column)
	if _, err := db.Exec(query, mediaID, userID); err != nil {
		_ = DeleteAsset(db, basePath, mediaID)
		return "", err
	}
	return mediaID, nil
}

type LoginResult struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
	Role         string `json:"role"`
	ProfileID    string `json:"profileId"`
	Email        string `json:"email"`
}

func Authenticate(db *sqlx.DB, tokens TokenService, email, password string) (LoginResult, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return LoginResult{}, ErrUnauthorized("Authentication failed")
	}
	user, err := FindUserByEmail(db, email)
	if _, ok := AsServiceError(err); ok {
		return LoginResult{}, ErrUnauthorized("Authentication failed")
	}
	if err != nil {
		return LoginResult{}, err
	}
	if !tokens.VerifyPassword(password, user.PasswordHash) {
		return LoginResult{}, ErrUnauthorized("Authentication failed")
	}
	switch user.Status {
	case models.UserStatusPending:
		return LoginResult{}, ErrForbidden("Verify your email before logging in")
	case models.UserStatusDisabled:
		return LoginResult{}, ErrForbidden("Account is disabled")
	}
	result, err := issueSession(db, tokens, user)
	if err != nil {
		return LoginResult{}, err
	}
	_ = SetLastLogin(db, user.ID)
	return result, nil
}

// RefreshSession trades a refresh token for a new token pair.
func RefreshSession(db *sqlx.DB, tokens TokenService, refreshToken string) (LoginResult, error) {
	claims, err := tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return LoginResult{}, ErrUnauthorized("Authentication failed")
	}
	user, err := GetUser(db, claims.UserID())
	if _, ok := AsServiceError(err); ok {
		return LoginResult{}, ErrUnauthorized("Authentication failed")
	}
	if err != nil {
		return LoginResult{}, err
	}
	if user.Status != models.UserStatusActive {
		return LoginResult{}, ErrForbidden("Account is not active")
	}
	return issueSession(db, tokens, user)
}

func issueSession(db *sqlx.DB, tokens TokenService, user models.User) (LoginResult, error) {
	roles, err := FetchRoles(db, user.ID)
	if err != nil {
		return LoginResult{}, err
	}
	role := PrimaryRole(roles)
	profileID, err := ProfileID(db, user.ID, role)
	if err != nil {
		return LoginResult{}, err
	}
	access, exp, err := tokens.CreateAccessToken(user.ID, user.Email, roles)
	if err != nil {
		return LoginResult{}, err
	}
	refresh, err := tokens.CreateRefreshToken(user.ID)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{
		Token:        access,
		RefreshToken: refresh,
		ExpiresAt:    exp,
		Role:         strings.ToLower(role),
		ProfileID:    profileID,
		Email:        user.Email,
	}, nil
}

// ResetPassword checks the reset code for email and stores the new password.
func ResetPassword(ctx context.Context, db *sqlx.DB, tokens TokenService, otp OTPService, email, code, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrValidation(map[string]string{"newPassword": "newPassword must be at least 8 characters"})
	}
	user, err := FindUserByEmail(db, email)
	if _, ok := AsServiceError(err); ok {
		return ErrBadRequest("Invalid or expired OTP")
	}
	if err != nil {
		return err
	}
	if err := otp.Verify(ctx, OTPPurposePasswordReset, user.Email, code); err != nil {
		return err
	}
	hash, err := tokens.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return SetPassword(db, user.ID, hash)
}
