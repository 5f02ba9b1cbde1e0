package httpapi

import (
	"strings"
	"time"

	"hostelhub-backend-go/internal/services"

	"github.com/jmoiron/sqlx"
)

type UserDTO struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Status        string     `json:"status"`
	EmailVerified bool       `json:"emailVerified"`
	Role          string     `json:"role"`
	Roles         []string   `json:"roles"`
	ProfileID     string     `json:"profileId,omitempty"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
}

func buildUserDTO(db *sqlx.DB, userID string) (*UserDTO, error) {
	user, err := services.GetUser(db, userID)
	if err != nil {
		return nil, err
	}
	roles, err := services.FetchRoles(db, userID)
	if err != nil {
		return nil, err
	}
	primary := services.PrimaryRole(roles)
	profileID, err := services.ProfileID(db, userID, primary)
	if err != nil {
		if _, ok := services.AsServiceError(err); !ok {
			return nil, err
		}
		profileID = ""
	}
	return &UserDTO{
		ID:            user.ID,
		Email:         user.Email,
		Status:        user.Status,
		EmailVerified: user.IsEmailVerified,
		Role:          strings.ToLower(primary),
		Roles:         roles,
		ProfileID:     profileID,
		LastLoginAt:   user.LastLoginAt,
	}, nil
}
