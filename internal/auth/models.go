package auth

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleDonor    Role = "donor"
	RoleReceiver Role = "receiver"
	RoleAdmin    Role = "admin"
)

// AccountType distinguishes individuals from organizations for donors and receivers
type AccountType string

const (
	AccountPersonal     AccountType = "personal"
	AccountOrganization AccountType = "organization"
)

type User struct {
	ID               uuid.UUID    `json:"id" db:"id"`
	Name             string       `json:"name" db:"name"`
	Email            string       `json:"email" db:"email"`
	PasswordHash     string       `json:"-" db:"password_hash"`
	Role             Role         `json:"role" db:"role"`
	DonorType        *AccountType `json:"donorType,omitempty" db:"donor_type"`
	ReceiverType     *AccountType `json:"receiverType,omitempty" db:"receiver_type"`
	OrganizationName string       `json:"organizationName,omitempty" db:"organization_name"`
	Phone            string       `json:"phone,omitempty" db:"phone"`
	Address          string       `json:"address,omitempty" db:"address"`
	CreatedAt        time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time    `json:"updatedAt" db:"updated_at"`
}

// DisplayName is the organization name for organizations, otherwise the person's name
func (u *User) DisplayName() string {
	if u.OrganizationName != "" {
		return u.OrganizationName
	}
	return u.Name
}

// Principal is the authenticated caller attached to a request
type Principal struct {
	UserID    uuid.UUID
	Role      Role
	TokenID   string
	ExpiresAt time.Time
}

type RegisterRequest struct {
	Name             string       `json:"name" binding:"required"`
	Email            string       `json:"email" binding:"required,email"`
	Password         string       `json:"password" binding:"required"`
	Role             Role         `json:"role" binding:"required"`
	DonorType        *AccountType `json:"donorType"`
	ReceiverType     *AccountType `json:"receiverType"`
	OrganizationName string       `json:"organizationName"`
	Phone            string       `json:"phone"`
	Address          string       `json:"address"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
}

type UpdateProfileRequest struct {
	Name             *string `json:"name"`
	Phone            *string `json:"phone"`
	Address          *string `json:"address"`
	OrganizationName *string `json:"organizationName"`
	CurrentPassword  string  `json:"currentPassword"`
	NewPassword      string  `json:"newPassword"`
}

// UserFilter narrows the admin user list. Search matches name or email.
type UserFilter struct {
	Role   *Role
	Search string
}
