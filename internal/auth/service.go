package auth

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"givehub/portal-backend/pkg/apperr"
	"givehub/portal-backend/pkg/security"
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, principal *Principal) error
	Authenticate(ctx context.Context, token string) (*Principal, error)

	Me(ctx context.Context, userID uuid.UUID) (*User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*User, error)

	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]User, error)
	CountUsersByRole(ctx context.Context) (map[Role]int, error)
	CreateAdmin(ctx context.Context, name, email, password string) (*User, error)
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

type authService struct {
	repo   Repository
	tokens *security.TokenManager
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, tokens *security.TokenManager, logger *zap.Logger) Service {
	return &authService{
		repo:   repo,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), apperr.ErrInvalidInput)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validAccountType(t *AccountType) bool {
	return t != nil && (*t == AccountPersonal || *t == AccountOrganization)
}

func (req *RegisterRequest) validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return invalid("name is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return invalid("email is invalid")
	}
	if len(req.Password) < security.MinPasswordLength {
		return invalid("password must be at least %d characters", security.MinPasswordLength)
	}

	var accountType *AccountType
	switch req.Role {
	case RoleDonor:
		if !validAccountType(req.DonorType) {
			return invalid("donorType must be personal or organization")
		}
		req.ReceiverType = nil
		accountType = req.DonorType
	case RoleReceiver:
		if !validAccountType(req.ReceiverType) {
			return invalid("receiverType must be personal or organization")
		}
		req.DonorType = nil
		accountType = req.ReceiverType
	default:
		return invalid("role must be donor or receiver")
	}

	if *accountType == AccountOrganization && strings.TrimSpace(req.OrganizationName) == "" {
		return invalid("organizationName is required for organizations")
	}
	if *accountType == AccountPersonal {
		req.OrganizationName = ""
	}
	return nil
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)
	existing, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("email already registered: %w", apperr.ErrConflict)
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &User{
		ID:               uuid.New(),
		Name:             strings.TrimSpace(req.Name),
		Email:            email,
		PasswordHash:     hash,
		Role:             req.Role,
		DonorType:        req.DonorType,
		ReceiverType:     req.ReceiverType,
		OrganizationName: strings.TrimSpace(req.OrganizationName),
		Phone:            strings.TrimSpace(req.Phone),
		Address:          strings.TrimSpace(req.Address),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))

	return user, nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if user == nil || !security.CheckPassword(user.PasswordHash, req.Password) {
		return nil, fmt.Errorf("invalid email or password: %w", apperr.ErrUnauthorized)
	}

	token, claims, err := s.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user,
	}, nil
}

func (s *authService) Logout(ctx context.Context, principal *Principal) error {
	if err := s.repo.RevokeToken(ctx, principal.TokenID, principal.UserID, principal.ExpiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperr.ErrUnauthorized)
	}

	revoked, err := s.repo.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("token revoked: %w", apperr.ErrUnauthorized)
	}

	userID, _ := claims.UserID()
	return &Principal{
		UserID:    userID,
		Role:      Role(claims.Role),
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// token outlived its account
		return nil, fmt.Errorf("account no longer exists: %w", apperr.ErrUnauthorized)
	}
	return user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*User, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, invalid("name cannot be empty")
		}
		user.Name = name
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		user.Address = strings.TrimSpace(*req.Address)
	}
	if req.OrganizationName != nil {
		if !user.isOrganization() {
			return nil, invalid("organizationName only applies to organization accounts")
		}
		org := strings.TrimSpace(*req.OrganizationName)
		if org == "" {
			return nil, invalid("organizationName cannot be empty")
		}
		user.OrganizationName = org
	}
	if req.NewPassword != "" {
		if !security.CheckPassword(user.PasswordHash, req.CurrentPassword) {
			return nil, invalid("current password is incorrect")
		}
		if len(req.NewPassword) < security.MinPasswordLength {
			return nil, invalid("password must be at least %d characters", security.MinPasswordLength)
		}
		hash, err := security.HashPassword(req.NewPassword)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	user.UpdatedAt = s.now()
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *User) isOrganization() bool {
	return (u.DonorType != nil && *u.DonorType == AccountOrganization) ||
		(u.ReceiverType != nil && *u.ReceiverType == AccountOrganization)
}

func (s *authService) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	return user, nil
}

func (s *authService) ListUsers(ctx context.Context, filter UserFilter) ([]User, error) {
	return s.repo.ListUsers(ctx, filter)
}

func (s *authService) CountUsersByRole(ctx context.Context) (map[Role]int, error) {
	return s.repo.CountUsersByRole(ctx)
}

func (s *authService) CreateAdmin(ctx context.Context, name, email, password string) (*User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, invalid("name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("email is invalid")
	}
	if len(password) < security.MinPasswordLength {
		return nil, invalid("password must be at least %d characters", security.MinPasswordLength)
	}

	existing, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("email already registered: %w", apperr.ErrConflict)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(name),
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		Role:         RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("Admin user created", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *authService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.repo.PurgeExpiredTokens(ctx, s.now())
}
