package identity

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

var phonePattern = regexp.MustCompile(`^\d{11}$`)
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Service implements registration, login and token resolution.
type Service struct {
	logger    *logger.Logger
	users     *UserRepository
	passwords *PasswordManager
	tokens    *TokenManager
	sessions  *SessionStore
}

// NewService creates a new identity service instance
func NewService(log *logger.Logger, users *UserRepository, passwords *PasswordManager, tokens *TokenManager, sessions *SessionStore) *Service {
	return &Service{
		logger:    log,
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		sessions:  sessions,
	}
}

// Register creates a new account. Self-registration is always a patient
// account; elevated roles are provisioned by an admin.
func (s *Service) Register(ctx context.Context, req *types.RegisterRequest) (*types.User, error) {
	if err := s.validateRegistration(req); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = types.RolePatient
	}
	if !role.Valid() {
		return nil, types.NewValidationError("unknown role")
	}

	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &types.User{
		ID:           uuid.New().String(),
		Account:      req.Account,
		Name:         req.Name,
		PasswordHash: hash,
		Gender:       req.Gender,
		Phone:        req.Phone,
		Email:        req.Email,
		Birthday:     req.Birthday,
		Role:         role,
		Status:       types.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.WithUserID(user.ID).WithField("role", user.Role).Info("User registered")
	return user, nil
}

// Login verifies credentials and issues a bearer token with a cached
// session record.
func (s *Service) Login(ctx context.Context, req *types.LoginRequest) (*types.LoginResponse, error) {
	if req.Account == "" || req.Password == "" {
		return nil, types.NewValidationError("account and password are required")
	}

	user, err := s.users.GetByAccount(ctx, req.Account)
	if err != nil {
		if appErr := types.AsAppError(err); appErr.Kind == types.ErrorKindNotFound {
			return nil, types.NewUnauthorizedError("invalid account or password")
		}
		return nil, err
	}

	ok, err := s.passwords.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Security("login_failed", user.ID, map[string]interface{}{"account": req.Account})
		return nil, types.NewUnauthorizedError("invalid account or password")
	}

	if user.Status != types.UserStatusActive {
		s.logger.Security("login_inactive_account", user.ID, nil)
		return nil, types.NewUnauthorizedError("account is disabled")
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	s.sessions.Put(ctx, token, &Session{
		UserID:    user.ID,
		Role:      user.Role,
		CreatedAt: time.Now(),
	})

	s.logger.WithUserID(user.ID).Info("User logged in")
	return &types.LoginResponse{Token: token, User: user}, nil
}

// Resolve turns a bearer token into a principal. Cached sessions are the
// fast path; on a miss the revocation tombstone is checked first, then the
// signature is verified and the session lazily re-created.
func (s *Service) Resolve(ctx context.Context, token string) (*types.Principal, error) {
	if session, ok := s.sessions.Get(ctx, token); ok {
		return &types.Principal{UserID: session.UserID, Role: session.Role}, nil
	}

	if s.sessions.Revoked(ctx, token) {
		return nil, types.NewUnauthorizedError("token has been revoked")
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	s.sessions.Put(ctx, token, &Session{
		UserID:    claims.Subject,
		Role:      claims.Role,
		CreatedAt: time.Now(),
	})
	return &types.Principal{UserID: claims.Subject, Role: claims.Role}, nil
}

// Revoke invalidates a token ahead of its natural expiry.
func (s *Service) Revoke(ctx context.Context, token string) error {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.sessions.Revoke(ctx, token, 0)
		return nil
	}

	s.sessions.Revoke(ctx, token, claims.Remaining())
	s.logger.WithUserID(claims.Subject).Info("Token revoked")
	return nil
}

func (s *Service) validateRegistration(req *types.RegisterRequest) error {
	if len(req.Account) < 3 || len(req.Account) > 50 {
		return types.NewValidationError("account must be 3-50 characters")
	}
	if len(req.Name) < 2 || len(req.Name) > 50 {
		return types.NewValidationError("name must be 2-50 characters")
	}
	if len(req.Password) < 6 {
		return types.NewValidationError("password must be at least 6 characters")
	}
	if req.Phone != "" && !phonePattern.MatchString(req.Phone) {
		return types.NewValidationError("phone must be 11 digits")
	}
	if req.Email != "" && !emailPattern.MatchString(req.Email) {
		return types.NewValidationError("invalid email address")
	}
	return nil
}
