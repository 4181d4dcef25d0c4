package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/afiatamanna06/csedu-web-sub001/internal/auth"
	"github.com/afiatamanna06/csedu-web-sub001/internal/config"
	"github.com/afiatamanna06/csedu-web-sub001/internal/domain"
	"github.com/afiatamanna06/csedu-web-sub001/internal/repository"
	apperrors "github.com/afiatamanna06/csedu-web-sub001/pkg/util"
)

// Messages returned by the development API. The portal shows them verbatim.
const (
	MsgIncorrectCredentials = "Incorrect email or password"
	MsgEmailRegistered      = "Email already registered"
	MsgAdminPending         = "Admin account is pending approval"
	MsgAdminCreated         = "Admin account created and pending approval"
)

// IssuedToken is a signed access token and its expiry.
type IssuedToken struct {
	AccessToken string
	ExpiresAt   time.Time
}

// AuthService coordinates registration and login flows of the development
// department API.
type AuthService struct {
	accounts   repository.AccountRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, accounts repository.AccountRepository, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		accounts:   accounts,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL()),
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Login authenticates an account. The requested role is advisory: the token
// always carries the account's real role and callers decide what to do with
// a mismatch.
func (s *AuthService) Login(ctx context.Context, email, password, requestedRole string) (*domain.Account, IssuedToken, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, IssuedToken{}, apperrors.NewUnauthorized(MsgIncorrectCredentials)
		}
		return nil, IssuedToken{}, err
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, IssuedToken{}, apperrors.NewUnauthorized(MsgIncorrectCredentials)
	}
	if !account.Approved {
		return nil, IssuedToken{}, apperrors.NewForbidden(MsgAdminPending)
	}
	if role, ok := domain.ParseRole(requestedRole); ok && role != account.Role {
		s.logger.Debug("login role differs from account role",
			zap.String("account_id", account.ID),
			zap.String("requested", role.String()),
			zap.String("actual", account.Role.String()))
	}

	token, err := s.issue(account)
	if err != nil {
		return nil, IssuedToken{}, err
	}
	return account, token, nil
}

// RegisterStudent creates a student account and signs it in.
func (s *AuthService) RegisterStudent(ctx context.Context, req domain.StudentSignup) (*domain.Account, IssuedToken, error) {
	if problems := req.Validate(); len(problems) > 0 {
		return nil, IssuedToken{}, apperrors.NewFieldErrors(problems)
	}
	account := &domain.Account{
		FullName:           req.FullName,
		Email:              req.Email,
		Role:               domain.RoleStudent,
		Phone:              req.Phone,
		RegistrationNumber: req.RegistrationNumber,
		Session:            req.Session,
		Approved:           true,
	}
	return s.createAndIssue(ctx, account, req.Password)
}

// RegisterFaculty creates a faculty account and signs it in.
func (s *AuthService) RegisterFaculty(ctx context.Context, req domain.FacultySignup) (*domain.Account, IssuedToken, error) {
	if problems := req.Validate(); len(problems) > 0 {
		return nil, IssuedToken{}, apperrors.NewFieldErrors(problems)
	}
	account := &domain.Account{
		FullName:    req.FullName,
		Email:       req.Email,
		Role:        domain.RoleFaculty,
		Phone:       req.Phone,
		Designation: req.Designation,
		Department:  req.Department,
		Approved:    true,
	}
	return s.createAndIssue(ctx, account, req.Password)
}

// RegisterAdmin creates an admin account that cannot sign in until
// approved. No token is issued.
func (s *AuthService) RegisterAdmin(ctx context.Context, req domain.AdminSignup) (*domain.Account, error) {
	if problems := req.Validate(); len(problems) > 0 {
		return nil, apperrors.NewFieldErrors(problems)
	}
	account := &domain.Account{
		FullName: req.FullName,
		Email:    req.Email,
		Role:     domain.RoleAdmin,
		Phone:    req.Phone,
		Approved: false,
	}
	if err := s.create(ctx, account, req.Password); err != nil {
		return nil, err
	}
	return account, nil
}

// AddManagedUser creates an approved student or teacher account on behalf
// of an admin.
func (s *AuthService) AddManagedUser(ctx context.Context, kind domain.ManagedUserKind, req domain.ManagedUser) (*domain.Account, error) {
	if problems := req.Validate(kind); len(problems) > 0 {
		return nil, apperrors.NewFieldErrors(problems)
	}
	role := domain.RoleStudent
	if kind == domain.ManagedTeacher {
		role = domain.RoleFaculty
	}
	account := &domain.Account{
		FullName:           req.FullName,
		Email:              req.Email,
		Role:               role,
		Phone:              req.Phone,
		RegistrationNumber: req.RegistrationNumber,
		Session:            req.Session,
		Designation:        req.Designation,
		Department:         req.Department,
		Approved:           true,
	}
	if err := s.create(ctx, account, req.Password); err != nil {
		return nil, err
	}
	return account, nil
}

// SeedAdmin makes sure an approved admin with the given credentials exists.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	account := &domain.Account{
		FullName: "Department Admin",
		Email:    email,
		Role:     domain.RoleAdmin,
		Approved: true,
	}
	if err := s.create(ctx, account, password); err != nil {
		return err
	}
	s.logger.Info("seeded admin account", zap.String("email", account.Email))
	return nil
}

func (s *AuthService) createAndIssue(ctx context.Context, account *domain.Account, password string) (*domain.Account, IssuedToken, error) {
	if err := s.create(ctx, account, password); err != nil {
		return nil, IssuedToken{}, err
	}
	token, err := s.issue(account)
	if err != nil {
		return nil, IssuedToken{}, err
	}
	return account, token, nil
}

func (s *AuthService) create(ctx context.Context, account *domain.Account, password string) error {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	account.PasswordHash = hash
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return apperrors.NewConflict(MsgEmailRegistered, nil)
		}
		return err
	}
	return nil
}

func (s *AuthService) issue(account *domain.Account) (IssuedToken, error) {
	token, exp, err := s.tokenMgr.GenerateToken(account.ID, account.Role)
	if err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{AccessToken: token, ExpiresAt: exp}, nil
}
