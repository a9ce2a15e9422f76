package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/presaleshub/crm-api/internal/auth"
	"github.com/presaleshub/crm-api/internal/domain"
	"github.com/presaleshub/crm-api/internal/mapper"
	"github.com/presaleshub/crm-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tempPasswordLength = 12

const tempPasswordAlphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789!@#$%"

type UserService struct {
	db            *gorm.DB
	userRepo      *repository.UserRepository
	referenceRepo *repository.ReferenceRepository
	tokens        *auth.TokenManager
	logger        *zap.Logger
}

func NewUserService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	referenceRepo *repository.ReferenceRepository,
	tokens *auth.TokenManager,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		db:            db,
		userRepo:      userRepo,
		referenceRepo: referenceRepo,
		tokens:        tokens,
		logger:        logger,
	}
}

// Register creates an account with a generated temporary password. The
// password is returned exactly once; only its bcrypt hash is stored.
func (s *UserService) Register(ctx context.Context, req *domain.RegisterUserRequest) (*domain.RegisterUserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	roles, err := s.referenceRepo.GetRolesByIDs(ctx, req.RoleIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	if len(roles) != len(req.RoleIDs) {
		return nil, fmt.Errorf("%w: unknown role id", ErrInvalidInput)
	}

	regions, err := s.referenceRepo.GetRegionsByIDs(ctx, req.RegionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load regions: %w", err)
	}
	if len(regions) != len(req.RegionIDs) {
		return nil, fmt.Errorf("%w: unknown region id", ErrInvalidInput)
	}

	password, err := generateTempPassword()
	if err != nil {
		return nil, fmt.Errorf("failed to generate password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		FullName:     req.FullName,
		Email:        email,
		PasswordHash: string(hash),
		Status:       domain.UserStatusActive,
		Roles:        roles,
		Regions:      regions,
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.userRepo.WithTx(tx).Create(ctx, user)
	}); err != nil {
		if errors.Is(translateDBError(err), ErrConflict) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", translateDBError(err))
	}

	s.logger.Info("user registered",
		zap.Uint("user_id", user.ID),
		zap.String("email", user.Email),
	)

	return &domain.RegisterUserResponse{
		User:              mapper.ToUserDTO(user),
		TemporaryPassword: password,
	}, nil
}

// Login verifies credentials and issues a bearer token. Inactive accounts
// are rejected even with a correct password.
func (s *UserService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Status != domain.UserStatusActive {
		return nil, ErrInactiveAccount
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("user logged in", zap.Uint("user_id", user.ID))

	return &domain.LoginResponse{
		Token: token,
		User:  mapper.ToUserDTO(user),
	}, nil
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*domain.UserDTO, error) {
	user, err := s.userRepo.GetWithRoles(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// Update applies coalesce semantics to profile fields. Supplied role and
// region lists replace the current assignments wholesale.
func (s *UserService) Update(ctx context.Context, id uint, req *domain.UpdateUserRequest) (*domain.UserDTO, error) {
	user, err := s.userRepo.GetWithRoles(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != user.Email {
			if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
				return nil, ErrDuplicateEmail
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			user.Email = email
		}
	}
	if req.Status != nil {
		user.Status = domain.UserStatus(*req.Status)
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	// Resolve assignment ids before opening the transaction; the lookups must
	// not run on the non-transactional handle while the transaction is open.
	var roles []domain.Role
	if req.RoleIDs != nil {
		roles, err = s.referenceRepo.GetRolesByIDs(ctx, req.RoleIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load roles: %w", err)
		}
		if len(roles) != len(req.RoleIDs) {
			return nil, fmt.Errorf("%w: unknown role id", ErrInvalidInput)
		}
	}
	var regions []domain.Region
	if req.RegionIDs != nil {
		regions, err = s.referenceRepo.GetRegionsByIDs(ctx, req.RegionIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load regions: %w", err)
		}
		if len(regions) != len(req.RegionIDs) {
			return nil, fmt.Errorf("%w: unknown region id", ErrInvalidInput)
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.userRepo.WithTx(tx)

		if err := repo.Update(ctx, user); err != nil {
			return err
		}

		if req.RoleIDs != nil {
			if err := repo.ReplaceRoles(ctx, user, roles); err != nil {
				return err
			}
		}
		if req.RegionIDs != nil {
			if err := repo.ReplaceRegions(ctx, user, regions); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user: %w", translateDBError(err))
	}

	return s.GetByID(ctx, id)
}

func (s *UserService) Delete(ctx context.Context, id uint) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.logger.Info("user deleted", zap.Uint("user_id", id))
	return nil
}

func (s *UserService) List(ctx context.Context, page, pageSize int, filters *repository.UserFilters) (*domain.PaginatedResponse, error) {
	page, pageSize = clampPage(page, pageSize)

	users, total, err := s.userRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	dtos := make([]domain.UserDTO, len(users))
	for i := range users {
		dtos[i] = mapper.ToUserDTO(&users[i])
	}

	return &domain.PaginatedResponse{
		Data:       dtos,
		Pagination: domain.NewPagination(total, page, pageSize),
	}, nil
}

func generateTempPassword() (string, error) {
	password := make([]byte, tempPasswordLength)
	max := big.NewInt(int64(len(tempPasswordAlphabet)))
	for i := range password {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		password[i] = tempPasswordAlphabet[n.Int64()]
	}
	return string(password), nil
}
