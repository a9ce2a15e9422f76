package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/presaleshub/crm-api/internal/auth"
	"github.com/presaleshub/crm-api/internal/domain"
	"github.com/presaleshub/crm-api/internal/repository"
	"github.com/presaleshub/crm-api/internal/service"
	"github.com/presaleshub/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func createUserService(db *gorm.DB) *service.UserService {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return service.NewUserService(
		db,
		repository.NewUserRepository(db),
		repository.NewReferenceRepository(db),
		tokens,
		zap.NewNop(),
	)
}

func seedRole(t *testing.T, db *gorm.DB, name string) *domain.Role {
	t.Helper()
	role := &domain.Role{Name: name}
	require.NoError(t, db.Create(role).Error)
	return role
}

func seedRegion(t *testing.T, db *gorm.DB, name string) *domain.Region {
	t.Helper()
	region := &domain.Region{Name: name, IsActive: true}
	require.NoError(t, db.Create(region).Error)
	return region
}

func TestUserService_Register(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createUserService(db)
	ctx := context.Background()

	role := seedRole(t, db, "Presales Member")
	region := seedRegion(t, db, "EMEA")

	resp, err := svc.Register(ctx, &domain.RegisterUserRequest{
		FullName:  "Jane Smith",
		Email:     "Jane.Smith@Example.com",
		RoleIDs:   []uint{role.ID},
		RegionIDs: []uint{region.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, "jane.smith@example.com", resp.User.Email)
	assert.Equal(t, []string{"Presales Member"}, resp.User.Roles)
	assert.Equal(t, []string{"EMEA"}, resp.User.Regions)
	assert.Len(t, resp.TemporaryPassword, 12)

	// The returned password verifies against the stored hash
	var stored domain.User
	require.NoError(t, db.First(&stored, resp.User.ID).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(stored.PasswordHash), []byte(resp.TemporaryPassword)))
	assert.NotContains(t, stored.PasswordHash, resp.TemporaryPassword)
}

func TestUserService_Register_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createUserService(db)
	ctx := context.Background()

	role := seedRole(t, db, "Presales Member")

	_, err := svc.Register(ctx, &domain.RegisterUserRequest{
		FullName: "Jane Smith",
		Email:    "jane@example.com",
		RoleIDs:  []uint{role.ID},
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &domain.RegisterUserRequest{
		FullName: "Other Jane",
		Email:    "JANE@example.com",
		RoleIDs:  []uint{role.ID},
	})
	assert.ErrorIs(t, err, service.ErrDuplicateEmail)
}

func TestUserService_Register_UnknownRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createUserService(db)

	_, err := svc.Register(context.Background(), &domain.RegisterUserRequest{
		FullName: "Jane Smith",
		Email:    "jane@example.com",
		RoleIDs:  []uint{42},
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestUserService_Login(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createUserService(db)
	ctx := context.Background()

	role := seedRole(t, db, "Presales Member")
	registered, err := svc.Register(ctx, &domain.RegisterUserRequest{
		FullName: "Jane Smith",
		Email:    "jane@example.com",
		RoleIDs:  []uint{role.ID},
	})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, &domain.LoginRequest{
		Email:    "jane@example.com",
		Password: registered.TemporaryPassword,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, registered.User.ID, resp.User.ID)

	_, err = svc.Login(ctx, &domain.LoginRequest{
		Email:    "jane@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = svc.Login(ctx, &domain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestUserService_Login_InactiveAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createUserService(db)
	ctx := context.Background()

	role := seedRole(t, db, "Presales Member")
	registered, err := svc.Register(ctx, &domain.RegisterUserRequest{
		FullName: "Jane Smith",
		Email:    "jane@example.com",
		RoleIDs:  []uint{role.ID},
	})
	require.NoError(t, err)

	inactive := string(domain.UserStatusInactive)
	_, err = svc.Update(ctx, registered.User.ID, &domain.UpdateUserRequest{Status: &inactive})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &domain.LoginRequest{
		Email:    "jane@example.com",
		Password: registered.TemporaryPassword,
	})
	assert.ErrorIs(t, err, service.ErrInactiveAccount)
}

func TestUserService_Update_ReplacesRoleAssignments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createUserService(db)
	ctx := context.Background()

	member := seedRole(t, db, "Presales Member")
	lead := seedRole(t, db, "Presales Lead")

	registered, err := svc.Register(ctx, &domain.RegisterUserRequest{
		FullName: "Jane Smith",
		Email:    "jane@example.com",
		RoleIDs:  []uint{member.ID},
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, registered.User.ID, &domain.UpdateUserRequest{
		RoleIDs: []uint{lead.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Presales Lead"}, updated.Roles)

	// Omitting role ids leaves the assignments untouched
	name := "Jane A. Smith"
	again, err := svc.Update(ctx, registered.User.ID, &domain.UpdateUserRequest{
		FullName: &name,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Presales Lead"}, again.Roles)
	assert.Equal(t, "Jane A. Smith", again.FullName)
}

func TestUserService_Update_UnknownRoleID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createUserService(db)
	ctx := context.Background()

	role := seedRole(t, db, "Presales Member")
	registered, err := svc.Register(ctx, &domain.RegisterUserRequest{
		FullName: "Jane Smith",
		Email:    "jane@example.com",
		RoleIDs:  []uint{role.ID},
	})
	require.NoError(t, err)

	_, err = svc.Update(ctx, registered.User.ID, &domain.UpdateUserRequest{
		RoleIDs: []uint{99},
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = svc.Update(ctx, registered.User.ID, &domain.UpdateUserRequest{
		RegionIDs: []uint{99},
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	// The assignments are untouched after the rejected updates
	current, err := svc.GetByID(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Presales Member"}, current.Roles)
}

func TestUserService_Update_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createUserService(db)
	ctx := context.Background()

	role := seedRole(t, db, "Presales Member")

	_, err := svc.Register(ctx, &domain.RegisterUserRequest{
		FullName: "First",
		Email:    "first@example.com",
		RoleIDs:  []uint{role.ID},
	})
	require.NoError(t, err)

	second, err := svc.Register(ctx, &domain.RegisterUserRequest{
		FullName: "Second",
		Email:    "second@example.com",
		RoleIDs:  []uint{role.ID},
	})
	require.NoError(t, err)

	taken := "first@example.com"
	_, err = svc.Update(ctx, second.User.ID, &domain.UpdateUserRequest{Email: &taken})
	assert.ErrorIs(t, err, service.ErrDuplicateEmail)
}

func TestUserService_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createUserService(db)
	ctx := context.Background()

	role := seedRole(t, db, "Presales Member")
	registered, err := svc.Register(ctx, &domain.RegisterUserRequest{
		FullName: "Jane Smith",
		Email:    "jane@example.com",
		RoleIDs:  []uint{role.ID},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, registered.User.ID))

	_, err = svc.GetByID(ctx, registered.User.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	// The role itself survives the account deletion
	var count int64
	require.NoError(t, db.Model(&domain.Role{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
