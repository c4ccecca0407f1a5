package usecase_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/licitaciones-api/internal/application/dto"
	"github.com/jhoicas/licitaciones-api/internal/application/usecase"
	"github.com/jhoicas/licitaciones-api/internal/domain"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
	"github.com/jhoicas/licitaciones-api/internal/domain/permission"
	"github.com/jhoicas/licitaciones-api/internal/testutil/memstore"
)

var (
	admin    = dto.Actor{UserID: "admin", Role: entity.RoleAdmin}
	tenderer = dto.Actor{UserID: "X", Role: entity.RoleTenderer}
	member   = dto.Actor{UserID: "A", Role: entity.RoleTenderProcurementGroup}
)

func seedUsers(t *testing.T, s *memstore.Store) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secreta123"), bcrypt.MinCost)
	require.NoError(t, err)
	for _, a := range []dto.Actor{admin, tenderer, member} {
		require.NoError(t, s.Users().Create(context.Background(), &entity.User{
			ID: a.UserID, Username: a.UserID, Email: strings.ToLower(a.UserID) + "@x.com", Phone: "+57" + a.UserID,
			PasswordHash: string(hash), Role: a.Role,
		}))
	}
}

func newUserUC(t *testing.T) (*usecase.UserUseCase, *memstore.Store) {
	s := memstore.New()
	seedUsers(t, s)
	return usecase.NewUserUseCase(s.Users(), permission.Default()), s
}

func TestMe(t *testing.T) {
	uc, _ := newUserUC(t)
	out, err := uc.Me(context.Background(), tenderer)
	require.NoError(t, err)
	assert.Equal(t, "x@x.com", out.Email)

	_, err = uc.Me(context.Background(), dto.Actor{UserID: "nadie"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUpdateSettings(t *testing.T) {
	uc, s := newUserUC(t)
	ctx := context.Background()

	out, err := uc.UpdateSettings(ctx, tenderer, dto.UpdateSettingsRequest{Username: "Proveedor X", Email: "NUEVO@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "Proveedor X", out.Username)
	assert.Equal(t, "nuevo@x.com", out.Email)

	_, err = uc.UpdateSettings(ctx, tenderer, dto.UpdateSettingsRequest{Email: "A@x.com"})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	_, err = uc.UpdateSettings(ctx, tenderer, dto.UpdateSettingsRequest{CurrentPassword: "mal", NewPassword: "otraclave99"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.UpdateSettings(ctx, tenderer, dto.UpdateSettingsRequest{CurrentPassword: "secreta123", NewPassword: "otraclave99"})
	require.NoError(t, err)
	u, err := s.Users().GetByID(ctx, "X")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("otraclave99")))
}

func TestCreateUser_SoloAdmin(t *testing.T) {
	uc, _ := newUserUC(t)
	in := dto.CreateUserRequest{Username: "sec", Email: "sec@x.com", Phone: "+57sec", Password: "secreta123", Role: entity.RoleSecretary}

	_, err := uc.CreateUser(context.Background(), tenderer, in)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	out, err := uc.CreateUser(context.Background(), admin, in)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleSecretary, out.Role)

	_, err = uc.CreateUser(context.Background(), admin, in)
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestListUsers(t *testing.T) {
	uc, _ := newUserUC(t)
	ctx := context.Background()

	out, err := uc.ListUsers(ctx, admin, entity.RoleTenderer, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "X", out.Items[0].ID)
	assert.Equal(t, 20, out.Page.Limit)

	_, err = uc.ListUsers(ctx, admin, "jefe", dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.ListUsers(ctx, tenderer, "", dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestChangeRole(t *testing.T) {
	uc, _ := newUserUC(t)
	ctx := context.Background()

	out, err := uc.ChangeRole(ctx, admin, "X", entity.RoleSecretary)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleSecretary, out.Role)

	_, err = uc.ChangeRole(ctx, admin, "admin", entity.RoleTenderer)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = uc.ChangeRole(ctx, admin, "X", "jefe")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.ChangeRole(ctx, member, "X", entity.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

type senderNames struct{ forgotten []string }

func (c *senderNames) ForgetSender(id string) { c.forgotten = append(c.forgotten, id) }

func TestUpdateSettings_OlvidaNombreCacheado(t *testing.T) {
	uc, _ := newUserUC(t)
	names := &senderNames{}
	uc.WithSenderNames(names)
	ctx := context.Background()

	_, err := uc.UpdateSettings(ctx, tenderer, dto.UpdateSettingsRequest{Email: "a@x.com"})
	require.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
	assert.Empty(t, names.forgotten)

	_, err = uc.UpdateSettings(ctx, tenderer, dto.UpdateSettingsRequest{Username: "Proveedor X"})
	require.NoError(t, err)
	require.NoError(t, uc.DeleteUser(ctx, admin, "A"))
	assert.Equal(t, []string{"X", "A"}, names.forgotten)
}

func TestDeleteUser(t *testing.T) {
	uc, s := newUserUC(t)
	ctx := context.Background()

	assert.ErrorIs(t, uc.DeleteUser(ctx, admin, "admin"), domain.ErrConflict)
	assert.ErrorIs(t, uc.DeleteUser(ctx, admin, "nadie"), domain.ErrUserNotFound)
	require.NoError(t, uc.DeleteUser(ctx, admin, "X"))

	u, err := s.Users().GetByID(ctx, "X")
	require.NoError(t, err)
	assert.Nil(t, u)
}
