package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/licitaciones-api/internal/application/auth"
	"github.com/jhoicas/licitaciones-api/internal/application/dto"
	"github.com/jhoicas/licitaciones-api/internal/domain"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
	"github.com/jhoicas/licitaciones-api/internal/domain/permission"
	"github.com/jhoicas/licitaciones-api/internal/domain/repository"
)

// UserUseCase aplica reglas de negocio para usuarios: perfil propio y administración.
type UserUseCase struct {
	repo  repository.UserRepository
	perms *permission.Table
	names SenderNameCache
}

// SenderNameCache caché de nombres de remitente que debe olvidar a un usuario modificado.
type SenderNameCache interface {
	ForgetSender(userID string)
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
func NewUserUseCase(repo repository.UserRepository, perms *permission.Table) *UserUseCase {
	return &UserUseCase{repo: repo, perms: perms}
}

// WithSenderNames registra la caché a invalidar cuando cambia el nombre visible de un usuario.
func (uc *UserUseCase) WithSenderNames(c SenderNameCache) *UserUseCase {
	uc.names = c
	return uc
}

func (uc *UserUseCase) forget(userID string) {
	if uc.names != nil {
		uc.names.ForgetSender(userID)
	}
}

// Me perfil del actor.
func (uc *UserUseCase) Me(ctx context.Context, actor dto.Actor) (*dto.UserResponse, error) {
	u, err := uc.get(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return dto.ToUserResponse(u), nil
}

// UpdateSettings cambia datos propios. Cambiar el password exige el actual.
func (uc *UserUseCase) UpdateSettings(ctx context.Context, actor dto.Actor, in dto.UpdateSettingsRequest) (*dto.UserResponse, error) {
	u, err := uc.get(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(in.Username); v != "" {
		u.Username = v
	}
	if v := strings.ToLower(strings.TrimSpace(in.Email)); v != "" {
		if !strings.Contains(v, "@") {
			return nil, fmt.Errorf("email inválido: %w", domain.ErrInvalidInput)
		}
		u.Email = v
	}
	if v := strings.TrimSpace(in.Phone); v != "" {
		u.Phone = v
	}
	if in.NewPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.CurrentPassword)); err != nil {
			return nil, domain.ErrUnauthorized
		}
		if len(in.NewPassword) < 8 {
			return nil, fmt.Errorf("el password debe tener al menos 8 caracteres: %w", domain.ErrInvalidInput)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = string(hash)
	}
	if err := auth.CheckUnique(ctx, uc.repo, u, u.ID); err != nil {
		return nil, err
	}
	u.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	uc.forget(u.ID)
	return dto.ToUserResponse(u), nil
}

// CreateUser alta por un admin con cualquier rol.
func (uc *UserUseCase) CreateUser(ctx context.Context, actor dto.Actor, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := uc.perms.Require(actor.Role, permission.ManageUsers); err != nil {
		return nil, err
	}
	u, err := auth.NewUser(in.Username, in.Email, in.Phone, in.Password, in.Role)
	if err != nil {
		return nil, err
	}
	if err := auth.CheckUnique(ctx, uc.repo, u, ""); err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return dto.ToUserResponse(u), nil
}

// ListUsers listado paginado; role vacío lista todos. Lo usan también quienes arman grupos de compras.
func (uc *UserUseCase) ListUsers(ctx context.Context, actor dto.Actor, role string, page dto.PageRequest) (*dto.UserListResponse, error) {
	if !uc.perms.HasPermission(actor.Role, permission.ManageUsers) &&
		!uc.perms.HasPermission(actor.Role, permission.CreateTender) {
		return nil, domain.ErrForbidden
	}
	if role != "" && !entity.ValidRole(role) {
		return nil, fmt.Errorf("rol %q: %w", role, domain.ErrInvalidInput)
	}
	page.DefaultPage()
	list, total, err := uc.repo.List(ctx, role, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		items = append(items, *dto.ToUserResponse(u))
	}
	return &dto.UserListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

// ChangeRole cambia el rol de otro usuario. Un admin no puede quitarse su propio rol.
func (uc *UserUseCase) ChangeRole(ctx context.Context, actor dto.Actor, userID, role string) (*dto.UserResponse, error) {
	if err := uc.perms.Require(actor.Role, permission.ManageUsers); err != nil {
		return nil, err
	}
	if !entity.ValidRole(role) {
		return nil, fmt.Errorf("rol %q: %w", role, domain.ErrInvalidInput)
	}
	if userID == actor.UserID && role != actor.Role {
		return nil, fmt.Errorf("no puede cambiar su propio rol: %w", domain.ErrConflict)
	}
	u, err := uc.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.Role = role
	u.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return dto.ToUserResponse(u), nil
}

// DeleteUser borra la cuenta. Las referencias en licitaciones (invitados, grupo) no se limpian.
func (uc *UserUseCase) DeleteUser(ctx context.Context, actor dto.Actor, userID string) error {
	if err := uc.perms.Require(actor.Role, permission.ManageUsers); err != nil {
		return err
	}
	if userID == actor.UserID {
		return fmt.Errorf("no puede borrarse a sí mismo: %w", domain.ErrConflict)
	}
	if _, err := uc.get(ctx, userID); err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, userID); err != nil {
		return err
	}
	uc.forget(userID)
	return nil
}

func (uc *UserUseCase) get(ctx context.Context, id string) (*entity.User, error) {
	u, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}
