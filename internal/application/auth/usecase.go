package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/licitaciones-api/internal/application/dto"
	"github.com/jhoicas/licitaciones-api/internal/application/ports"
	"github.com/jhoicas/licitaciones-api/internal/domain"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
	"github.com/jhoicas/licitaciones-api/internal/domain/repository"
	"github.com/jhoicas/licitaciones-api/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// SMSConfig plantilla y vigencia de los códigos de login.
type SMSConfig struct {
	LoginTemplate string
	CodeTTL       time.Duration
}

// AuthUseCase casos de uso de autenticación: registro, login por password y login por código SMS.
type AuthUseCase struct {
	userRepo repository.UserRepository
	sms      ports.SMSSender
	codes    ports.CodeStore
	jwtCfg   JWTConfig
	smsCfg   SMSConfig
	log      zerolog.Logger
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, sms ports.SMSSender, codes ports.CodeStore, jwtCfg JWTConfig, smsCfg SMSConfig, log zerolog.Logger) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, sms: sms, codes: codes, jwtCfg: jwtCfg, smsCfg: smsCfg, log: log}
}

// RegisterUser alta pública: siempre con rol tenderer. Devuelve ErrEmailAlreadyExists / ErrPhoneAlreadyExists.
func (uc *AuthUseCase) RegisterUser(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	user, err := NewUser(in.Username, in.Email, in.Phone, in.Password, entity.RoleTenderer)
	if err != nil {
		return nil, err
	}
	if err := CheckUnique(ctx, uc.userRepo, user, ""); err != nil {
		return nil, err
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return dto.ToUserResponse(user), nil
}

// Login verifica email/password, genera JWT y retorna token + usuario.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	return uc.issue(user)
}

// RequestLoginCode envía un código de 6 dígitos al teléfono registrado.
// Un fallo del canal SMS se devuelve como ErrUpstream y el código no queda vigente.
func (uc *AuthUseCase) RequestLoginCode(ctx context.Context, in dto.LoginCodeRequest) error {
	phone := strings.TrimSpace(in.Phone)
	user, err := uc.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	code, err := newCode()
	if err != nil {
		return err
	}
	if err := uc.codes.Put(ctx, codeKey(phone), code, uc.smsCfg.CodeTTL); err != nil {
		return fmt.Errorf("guardar código: %w: %w", domain.ErrUpstream, err)
	}
	params := map[string]string{"code": code}
	if err := uc.sms.Send(ctx, phone, uc.smsCfg.LoginTemplate, params); err != nil {
		_, _, _ = uc.codes.Take(ctx, codeKey(phone))
		return fmt.Errorf("enviar SMS: %w: %w", domain.ErrUpstream, err)
	}
	uc.log.Info().Str("user_id", user.ID).Msg("código de login enviado")
	return nil
}

// LoginWithCode canjea el código (un solo uso) por un token.
func (uc *AuthUseCase) LoginWithCode(ctx context.Context, in dto.LoginWithCodeRequest) (*dto.LoginResponse, error) {
	phone := strings.TrimSpace(in.Phone)
	stored, ok, err := uc.codes.Take(ctx, codeKey(phone))
	if err != nil {
		return nil, fmt.Errorf("leer código: %w: %w", domain.ErrUpstream, err)
	}
	if !ok || stored != in.Code {
		return nil, domain.ErrUnauthorized
	}
	user, err := uc.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return uc.issue(user)
}

func (uc *AuthUseCase) issue(user *entity.User) (*dto.LoginResponse, error) {
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token: token,
		User:  *dto.ToUserResponse(user),
	}, nil
}

// NewUser valida los datos y arma un usuario con password hasheado.
func NewUser(username, email, phone, password, role string) (*entity.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	phone = strings.TrimSpace(phone)
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		return nil, fmt.Errorf("username requerido: %w", domain.ErrInvalidInput)
	case !strings.Contains(email, "@"):
		return nil, fmt.Errorf("email inválido: %w", domain.ErrInvalidInput)
	case phone == "":
		return nil, fmt.Errorf("teléfono requerido: %w", domain.ErrInvalidInput)
	case len(password) < 8:
		return nil, fmt.Errorf("el password debe tener al menos 8 caracteres: %w", domain.ErrInvalidInput)
	case !entity.ValidRole(role):
		return nil, fmt.Errorf("rol %q: %w", role, domain.ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &entity.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		Phone:        phone,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CheckUnique verifica email y teléfono contra otros usuarios distintos de selfID.
// El índice único de la base sigue siendo la garantía final.
func CheckUnique(ctx context.Context, repo repository.UserRepository, u *entity.User, selfID string) error {
	byEmail, err := repo.GetByEmail(ctx, u.Email)
	if err != nil {
		return err
	}
	if byEmail != nil && byEmail.ID != selfID {
		return domain.ErrEmailAlreadyExists
	}
	byPhone, err := repo.GetByPhone(ctx, u.Phone)
	if err != nil {
		return err
	}
	if byPhone != nil && byPhone.ID != selfID {
		return domain.ErrPhoneAlreadyExists
	}
	return nil
}

func codeKey(phone string) string { return "login-code:" + phone }

func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", errors.Join(domain.ErrUpstream, err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
