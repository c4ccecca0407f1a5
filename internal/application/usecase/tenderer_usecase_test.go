package usecase_test

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/licitaciones-api/internal/application/dto"
	"github.com/jhoicas/licitaciones-api/internal/application/mail"
	"github.com/jhoicas/licitaciones-api/internal/application/usecase"
	"github.com/jhoicas/licitaciones-api/internal/domain"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
	"github.com/jhoicas/licitaciones-api/internal/domain/permission"
	"github.com/jhoicas/licitaciones-api/internal/testutil/memstore"
)

func newTendererUC(t *testing.T) (*usecase.TendererUseCase, *memstore.Store, *memstore.FileStore) {
	s := memstore.New()
	seedUsers(t, s)
	fs := memstore.NewFileStore()
	uc := usecase.NewTendererUseCase(s.TendererDetails(), s.Users(), s.Mails(), fs, permission.Default(),
		mail.NewNotifier(zerolog.Nop()))
	return uc, s, fs
}

func upload(name, body string) *dto.Upload {
	return &dto.Upload{Filename: name, Reader: strings.NewReader(body)}
}

var fullDetails = dto.SaveTendererDetailsRequest{
	BusinessType:            "SAS",
	LegalRepresentative:     "Ana Pérez",
	Country:                 "CO",
	UnifiedSocialCreditCode: "900123456",
}

func TestTendererSave(t *testing.T) {
	uc, _, fs := newTendererUC(t)
	ctx := context.Background()

	out, err := uc.Save(ctx, tenderer, fullDetails, usecase.TendererUploads{BusinessLicense: upload("rut.pdf", "v1")})
	require.NoError(t, err)
	assert.True(t, out.Complete)
	require.NotNil(t, out.BusinessLicense)
	first := out.BusinessLicense.Path

	out, err = uc.Save(ctx, tenderer, fullDetails, usecase.TendererUploads{BusinessLicense: upload("rut.pdf", "v2")})
	require.NoError(t, err)
	assert.NotEqual(t, first, out.BusinessLicense.Path)
	assert.Equal(t, []string{first}, fs.Deleted)

	// sin archivo nuevo se conserva el anterior
	out, err = uc.Save(ctx, tenderer, fullDetails, usecase.TendererUploads{})
	require.NoError(t, err)
	require.NotNil(t, out.BusinessLicense)

	_, err = uc.Save(ctx, member, fullDetails, usecase.TendererUploads{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestTendererGet(t *testing.T) {
	uc, _, _ := newTendererUC(t)
	ctx := context.Background()

	_, err := uc.Get(ctx, tenderer, "X")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.Save(ctx, tenderer, fullDetails, usecase.TendererUploads{})
	require.NoError(t, err)

	out, err := uc.Get(ctx, admin, "X")
	require.NoError(t, err)
	assert.False(t, out.Complete)

	_, err = uc.Get(ctx, dto.Actor{UserID: "Y", Role: entity.RoleTenderer}, "X")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestTendererVerifyAndComment(t *testing.T) {
	uc, s, _ := newTendererUC(t)
	ctx := context.Background()
	_, err := uc.Save(ctx, tenderer, fullDetails, usecase.TendererUploads{})
	require.NoError(t, err)

	_, err = uc.Verify(ctx, tenderer, "X", true)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	out, err := uc.Verify(ctx, admin, "X", true)
	require.NoError(t, err)
	assert.True(t, out.Verified)

	_, err = uc.AddComment(ctx, admin, "X", dto.CommentRequest{Text: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	out, err = uc.AddComment(ctx, admin, "X", dto.CommentRequest{Text: "Falta la tarjeta"})
	require.NoError(t, err)
	require.Len(t, out.Comments, 1)
	assert.Equal(t, "admin", out.Comments[0].CommenterID)

	// guardar de nuevo no borra verificación ni comentarios
	out, err = uc.Save(ctx, tenderer, fullDetails, usecase.TendererUploads{})
	require.NoError(t, err)
	assert.True(t, out.Verified)
	assert.Len(t, out.Comments, 1)

	mails := s.MailsFor("X")
	require.Len(t, mails, 2)
	for _, m := range mails {
		assert.Equal(t, entity.MailNotification, m.Type)
		assert.Equal(t, "X", m.Related.ID)
	}
}
