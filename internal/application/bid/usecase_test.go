package bid_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/licitaciones-api/internal/application/bid"
	"github.com/jhoicas/licitaciones-api/internal/application/dto"
	"github.com/jhoicas/licitaciones-api/internal/domain"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
	"github.com/jhoicas/licitaciones-api/internal/domain/permission"
	"github.com/jhoicas/licitaciones-api/internal/testutil/memstore"
)

var (
	bidderX = dto.Actor{UserID: "X", Role: entity.RoleTenderer}
	bidderZ = dto.Actor{UserID: "Z", Role: entity.RoleTenderer}
	memberA = dto.Actor{UserID: "A", Role: entity.RoleTenderProcurementGroup}
	sec     = dto.Actor{UserID: "sec", Role: entity.RoleSecretary}
)

type fixture struct {
	store *memstore.Store
	files *memstore.FileStore
	uc    *bid.UseCase
}

func newFixture(t *testing.T, status entity.TenderStatus) *fixture {
	t.Helper()
	s := memstore.New()
	ctx := context.Background()
	require.NoError(t, s.Tenders().Create(ctx, &entity.Tender{
		ID: "t1", Title: "Obra", Status: status, ClosingDate: time.Now().Add(time.Hour),
		TargetedUsers: []string{"X", "Z"},
	}))
	require.NoError(t, s.TendererDetails().Upsert(ctx, &entity.TendererDetails{
		UserID:                  "X",
		BusinessLicense:         &entity.FileDescriptor{Filename: "rut.pdf", Path: "mem/rut.pdf"},
		BusinessType:            "SAS",
		LegalRepresentative:     "Ana",
		UnifiedSocialCreditCode: "900123",
	}))
	fs := memstore.NewFileStore()
	return &fixture{
		store: s,
		files: fs,
		uc:    bid.NewUseCase(s.Bids(), s.Tenders(), s.TendererDetails(), fs, permission.Default(), zerolog.Nop()),
	}
}

func submit(amount int64) dto.SubmitBidRequest {
	return dto.SubmitBidRequest{Amount: decimal.NewFromInt(amount), Content: "propuesta"}
}

func TestSubmit_Exitoso(t *testing.T) {
	f := newFixture(t, entity.TenderOpen)

	got, err := f.uc.Submit(context.Background(), bidderX, "t1", submit(1000),
		[]dto.Upload{{Filename: "oferta.pdf", Reader: strings.NewReader("x")}})
	require.NoError(t, err)
	assert.Equal(t, string(entity.BidPending), got.Status)
	assert.Equal(t, "X", got.BidderID)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(1000)))
	assert.Len(t, got.Files, 1)
}

func TestSubmit_UnaOfertaPorLicitante(t *testing.T) {
	f := newFixture(t, entity.TenderOpen)

	_, err := f.uc.Submit(context.Background(), bidderX, "t1", submit(1000), nil)
	require.NoError(t, err)
	_, err = f.uc.Submit(context.Background(), bidderX, "t1", submit(900),
		[]dto.Upload{{Filename: "b.pdf", Reader: strings.NewReader("b")}})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Empty(t, f.files.Saved, "los archivos de la oferta rechazada se borran")
}

func TestSubmit_Precondiciones(t *testing.T) {
	closed := newFixture(t, entity.TenderClosed)
	_, err := closed.uc.Submit(context.Background(), bidderX, "t1", submit(1), nil)
	assert.ErrorIs(t, err, domain.ErrForbidden, "solo en Open")

	f := newFixture(t, entity.TenderOpen)
	_, err = f.uc.Submit(context.Background(), bidderZ, "t1", submit(1), nil)
	assert.ErrorIs(t, err, domain.ErrForbidden, "sin datos de licitante")

	_, err = f.uc.Submit(context.Background(), dto.Actor{UserID: "W", Role: entity.RoleTenderer}, "t1", submit(1), nil)
	assert.ErrorIs(t, err, domain.ErrForbidden, "no invitado")

	_, err = f.uc.Submit(context.Background(), sec, "t1", submit(1), nil)
	assert.ErrorIs(t, err, domain.ErrForbidden, "rol sin submitBid")

	_, err = f.uc.Submit(context.Background(), bidderX, "t1", submit(0), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.Submit(context.Background(), bidderX, "nope", submit(1), nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddEvaluation(t *testing.T) {
	f := newFixture(t, entity.TenderOpen)
	created, err := f.uc.Submit(context.Background(), bidderX, "t1", submit(1000), nil)
	require.NoError(t, err)

	_, err = f.uc.AddEvaluation(context.Background(), memberA, created.ID, dto.AddEvaluationRequest{Score: 80}, nil)
	assert.ErrorIs(t, err, domain.ErrForbidden, "ofertas aún no visibles")

	require.NoError(t, f.store.Tenders().UpdateStatus(context.Background(), "t1", entity.TenderClosedAndCanSeeBids, time.Now()))

	_, err = f.uc.AddEvaluation(context.Background(), memberA, created.ID, dto.AddEvaluationRequest{Score: 101}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.AddEvaluation(context.Background(), sec, created.ID, dto.AddEvaluationRequest{Score: 50}, nil)
	assert.ErrorIs(t, err, domain.ErrForbidden, "secretary no evalúa")

	_, err = f.uc.AddEvaluation(context.Background(), memberA, created.ID, dto.AddEvaluationRequest{Score: 80, Feedback: "bien"}, nil)
	require.NoError(t, err)
	got, err := f.uc.AddEvaluation(context.Background(), memberA, created.ID, dto.AddEvaluationRequest{Score: 60}, nil)
	require.NoError(t, err)

	require.Len(t, got.Evaluations, 2)
	assert.Equal(t, 80, got.Evaluations[0].Score, "orden de creación")
	assert.True(t, got.AverageScore.Equal(decimal.NewFromInt(70)))

	_, err = f.uc.AddEvaluation(context.Background(), memberA, "nope", dto.AddEvaluationRequest{Score: 60}, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGet_Visibilidad(t *testing.T) {
	f := newFixture(t, entity.TenderOpen)
	created, err := f.uc.Submit(context.Background(), bidderX, "t1", submit(1000), nil)
	require.NoError(t, err)

	_, err = f.uc.Get(context.Background(), bidderX, created.ID)
	assert.NoError(t, err, "el autor siempre la ve")

	_, err = f.uc.Get(context.Background(), bidderZ, created.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.uc.Get(context.Background(), memberA, created.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden, "licitación aún Open")

	mine, err := f.uc.ListMine(context.Background(), bidderX)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}
