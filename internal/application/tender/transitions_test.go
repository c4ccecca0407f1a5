package tender_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/licitaciones-api/internal/domain"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
)

// ── Approve ───────────────────────────────────────────────────────────────────

func TestApprove_Quorum(t *testing.T) {
	f := newFixture(t)
	id := f.seedTender(t, entity.TenderClosed, "A", "B")

	res, err := f.uc.Approve(context.Background(), memberA, id)
	require.NoError(t, err)
	assert.False(t, res.Transitioned)
	assert.Equal(t, string(entity.TenderClosed), res.Tender.Status)
	assert.Equal(t, []string{"A"}, res.Tender.Approvals)

	res, err = f.uc.Approve(context.Background(), memberB, id)
	require.NoError(t, err)
	assert.True(t, res.Transitioned)
	assert.Equal(t, string(entity.TenderClosedAndCanSeeBids), res.Tender.Status)
	assert.ElementsMatch(t, []string{"A", "B"}, res.Tender.Approvals)

	stored, err := f.store.Tenders().GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, entity.TenderClosedAndCanSeeBids, stored.Status)

	notice := f.store.MailsFor("sec")
	require.Len(t, notice, 1, "el creador recibe aviso al alcanzar quórum")
	assert.Equal(t, entity.MailTender, notice[0].Type)
}

func TestApprove_Idempotente(t *testing.T) {
	f := newFixture(t)
	id := f.seedTender(t, entity.TenderClosed, "A", "B")

	_, err := f.uc.Approve(context.Background(), memberA, id)
	require.NoError(t, err)
	res, err := f.uc.Approve(context.Background(), memberA, id)
	require.NoError(t, err)

	assert.Len(t, res.Tender.Approvals, 1)
	assert.Equal(t, string(entity.TenderClosed), res.Tender.Status)
}

func TestApprove_Errores(t *testing.T) {
	f := newFixture(t)
	closed := f.seedTender(t, entity.TenderClosed, "A")
	open := f.seedTender(t, entity.TenderOpen, "A")

	_, err := f.uc.Approve(context.Background(), bidderX, closed)
	assert.ErrorIs(t, err, domain.ErrForbidden, "rol sin approveTender")

	_, err = f.uc.Approve(context.Background(), memberB, closed)
	assert.ErrorIs(t, err, domain.ErrForbidden, "fuera del grupo de compras")

	_, err = f.uc.Approve(context.Background(), memberA, open)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.uc.Approve(context.Background(), memberA, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ── ChangeStatus ──────────────────────────────────────────────────────────────

func TestChangeStatus_DesdeOpenEsConflicto(t *testing.T) {
	f := newFixture(t)
	id := f.seedTender(t, entity.TenderOpen)

	_, err := f.uc.ChangeStatus(context.Background(), secretary, id, string(entity.TenderNegotiationCandidatesSelected))
	assert.ErrorIs(t, err, domain.ErrConflict)

	stored, _ := f.store.Tenders().GetByID(context.Background(), id)
	assert.Equal(t, entity.TenderOpen, stored.Status, "estado sin cambios")
}

func TestChangeStatus_NotificaOferentes(t *testing.T) {
	f := newFixture(t)
	id := f.seedTender(t, entity.TenderClosedAndCanSeeBids)
	f.seedBid(t, id, "b1", "X", 100)
	f.seedBid(t, id, "b2", "Y", 200)

	got, err := f.uc.ChangeStatus(context.Background(), secretary, id, string(entity.TenderNegotiationCandidatesSelected))
	require.NoError(t, err)
	assert.Equal(t, string(entity.TenderNegotiationCandidatesSelected), got.Status)
	assert.Len(t, f.store.MailsFor("X"), 1)
	assert.Len(t, f.store.MailsFor("Y"), 1)
}

func TestChangeStatus_EstadoNoManual(t *testing.T) {
	f := newFixture(t)
	id := f.seedTender(t, entity.TenderClosedAndCanSeeBids)

	_, err := f.uc.ChangeStatus(context.Background(), secretary, id, string(entity.TenderAwarded))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.ChangeStatus(context.Background(), memberA, id, string(entity.TenderNegotiationCandidatesSelected))
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ── SelectWinningBid ──────────────────────────────────────────────────────────

func TestSelectWinningBid_Escenario(t *testing.T) {
	f := newFixture(t)
	id := f.seedTender(t, entity.TenderClosedAndCanSeeBids)
	f.seedBid(t, id, "b1", "X", 100)
	f.seedBid(t, id, "b2", "Y", 200)

	got, err := f.uc.SelectWinningBid(context.Background(), secretary, id, "b1")
	require.NoError(t, err)
	assert.Equal(t, string(entity.TenderAwarded), got.Status)
	require.NotNil(t, got.WinningBidID)
	assert.Equal(t, "b1", *got.WinningBidID)

	b1, _ := f.store.Bids().GetByID(context.Background(), "b1")
	b2, _ := f.store.Bids().GetByID(context.Background(), "b2")
	assert.Equal(t, entity.BidWon, b1.Status)
	assert.Equal(t, entity.BidLost, b2.Status)

	winnerMails := f.store.MailsFor("X")
	require.Len(t, winnerMails, 1)
	assert.Equal(t, entity.MailBid, winnerMails[0].Type)
	assert.Equal(t, "b1", winnerMails[0].Related.ID)
	assert.Len(t, f.store.MailsFor("Y"), 1)
}

func TestSelectWinningBid_ReintentoIdempotente(t *testing.T) {
	f := newFixture(t)
	id := f.seedTender(t, entity.TenderClosedAndCanSeeBids)
	f.seedBid(t, id, "b1", "X", 100)
	f.seedBid(t, id, "b2", "Y", 200)

	_, err := f.uc.SelectWinningBid(context.Background(), secretary, id, "b1")
	require.NoError(t, err)
	_, err = f.uc.SelectWinningBid(context.Background(), secretary, id, "b1")
	require.NoError(t, err)

	assert.Len(t, f.store.MailsFor("X"), 1, "sin correos repetidos")
	won := 0
	bids, _ := f.store.Bids().ListByTender(context.Background(), id)
	for _, b := range bids {
		if b.Status == entity.BidWon {
			won++
		}
	}
	assert.Equal(t, 1, won)
}

func TestSelectWinningBid_DesdeCualquierEstado(t *testing.T) {
	f := newFixture(t)
	id := f.seedTender(t, entity.TenderOpen)
	f.seedBid(t, id, "b1", "X", 100)

	got, err := f.uc.SelectWinningBid(context.Background(), admin, id, "b1")
	require.NoError(t, err)
	assert.Equal(t, string(entity.TenderAwarded), got.Status)
}

func TestSelectWinningBid_OfertaAjena(t *testing.T) {
	f := newFixture(t)
	id := f.seedTender(t, entity.TenderClosedAndCanSeeBids)
	other := f.seedTender(t, entity.TenderOpen)
	f.seedBid(t, other, "b9", "X", 100)

	_, err := f.uc.SelectWinningBid(context.Background(), secretary, id, "b9")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	stored, _ := f.store.Tenders().GetByID(context.Background(), id)
	assert.Nil(t, stored.WinningBidID)
}

func TestSelectWinningBid_FalloDeCorreoPropaga(t *testing.T) {
	f := newFixture(t)
	id := f.seedTender(t, entity.TenderClosedAndCanSeeBids)
	f.seedBid(t, id, "b1", "X", 100)
	f.store.MailErr = errors.New("timeout")

	_, err := f.uc.SelectWinningBid(context.Background(), secretary, id, "b1")
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

// ── ListBids ──────────────────────────────────────────────────────────────────

func TestListBids_SegunEstado(t *testing.T) {
	cases := []struct {
		status  entity.TenderStatus
		allowed bool
	}{
		{entity.TenderOpen, false},
		{entity.TenderClosed, false},
		{entity.TenderNegotiationCandidatesSelected, false},
		{entity.TenderClosedAndCanSeeBids, true},
		{entity.TenderAwarded, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			f := newFixture(t)
			id := f.seedTender(t, tc.status)
			f.seedBid(t, id, "b1", "X", 100)

			got, err := f.uc.ListBids(context.Background(), admin, id)
			if !tc.allowed {
				assert.ErrorIs(t, err, domain.ErrForbidden)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, 1)
		})
	}
}

// ── CloseExpired ──────────────────────────────────────────────────────────────

func TestCloseExpired(t *testing.T) {
	f := newFixture(t)
	id := f.seedTender(t, entity.TenderOpen, "A", "B")

	ids, err := f.uc.CloseExpired(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)
	assert.Len(t, f.store.MailsFor("A"), 1, "aviso de aprobación pendiente")

	ids, err = f.uc.CloseExpired(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
