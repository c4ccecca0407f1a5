package lifecycle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/licitaciones-api/internal/domain"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
	"github.com/jhoicas/licitaciones-api/internal/domain/lifecycle"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func closedTender(group ...string) *entity.Tender {
	return &entity.Tender{ID: "t1", Status: entity.TenderClosed, ProcurementGroup: group}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to entity.TenderStatus
		want     bool
	}{
		{entity.TenderOpen, entity.TenderClosed, true},
		{entity.TenderClosed, entity.TenderClosedAndCanSeeBids, true},
		{entity.TenderClosedAndCanSeeBids, entity.TenderNegotiationCandidatesSelected, true},
		{entity.TenderOpen, entity.TenderAwarded, true},
		{entity.TenderNegotiationCandidatesSelected, entity.TenderAwarded, true},
		{entity.TenderOpen, entity.TenderClosedAndCanSeeBids, false},
		{entity.TenderClosed, entity.TenderOpen, false},
		{entity.TenderAwarded, entity.TenderOpen, false},
		{entity.TenderStatus("Failed"), entity.TenderAwarded, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, lifecycle.CanTransition(tt.from, tt.to), "%s → %s", tt.from, tt.to)
	}
}

// Escenario: grupo [A, B]. A aprueba → sigue Closed. B aprueba → ClosedAndCanSeeBids.
func TestApprove_QuorumEscenario(t *testing.T) {
	tender := closedTender("A", "B")

	res, err := lifecycle.Approve(tender, "A", now)
	require.NoError(t, err)
	assert.True(t, res.Added)
	assert.False(t, res.Transitioned)
	assert.Equal(t, entity.TenderClosed, tender.Status)
	assert.Equal(t, []string{"A"}, tender.Approvals)

	res, err = lifecycle.Approve(tender, "B", now)
	require.NoError(t, err)
	assert.True(t, res.Transitioned)
	assert.Equal(t, entity.TenderClosedAndCanSeeBids, tender.Status)
	assert.ElementsMatch(t, []string{"A", "B"}, tender.Approvals)
	require.NoError(t, lifecycle.CheckInvariants(tender))
}

func TestApprove_Idempotente(t *testing.T) {
	tender := closedTender("A", "B")

	_, err := lifecycle.Approve(tender, "A", now)
	require.NoError(t, err)
	res, err := lifecycle.Approve(tender, "A", now)
	require.NoError(t, err)

	assert.False(t, res.Added, "aprobar dos veces no agrega nada")
	assert.Len(t, tender.Approvals, 1)
	assert.Equal(t, entity.TenderClosed, tender.Status)
}

func TestApprove_FueraDelGrupo(t *testing.T) {
	tender := closedTender("A")
	_, err := lifecycle.Approve(tender, "Z", now)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, tender.Approvals, "approvals ⊆ procurementGroup")
}

func TestApprove_EstadoIncorrecto(t *testing.T) {
	for _, s := range []entity.TenderStatus{entity.TenderOpen, entity.TenderClosedAndCanSeeBids, entity.TenderAwarded} {
		tender := closedTender("A")
		tender.Status = s
		_, err := lifecycle.Approve(tender, "A", now)
		assert.ErrorIs(t, err, domain.ErrConflict, "estado %s", s)
		assert.Equal(t, s, tender.Status)
	}
}

func TestQuorumMet(t *testing.T) {
	assert.False(t, lifecycle.QuorumMet(nil, nil), "grupo vacío no alcanza quórum")
	assert.False(t, lifecycle.QuorumMet([]string{"A", "B"}, []string{"A"}))
	assert.True(t, lifecycle.QuorumMet([]string{"A", "B"}, []string{"B", "A"}))
	// cantidad igual pero identidades distintas
	assert.False(t, lifecycle.QuorumMet([]string{"A", "B"}, []string{"A", "C"}))
}

func TestReevaluateQuorum_CambioDeGrupo(t *testing.T) {
	tender := closedTender("A", "B")
	_, err := lifecycle.Approve(tender, "A", now)
	require.NoError(t, err)

	// se quita B del grupo: A ya es quórum
	tender.ProcurementGroup = []string{"A"}
	assert.True(t, lifecycle.ReevaluateQuorum(tender))
	assert.Equal(t, entity.TenderClosedAndCanSeeBids, tender.Status)

	// se quita A: su aprobación se poda
	other := closedTender("A", "B")
	other.Approvals = []string{"A"}
	other.ProcurementGroup = []string{"B", "C"}
	assert.False(t, lifecycle.ReevaluateQuorum(other))
	assert.Empty(t, other.Approvals)
}

func TestSelectNegotiationCandidates(t *testing.T) {
	tender := &entity.Tender{Status: entity.TenderClosedAndCanSeeBids}
	require.NoError(t, lifecycle.SelectNegotiationCandidates(tender, now))
	assert.Equal(t, entity.TenderNegotiationCandidatesSelected, tender.Status)

	open := &entity.Tender{Status: entity.TenderOpen}
	err := lifecycle.SelectNegotiationCandidates(open, now)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, entity.TenderOpen, open.Status, "el estado no cambia")
}

func TestCloseIfExpired(t *testing.T) {
	tender := &entity.Tender{Status: entity.TenderOpen, ClosingDate: now.Add(-time.Minute)}
	assert.True(t, lifecycle.CloseIfExpired(tender, now))
	assert.Equal(t, entity.TenderClosed, tender.Status)
	assert.False(t, lifecycle.CloseIfExpired(tender, now), "idempotente")

	future := &entity.Tender{Status: entity.TenderOpen, ClosingDate: now.Add(time.Hour)}
	assert.False(t, lifecycle.CloseIfExpired(future, now))
}

func TestAwardStatuses(t *testing.T) {
	got, err := lifecycle.AwardStatuses([]string{"b1", "b2", "b3"}, "b2")
	require.NoError(t, err)
	assert.Equal(t, map[string]entity.BidStatus{
		"b1": entity.BidLost,
		"b2": entity.BidWon,
		"b3": entity.BidLost,
	}, got)

	_, err = lifecycle.AwardStatuses([]string{"b1"}, "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAward(t *testing.T) {
	tender := &entity.Tender{Status: entity.TenderClosedAndCanSeeBids}
	assert.True(t, lifecycle.Award(tender, "b1", now))
	assert.Equal(t, entity.TenderAwarded, tender.Status)
	require.NotNil(t, tender.WinningBidID)
	assert.Equal(t, "b1", *tender.WinningBidID)
	require.NoError(t, lifecycle.CheckInvariants(tender))

	assert.False(t, lifecycle.Award(tender, "b1", now), "misma oferta: sin cambios")
	assert.True(t, lifecycle.Award(tender, "b2", now))
	assert.Equal(t, "b2", *tender.WinningBidID)
}

func TestCheckInvariants(t *testing.T) {
	bid := "b1"
	assert.ErrorIs(t, lifecycle.CheckInvariants(&entity.Tender{Status: entity.TenderOpen, WinningBidID: &bid}), domain.ErrConflict)
	assert.ErrorIs(t, lifecycle.CheckInvariants(&entity.Tender{Status: entity.TenderAwarded}), domain.ErrConflict)
	assert.ErrorIs(t, lifecycle.CheckInvariants(&entity.Tender{Status: entity.TenderClosed, Approvals: []string{"X"}}), domain.ErrConflict)
	assert.NoError(t, lifecycle.CheckInvariants(&entity.Tender{Status: entity.TenderOpen}))
}
