package tender

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
)

var (
	// tenderTransitionsTotal transiciones de estado aplicadas.
	tenderTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "licitaciones_tender_transitions_total",
			Help: "Transiciones de estado de licitaciones",
		},
		[]string{"from", "to"},
	)

	// tenderApprovalsTotal aprobaciones nuevas registradas (las repetidas no cuentan).
	tenderApprovalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "licitaciones_tender_approvals_total",
		Help: "Aprobaciones registradas por miembros del grupo de compras",
	})
)

func recordTransition(from, to entity.TenderStatus) {
	if from == to {
		return
	}
	tenderTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
}
