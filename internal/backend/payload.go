package backend

import (
	"github.com/mvallejoc/eventum/internal/form"
)

// Proposal is the aggregate POST /eventos payload, in the repository's wire
// vocabulary.
type Proposal struct {
	Name        string `json:"nombreevento"`
	Place       string `json:"lugarevento"`
	Responsible string `json:"responsable_evento"`
	Date        string `json:"fechaevento"`
	Time        string `json:"horaevento"` // HH:mm:ss

	ActivitiesBefore []ActivityPayload `json:"actividadesPrevias"`
	ActivitiesDuring []ActivityPayload `json:"actividadesDurante"`
	ActivitiesAfter  []ActivityPayload `json:"actividadesPost"`
	Services         []ServicePayload  `json:"serviciosContratados"`
	Rooms            []string          `json:"ambientes"`
	EventTypes       []int             `json:"tipos_de_evento"`
	Objectives       []string          `json:"objetivos"`
	TargetSegments   []string          `json:"segmentos_objetivo"`
	Resources        []string          `json:"recursos"`
	NewResources     []string          `json:"recursos_nuevos"`
	Budget           BudgetPayload     `json:"presupuesto"`
}

// ActivityPayload serializes one activity row.
type ActivityPayload struct {
	Name        string `json:"nombreActividad"`
	Responsible string `json:"responsable"`
	StartDate   string `json:"fechaInicio"` // YYYY-MM-DD
	EndDate     string `json:"fechaFin"`
}

// ServicePayload serializes one contracted-service row.
type ServicePayload struct {
	Name     string `json:"nombre"`
	Provider string `json:"proveedor"`
}

// LinePayload serializes one budget line with its derived total.
type LinePayload struct {
	Description string  `json:"descripcion"`
	Quantity    string  `json:"cantidad"`
	UnitPrice   string  `json:"precio_unitario"`
	Total       float64 `json:"total"`
}

// BudgetPayload carries both ledgers plus their derived totals and balance.
// Totals are recomputed here at serialization time, never read from state.
type BudgetPayload struct {
	Ingresos      []LinePayload `json:"ingresos"`
	Egresos       []LinePayload `json:"egresos"`
	TotalIngresos float64       `json:"total_ingresos"`
	TotalEgresos  float64       `json:"total_egresos"`
	Balance       float64       `json:"balance"`
}

// ProposalFromDraft flattens a draft into the aggregate wire payload.
func ProposalFromDraft(d *form.Draft) *Proposal {
	p := &Proposal{
		Name:             d.Name,
		Place:            d.Place,
		Responsible:      d.Responsible,
		Date:             d.Date,
		Time:             d.Time.Wire(),
		ActivitiesBefore: activities(d.Before),
		ActivitiesDuring: activities(d.During),
		ActivitiesAfter:  activities(d.After),
		EventTypes:       emptyNotNil(d.TypeIDs),
		Objectives:       emptyNotNil(d.Objectives),
		TargetSegments:   emptyNotNil(d.TargetSegments),
		Resources:        emptyNotNil(d.Resources),
		NewResources:     emptyNotNil(d.NewResources),
	}

	p.Services = make([]ServicePayload, 0, d.Services.Len())
	for _, r := range d.Services.Rows() {
		p.Services = append(p.Services, ServicePayload{Name: r.Data.Name, Provider: r.Data.Provider})
	}
	p.Rooms = make([]string, 0, d.Rooms.Len())
	for _, r := range d.Rooms.Rows() {
		p.Rooms = append(p.Rooms, r.Data.Name)
	}

	ingresos := d.Ingresos.Rows()
	egresos := d.Egresos.Rows()
	p.Budget = BudgetPayload{
		Ingresos:      lines(ingresos),
		Egresos:       lines(egresos),
		TotalIngresos: form.LedgerTotal(ingresos),
		TotalEgresos:  form.LedgerTotal(egresos),
		Balance:       form.Balance(ingresos, egresos),
	}
	return p
}

func activities(l *form.List[form.Activity]) []ActivityPayload {
	rows := l.Rows()
	out := make([]ActivityPayload, 0, len(rows))
	for _, r := range rows {
		out = append(out, ActivityPayload{
			Name:        r.Data.Name,
			Responsible: r.Data.Responsible,
			StartDate:   r.Data.StartDate,
			EndDate:     r.Data.EndDate,
		})
	}
	return out
}

func lines(rows []form.Row[form.LineItem]) []LinePayload {
	out := make([]LinePayload, 0, len(rows))
	for _, r := range rows {
		out = append(out, LinePayload{
			Description: r.Data.Description,
			Quantity:    r.Data.Quantity,
			UnitPrice:   r.Data.UnitPrice,
			Total:       r.Data.LineTotal(),
		})
	}
	return out
}

// emptyNotNil keeps JSON arrays as [] instead of null, which the repository
// requires for list fields.
func emptyNotNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
