package form

// Step is one page of the proposal wizard. Steps are a fixed ordered
// sequence; a step cannot be left forward until its validation passes.
type Step int

const (
	StepGeneral Step = iota + 1
	StepObjectives
	StepActivities
	StepResources
	StepBudget
	StepReview

	firstStep = StepGeneral
	lastStep  = StepReview
)

func (s Step) String() string {
	switch s {
	case StepGeneral:
		return "general"
	case StepObjectives:
		return "objectives"
	case StepActivities:
		return "activities"
	case StepResources:
		return "resources"
	case StepBudget:
		return "budget"
	case StepReview:
		return "review"
	}
	return "unknown"
}

// Scalar field names, shared between the draft, the error map, and the API.
const (
	FieldName        = "name"
	FieldPlace       = "place"
	FieldResponsible = "responsible"
	FieldDate        = "date"
	FieldTime        = "time"
	FieldTypes       = "type_ids"
	FieldObjectives  = "objectives"
	FieldSegments    = "target_segments"
)

// List names as addressed by the API and by row-scoped error keys.
const (
	ListBefore   = "activities_before"
	ListDuring   = "activities_during"
	ListAfter    = "activities_after"
	ListServices = "services"
	ListRooms    = "rooms"
	ListIngresos = "ingresos"
	ListEgresos  = "egresos"
)

// fieldSteps maps every known field or list, including the Spanish wire
// names the event repository uses in its error responses, to the step that
// owns it. Server-side rejections are rewound to the lowest mapped step.
var fieldSteps = map[string]Step{
	FieldName:        StepGeneral,
	FieldPlace:       StepGeneral,
	FieldResponsible: StepGeneral,
	FieldDate:        StepGeneral,
	FieldTime:        StepGeneral,
	FieldTypes:       StepGeneral,
	"nombreevento":       StepGeneral,
	"lugarevento":        StepGeneral,
	"responsable_evento": StepGeneral,
	"fechaevento":        StepGeneral,
	"horaevento":         StepGeneral,
	"tipos_de_evento":    StepGeneral,

	FieldObjectives:      StepObjectives,
	FieldSegments:        StepObjectives,
	"objetivos":          StepObjectives,
	"segmentos_objetivo": StepObjectives,

	ListBefore:           StepActivities,
	ListDuring:           StepActivities,
	ListAfter:            StepActivities,
	"actividadesPrevias": StepActivities,
	"actividadesDurante": StepActivities,
	"actividadesPost":    StepActivities,

	ListServices:          StepResources,
	ListRooms:             StepResources,
	"serviciosContratados": StepResources,
	"ambientes":            StepResources,
	"recursos":             StepResources,
	"recursos_nuevos":      StepResources,

	ListIngresos:  StepBudget,
	ListEgresos:   StepBudget,
	"presupuesto": StepBudget,
}

// StepForField resolves a flat field name or a structured server error path
// (e.g. "actividadesPrevias[2].responsable") to its owning step.
func StepForField(path string) (Step, bool) {
	if s, ok := fieldSteps[path]; ok {
		return s, true
	}
	// Structured paths: take the segment before the first '[' or '.'.
	for i, r := range path {
		if r == '[' || r == '.' {
			if s, ok := fieldSteps[path[:i]]; ok {
				return s, true
			}
			break
		}
	}
	return 0, false
}
