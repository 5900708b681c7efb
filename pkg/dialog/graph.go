package dialog

import "github.com/aretw0/intake/pkg/domain"

// Edge is one documented transition of the dialog.
type Edge struct {
	From    domain.Step
	To      domain.Step
	Trigger string
}

// Edges lists the transitions of the booking dialog in questionnaire order.
// Self-loops (ignored input, help) are omitted.
func Edges() []Edge {
	edges := []Edge{
		{From: domain.StepIdle, To: domain.StepAwaitingTopic, Trigger: "/start or book"},
	}
	for _, step := range []domain.Step{
		domain.StepAwaitingTopic,
		domain.StepAwaitingName,
		domain.StepAwaitingPhone,
		domain.StepAwaitingDate,
	} {
		q := questions[step]
		edges = append(edges, Edge{From: step, To: q.next, Trigger: string(q.field)})
	}
	for _, step := range []domain.Step{
		domain.StepAwaitingTopic,
		domain.StepAwaitingName,
		domain.StepAwaitingPhone,
		domain.StepAwaitingDate,
	} {
		edges = append(edges, Edge{From: step, To: domain.StepIdle, Trigger: "/cancel or restart"})
	}
	edges = append(edges,
		Edge{From: domain.StepCommitting, To: domain.StepTerminal, Trigger: "saved or failed"},
		Edge{From: domain.StepTerminal, To: domain.StepIdle, Trigger: "next event"},
	)
	return edges
}
