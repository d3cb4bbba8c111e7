// internal/status/status.go
package status

import (
	"errors"
	"fmt"
)

// Phase agrupa statuses por etapa do workflow.
type Phase string

const (
	PhaseSign     Phase = "SIGN"
	PhaseBuild    Phase = "BUILD"
	PhaseCollect  Phase = "COLLECT"
	PhaseComplete Phase = "COMPLETE"
	PhaseSide     Phase = "SIDE" // on_hold / cancelled, reachable from anywhere
)

// Current statuses of the deal workflow.
const (
	Lead                  = "lead"
	Signed                = "signed"
	InstallScheduled      = "install_scheduled"
	Installed             = "installed"
	CollectACV            = "collect_acv"
	CollectDeductible     = "collect_deductible"
	InvoiceSent           = "invoice_sent"
	DepreciationCollected = "depreciation_collected"
	Pending               = "pending"
	Complete              = "complete"
	Paid                  = "paid"
	OnHold                = "on_hold"
	Cancelled             = "cancelled"
)

// Legacy statuses still found on old deals. Accepted as stored data,
// never as the target of a new transition.
const (
	LegacyPermit             = "permit"
	LegacyMaterialsOrdered   = "materials_ordered"
	LegacyMaterialsDelivered = "materials_delivered"
	LegacyAdjusterScheduled  = "adjuster_scheduled"
)

// ErrUnknownStatus is returned by Describe for any value outside the taxonomy.
var ErrUnknownStatus = errors.New("unknown status")

// Info descreve um status: fase, rank de ordenação, label e flags.
type Info struct {
	Status       string
	Phase        Phase
	Rank         int
	Label        string
	AdminOnly    bool
	Legacy       bool
	SupersededBy string
}

// Rank order follows the workflow; side branches share the highest
// non-terminal rank of the status they pause, so they never count as a
// forward move (they are handled explicitly by the validator anyway).
var table = map[string]Info{
	Lead:                  {Status: Lead, Phase: PhaseSign, Rank: 0, Label: "Lead"},
	Signed:                {Status: Signed, Phase: PhaseSign, Rank: 1, Label: "Contract Signed"},
	InstallScheduled:      {Status: InstallScheduled, Phase: PhaseBuild, Rank: 2, Label: "Install Scheduled", AdminOnly: true},
	Installed:             {Status: Installed, Phase: PhaseBuild, Rank: 3, Label: "Installed", AdminOnly: true},
	CollectACV:            {Status: CollectACV, Phase: PhaseCollect, Rank: 4, Label: "Collect ACV", AdminOnly: true},
	CollectDeductible:     {Status: CollectDeductible, Phase: PhaseCollect, Rank: 5, Label: "Collect Deductible", AdminOnly: true},
	InvoiceSent:           {Status: InvoiceSent, Phase: PhaseCollect, Rank: 6, Label: "Invoice Sent", AdminOnly: true},
	DepreciationCollected: {Status: DepreciationCollected, Phase: PhaseCollect, Rank: 7, Label: "Depreciation Collected", AdminOnly: true},
	Pending:               {Status: Pending, Phase: PhaseCollect, Rank: 8, Label: "Payment Requested"},
	Complete:              {Status: Complete, Phase: PhaseComplete, Rank: 9, Label: "Complete", AdminOnly: true},
	Paid:                  {Status: Paid, Phase: PhaseComplete, Rank: 10, Label: "Paid", AdminOnly: true},
	OnHold:                {Status: OnHold, Phase: PhaseSide, Rank: 0, Label: "On Hold"},
	Cancelled:             {Status: Cancelled, Phase: PhaseSide, Rank: 0, Label: "Cancelled"},

	LegacyPermit:             {Status: LegacyPermit, Phase: PhaseBuild, Rank: 2, Label: "Permit (legacy)", Legacy: true, SupersededBy: InstallScheduled},
	LegacyMaterialsOrdered:   {Status: LegacyMaterialsOrdered, Phase: PhaseBuild, Rank: 2, Label: "Materials Ordered (legacy)", Legacy: true, SupersededBy: InstallScheduled},
	LegacyMaterialsDelivered: {Status: LegacyMaterialsDelivered, Phase: PhaseBuild, Rank: 2, Label: "Materials Delivered (legacy)", Legacy: true, SupersededBy: InstallScheduled},
	LegacyAdjusterScheduled:  {Status: LegacyAdjusterScheduled, Phase: PhaseSign, Rank: 1, Label: "Adjuster Scheduled (legacy)", Legacy: true, SupersededBy: Signed},
}

// Describe retorna os metadados de um status.
func Describe(s string) (Info, error) {
	info, ok := table[s]
	if !ok {
		return Info{}, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return info, nil
}

// IsKnown reports whether s belongs to the taxonomy (legacy included).
func IsKnown(s string) bool {
	_, ok := table[s]
	return ok
}

// IsTerminal reports whether no forward edge leaves s.
func IsTerminal(s string) bool {
	return s == Paid || s == Cancelled
}

// All returns every current (non-legacy) status, in rank order.
func All() []string {
	return []string{
		Lead, Signed,
		InstallScheduled, Installed,
		CollectACV, CollectDeductible, InvoiceSent, DepreciationCollected, Pending,
		Complete, Paid,
		OnHold, Cancelled,
	}
}

// Rank resolves the ordering rank of a status. Legacy aliases rank as
// the status that superseded them, so old data compares correctly.
func Rank(s string) (int, error) {
	info, err := Describe(s)
	if err != nil {
		return 0, err
	}
	return info.Rank, nil
}
