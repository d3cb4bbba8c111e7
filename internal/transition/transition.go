// internal/transition/transition.go
package transition

import (
	"fmt"

	"github.com/ApexRestoration/api-sales/internal/status"
)

// Role do ator que pede a transição.
type Role string

const (
	RoleRep   Role = "rep"
	RoleAdmin Role = "admin"
)

// Snapshot is the slice of deal state the validator reads. Callers map
// their persisted deal into it; the validator never writes anything.
type Snapshot struct {
	Status           string
	ContractSigned   bool
	PermitFileURL    string
	HasInstallDate   bool
	InstallImages    int
	CompletionImages int
}

// DenyCode identifica o motivo de uma recusa.
type DenyCode string

const (
	CodeUnknownStatus       DenyCode = "UnknownStatus"
	CodeIllegalTargetStatus DenyCode = "IllegalTargetStatus"
	CodeInsufficientRole    DenyCode = "InsufficientRole"
	CodePreconditionNotMet  DenyCode = "PreconditionNotMet"
	CodeUsePaymentRequest   DenyCode = "UseExplicitPaymentRequestAction"
)

// Decision is the outcome of a transition check.
type Decision struct {
	Allowed bool
	Code    DenyCode
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(code DenyCode, format string, args ...any) Decision {
	return Decision{Allowed: false, Code: code, Reason: fmt.Sprintf(format, args...)}
}

// precondition é o gate de dados avaliado sobre o snapshot atual.
type precondition func(Snapshot) (ok bool, reason string)

// Data gates keyed by target status. Role gates live in the taxonomy
// (AdminOnly); these only look at deal data.
var preconditions = map[string]precondition{
	status.Signed: func(s Snapshot) (bool, string) {
		return s.ContractSigned, "contract has not been signed yet"
	},
	status.InstallScheduled: func(s Snapshot) (bool, string) {
		return s.HasInstallDate, "install date has not been set"
	},
	status.Installed: func(s Snapshot) (bool, string) {
		return s.InstallImages > 0, "no install photos have been uploaded"
	},
	status.Complete: func(s Snapshot) (bool, string) {
		return s.CompletionImages > 0, "no completion photos have been uploaded"
	},
	status.Paid: func(s Snapshot) (bool, string) {
		ok := s.Status == status.Complete || s.Status == status.Pending
		return ok, "deal must be complete or have a payment request before it can be marked paid"
	},

	// permit is no longer offered as a target; the gate stays for deals
	// predating the status cleanup.
	status.LegacyPermit: func(s Snapshot) (bool, string) {
		return s.PermitFileURL != "", "permit file has not been uploaded"
	},
}

// Check decide se a transição snapshot -> target é permitida para o role.
// Evaluation order matters: the first failing rule wins.
func Check(snap Snapshot, target string, role Role) Decision {
	targetInfo, err := status.Describe(target)
	if err != nil {
		return deny(CodeUnknownStatus, "status %q is not part of the workflow", target)
	}
	currentInfo, err := status.Describe(snap.Status)
	if err != nil {
		return deny(CodeUnknownStatus, "deal carries unknown status %q", snap.Status)
	}

	if targetInfo.Legacy {
		return deny(CodeIllegalTargetStatus,
			"status %q was retired; use %q instead", target, targetInfo.SupersededBy)
	}

	// pending is only reachable through the request-payment action,
	// never through the generic status setter.
	if target == status.Pending {
		return deny(CodeUsePaymentRequest,
			"use the request-payment action to move a deal into %q", status.Pending)
	}

	// Cheap abort/correction edges: side branches, back to lead, any
	// equal-or-lower rank. No role or data gate applies going backward.
	if target == status.Cancelled || target == status.OnHold || target == status.Lead {
		return allow()
	}
	if target == snap.Status {
		return allow() // idempotent no-op
	}
	if targetInfo.Rank <= currentInfo.Rank {
		return allow()
	}

	// Forward moves only from here on.
	if status.IsTerminal(snap.Status) {
		return deny(CodePreconditionNotMet, "deal is %s and cannot move forward", snap.Status)
	}
	if targetInfo.AdminOnly && role != RoleAdmin {
		return deny(CodeInsufficientRole, "only an admin can move a deal to %q", target)
	}
	if pre, ok := preconditions[target]; ok {
		if ok, reason := pre(snap); !ok {
			return deny(CodePreconditionNotMet, "%s", reason)
		}
	}
	return allow()
}
