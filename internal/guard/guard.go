// Package guard decides, per navigation, whether a protected view
// renders or redirects. Evaluate is a pure function of the session
// snapshot; it holds no state and performs no I/O.
package guard

import (
	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
	"github.com/yuvrajxx14mu/marketing-yard/internal/session"
)

// Destination paths for redirect decisions.
const (
	SignInPath    = "/auth"
	DashboardPath = "/dashboard"
	AdminHomePath = "/admin"
)

// Outcome is the kind of decision the guard reached.
type Outcome int

const (
	// OutcomeRender lets the requested view render.
	OutcomeRender Outcome = iota
	// OutcomeLoading renders a neutral placeholder; no navigation
	// decision has been made yet.
	OutcomeLoading
	// OutcomeRedirect sends the user to Decision.Location. The attempted
	// destination is discarded; there is no return-URL preservation.
	OutcomeRedirect
)

// Decision is the guard's verdict for one navigation.
type Decision struct {
	Outcome  Outcome
	Location string
}

// PendingPolicy controls how a role-gated view treats the transient
// window where the session exists but the profile (and therefore the
// role) has not resolved yet.
type PendingPolicy int

const (
	// PendingWait blocks deterministically: render the loading
	// placeholder until the role is known. The default.
	PendingWait PendingPolicy = iota
	// PendingDeny treats the unknown role as unauthorized and redirects
	// to the generic landing page.
	PendingDeny
	// PendingAllow renders the view with the role unresolved.
	PendingAllow
)

// Evaluate runs the decision algorithm in order: loading placeholder,
// authentication check, role-set membership, render. An empty allowed
// set means "any authenticated role". A role mismatch redirects admins
// to their own landing page and everyone else to the dashboard, so the
// guard can never bounce a non-admin into /admin.
func Evaluate(s session.Snapshot, allowed []model.Role, pending PendingPolicy) Decision {
	if s.Loading {
		return Decision{Outcome: OutcomeLoading}
	}
	if !s.Authenticated {
		return Decision{Outcome: OutcomeRedirect, Location: SignInPath}
	}
	if len(allowed) == 0 {
		return Decision{Outcome: OutcomeRender}
	}
	if s.User == nil {
		switch pending {
		case PendingAllow:
			return Decision{Outcome: OutcomeRender}
		case PendingDeny:
			return Decision{Outcome: OutcomeRedirect, Location: DashboardPath}
		default:
			return Decision{Outcome: OutcomeLoading}
		}
	}
	for _, r := range allowed {
		if r == s.User.Role {
			return Decision{Outcome: OutcomeRender}
		}
	}
	if s.User.Role == model.RoleAdmin {
		return Decision{Outcome: OutcomeRedirect, Location: AdminHomePath}
	}
	return Decision{Outcome: OutcomeRedirect, Location: DashboardPath}
}
