// Package policy decides which actor may perform which incident workflow action.
//
// Decisions are pure: they depend only on the actor's role, the action and, for
// resource-scoped actions, the actor's relationship to the incident. Callers fetch
// whatever is needed to compute Ownership and pass it in.
package policy

import (
	"fmt"

	"github.com/spec-kit/incident-service/internal/domain"
	apperrors "github.com/spec-kit/incident-service/pkg/util/errorutil"
)

// Action identifies a guarded operation.
type Action string

const (
	ActionCreateIncident       Action = "incident.create"
	ActionListIncidents        Action = "incident.list"
	ActionAssignEngineer       Action = "incident.assign"
	ActionReopenIncident       Action = "incident.reopen"
	ActionUpdateStatus         Action = "incident.update_status"
	ActionGetAssignedIncidents Action = "incident.list_assigned"
	ActionGetMyIncidents       Action = "incident.list_mine"
	ActionGetStats             Action = "incident.stats"
	ActionListUsers            Action = "user.list"
	ActionSavePushToken        Action = "user.save_push_token"
)

// Ownership describes how the actor relates to the incident an action targets.
type Ownership int

const (
	// OwnershipUnchecked means the resource has not been loaded yet; only the role is evaluated.
	OwnershipUnchecked Ownership = iota
	// OwnershipUnassigned means the incident has no engineer.
	OwnershipUnassigned
	// OwnershipOther means the incident belongs to a different engineer.
	OwnershipOther
	// OwnershipOwner means the actor is the assigned engineer.
	OwnershipOwner
)

// EngineerOwnership computes the Ownership of incident for actorID.
func EngineerOwnership(incident *domain.Incident, actorID int64) Ownership {
	switch {
	case incident == nil || !incident.Assigned():
		return OwnershipUnassigned
	case incident.OwnedBy(actorID):
		return OwnershipOwner
	default:
		return OwnershipOther
	}
}

// Scope narrows list results. It is a legitimate narrowing, never a denial.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeAll
	ScopeReported
	ScopeAssigned
)

// Effect is the outcome of a decision.
type Effect int

const (
	Deny Effect = iota
	Allow
)

// Decision is the explicit allow/deny variant returned by Authorize.
type Decision struct {
	Effect Effect
	Scope  Scope
	Reason string
}

// Allowed reports whether the decision permits the action.
func (d Decision) Allowed() bool {
	return d.Effect == Allow
}

// Err converts a denial into a ForbiddenError. Allowed decisions return nil.
func (d Decision) Err() error {
	if d.Allowed() {
		return nil
	}
	return apperrors.NewForbidden(d.Reason)
}

// Request is the input to Authorize.
type Request struct {
	Role      domain.Role
	Action    Action
	Ownership Ownership
}

type rule struct {
	roles          []domain.Role
	requiresOwner  bool
	scopeFor       func(domain.Role) Scope
	fixedScope     Scope
	describeAction string
}

var rules = map[Action]rule{
	ActionCreateIncident: {
		roles:          []domain.Role{domain.RoleReporter},
		describeAction: "create incidents",
	},
	ActionListIncidents: {
		roles:          domain.Roles,
		scopeFor:       visibilityScope,
		describeAction: "list incidents",
	},
	ActionAssignEngineer: {
		roles:          []domain.Role{domain.RoleManager},
		describeAction: "assign engineers",
	},
	ActionReopenIncident: {
		roles:          []domain.Role{domain.RoleManager},
		describeAction: "reopen incidents",
	},
	ActionUpdateStatus: {
		roles:          []domain.Role{domain.RoleEngineer},
		requiresOwner:  true,
		describeAction: "update incident status",
	},
	ActionGetAssignedIncidents: {
		roles:          []domain.Role{domain.RoleEngineer},
		fixedScope:     ScopeAssigned,
		describeAction: "list assigned incidents",
	},
	ActionGetMyIncidents: {
		roles:          []domain.Role{domain.RoleReporter},
		fixedScope:     ScopeReported,
		describeAction: "list reported incidents",
	},
	ActionGetStats: {
		roles:          []domain.Role{domain.RoleManager},
		describeAction: "view incident stats",
	},
	ActionListUsers: {
		roles:          domain.Roles,
		describeAction: "list users",
	},
	ActionSavePushToken: {
		roles:          domain.Roles,
		describeAction: "register a push token",
	},
}

// Authorize evaluates req against the role table and, for resource-scoped actions
// whose ownership has been checked, the ownership predicate.
func Authorize(req Request) Decision {
	r, ok := rules[req.Action]
	if !ok {
		return Decision{Effect: Deny, Reason: fmt.Sprintf("unknown action %q", req.Action)}
	}
	if !roleAllowed(r.roles, req.Role) {
		return Decision{Effect: Deny, Reason: fmt.Sprintf("role %s may not %s", displayRole(req.Role), r.describeAction)}
	}
	if r.requiresOwner {
		switch req.Ownership {
		case OwnershipUnassigned:
			return Decision{Effect: Deny, Reason: "incident is not assigned to any engineer"}
		case OwnershipOther:
			return Decision{Effect: Deny, Reason: "incident is assigned to another engineer"}
		}
	}

	decision := Decision{Effect: Allow, Scope: r.fixedScope}
	if r.scopeFor != nil {
		decision.Scope = r.scopeFor(req.Role)
	}
	return decision
}

// AuthorizeRole evaluates only the role column of the table.
func AuthorizeRole(role domain.Role, action Action) Decision {
	return Authorize(Request{Role: role, Action: action, Ownership: OwnershipUnchecked})
}

func visibilityScope(role domain.Role) Scope {
	switch role {
	case domain.RoleReporter:
		return ScopeReported
	case domain.RoleEngineer:
		return ScopeAssigned
	case domain.RoleManager:
		return ScopeAll
	}
	return ScopeNone
}

func roleAllowed(allowed []domain.Role, role domain.Role) bool {
	for _, candidate := range allowed {
		if candidate == role {
			return true
		}
	}
	return false
}

func displayRole(role domain.Role) string {
	if role == "" {
		return "<none>"
	}
	return string(role)
}
