package enums

import "strings"

// ActorRole identifies who acted on an order in audit rows and events.
// Only customer, staff and admin appear in tokens.
type ActorRole string

const (
	ActorRoleCustomer ActorRole = "customer"
	ActorRoleStaff    ActorRole = "staff"
	ActorRoleAdmin    ActorRole = "admin"
	ActorRoleSystem   ActorRole = "system"
	ActorRoleGateway  ActorRole = "gateway"
)

var actorRoles = []ActorRole{ActorRoleCustomer, ActorRoleStaff, ActorRoleAdmin, ActorRoleSystem, ActorRoleGateway}

func (r ActorRole) String() string { return string(r) }

func (r ActorRole) IsValid() bool { return member(actorRoles, r) }

// IsFulfillment reports whether the role may claim and deliver orders.
func (r ActorRole) IsFulfillment() bool {
	return r == ActorRoleStaff || r == ActorRoleAdmin
}

func ParseActorRole(value string) (ActorRole, error) {
	if role := ActorRole(strings.ToLower(strings.TrimSpace(value))); role.IsValid() {
		return role, nil
	}
	return "", parseError("actor role", value)
}
