package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	// RoleInCallUI is the in-call screen, the only role expected to issue
	// call-control commands in normal operation.
	RoleInCallUI = "incall_ui"
	// RoleDiagnostics may read the command audit trail.
	RoleDiagnostics = "diagnostics"
	RoleSuperAdmin  = "super_admin"
	// RoleCarrierOperator is a hidden role reserved for carrier-side tooling.
	RoleCarrierOperator = "carrier_operator"
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

func IsHiddenRole(role string) bool { return role == RoleCarrierOperator }
