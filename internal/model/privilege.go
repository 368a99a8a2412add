package model

// Role codes
const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// Privilege codes checked by the HTTP middleware.
const (
	PrivProductView     = "product:view"
	PrivProductManage   = "product:manage"
	PrivThresholdManage = "threshold:manage"
	PrivSaleCreate      = "sale:create"
	PrivSaleView        = "sale:view"
	PrivSaleDelete      = "sale:delete"
	PrivDashboardView   = "dashboard:view"
	PrivAssistantUse    = "assistant:use"
	PrivUserManage      = "user:manage"
)

// RolePrivileges maps each role to what it may do. Cashiers run the till;
// catalog edits, thresholds, sale reversal and accounts stay with admins.
var RolePrivileges = map[string][]string{
	RoleAdmin: {
		PrivProductView, PrivProductManage, PrivThresholdManage,
		PrivSaleCreate, PrivSaleView, PrivSaleDelete,
		PrivDashboardView, PrivAssistantUse, PrivUserManage,
	},
	RoleCashier: {
		PrivProductView, PrivSaleCreate, PrivSaleView,
		PrivDashboardView, PrivAssistantUse,
	},
}

// ValidRole reports whether code names a known role.
func ValidRole(code string) bool {
	_, ok := RolePrivileges[code]
	return ok
}

// RoleHasPrivilege checks a privilege against the static role table.
func RoleHasPrivilege(role, privilege string) bool {
	for _, p := range RolePrivileges[role] {
		if p == privilege {
			return true
		}
	}
	return false
}
