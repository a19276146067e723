package auth

const (
	RoleSuperAdmin = "super-admin"
	RoleAdmin      = "admin"
	RoleCaissier   = "caissier"
	RoleVigile     = "vigile"
	RoleEmployee   = "employe"
)

var KnownRoles = []string{
	RoleSuperAdmin,
	RoleAdmin,
	RoleCaissier,
	RoleVigile,
	RoleEmployee,
}

func ValidRole(role string) bool {
	for _, candidate := range KnownRoles {
		if role == candidate {
			return true
		}
	}
	return false
}
