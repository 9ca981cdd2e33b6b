package models

const (
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

// GetAllRoles returns every role a token may carry.
func GetAllRoles() []string {
	return []string{
		RoleOperator,
		RoleAdmin,
	}
}

func IsValidRole(role string) bool {
	for _, r := range GetAllRoles() {
		if r == role {
			return true
		}
	}
	return false
}
