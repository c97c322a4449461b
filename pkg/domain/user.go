package domain

// Back-office roles carried on the user profile. The client only displays
// and forwards the role string; policy is enforced server-side.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleAgent    = "agent"
	RoleAdjuster = "adjuster"
	RoleOperator = "operator"
)

// UserProfile represents an authenticated back-office user.
type UserProfile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// CanManageUsers reports whether the role gets the user-administration screen.
// Display-level gating only; the API rejects unauthorized calls regardless.
func (u UserProfile) CanManageUsers() bool {
	return u.Role == RoleAdmin || u.Role == RoleManager
}
