package user

type Role string

const (
	RoleJudge Role = "judge"
	RoleAdmin Role = "admin"
)

// Principal is the verified identity the AuthZ provider attaches to a
// request.
type Principal struct {
	UserID string
	Role   Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
