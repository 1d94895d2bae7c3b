package contextkeys

type contextKey string

const (
	UserIDKey    contextKey = "UserID"
	UserNameKey  contextKey = "UserName"
	UserRoleKey  contextKey = "UserRole"
	UserLoginKey contextKey = "UserLogin"
)
