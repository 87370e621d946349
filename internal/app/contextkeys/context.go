package contextkeys

type contextKey string

const (
	// UserIDKey используется для хранения идентификатора администратора в контексте запроса.
	UserIDKey contextKey = "UserID"
	// DecisionKey используется для хранения решения о перенаправлении, принятого для запроса.
	DecisionKey contextKey = "Decision"
)
