package assistant

import "github.com/tbourn/go-dealer-assistant/internal/domain"

// Prefix returns the opening line for role. Unknown or empty roles get a
// neutral greeting.
func Prefix(role string) string {
	switch role {
	case domain.RoleDealer:
		return "Hi there! As your business partner,"
	case domain.RoleSalesRep:
		return "Hello! Looking at your regional data,"
	case domain.RoleAdmin:
		return "Good day! From the system overview,"
	default:
		return "Hello!"
	}
}

// Personalize prepends the role opening to body.
func Personalize(role, body string) string {
	return Prefix(role) + " " + body
}
