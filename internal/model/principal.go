// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, plain values with JSON tags,
// no behaviour beyond small helpers. The services own all the rules.
package model

// Role is the permission level of a principal.
//
// STRING ENUMS IN GO:
// Go has no enum keyword. The idiom is a named string type plus a block of
// typed constants. The named type stops a random string from being passed
// where a Role is expected, and the string representation keeps the JSON
// readable: {"role":"admin"} instead of {"role":0}.
type Role string

const (
	RoleAdmin Role = "admin" // administrator
	RoleUser  Role = "user"  // standard member
)

// Principal is a user known to the system: someone who can sign in, create
// tasks, and have tasks assigned to them.
//
// The JSON shape matches what the persisted "user" record has always looked
// like: {"id":"1","name":"John Doe","email":"john@example.com","role":"admin"}.
type Principal struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsAdmin reports whether the principal has the administrator role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// SeedRoster returns the principals every fresh installation starts with.
// A new slice is returned on every call so callers can append freely.
func SeedRoster() []Principal {
	return []Principal{
		{ID: "1", Name: "John Doe", Email: "john@example.com", Role: RoleAdmin},
		{ID: "2", Name: "Jane Smith", Email: "jane@example.com", Role: RoleUser},
		{ID: "3", Name: "Bob Johnson", Email: "bob@example.com", Role: RoleUser},
		{ID: "4", Name: "Alice Brown", Email: "alice@example.com", Role: RoleUser},
	}
}
