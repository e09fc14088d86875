package domain

// Roles carried in the bearer token's "role" claim.
const (
	RoleAdmin   = "admin"
	RoleShipper = "shipper"
	RoleViewer  = "viewer"
)

// Principal is the authenticated caller behind a request.
type Principal struct {
	Subject string
	Role    string
}
