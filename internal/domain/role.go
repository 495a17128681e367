package domain

// Roles carried in console identities. Admins may confirm deletions and edit
// vouchers; viewers may only read.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)
