package identity

import "github.com/Skotchmaster/sale/internal/models"

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID   uint
	Username string
	Role     string
}

func (i Identity) IsAdmin() bool {
	return i.Role == string(models.RoleAdmin)
}

// CanAccess reports whether the caller is an admin or owns the resource.
func (i Identity) CanAccess(ownerID uint) bool {
	return i.IsAdmin() || i.Owns(ownerID)
}

func (i Identity) Owns(ownerID uint) bool {
	return i.UserID != 0 && i.UserID == ownerID
}
