package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/sale/internal/models"
)

func TestIdentity_Access(t *testing.T) {
	t.Parallel()

	admin := Identity{UserID: 1, Role: string(models.RoleAdmin)}
	user := Identity{UserID: 2, Role: string(models.RoleUser)}
	anon := Identity{}

	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.CanAccess(2))
	assert.False(t, admin.Owns(2))

	assert.False(t, user.IsAdmin())
	assert.True(t, user.CanAccess(2))
	assert.False(t, user.CanAccess(3))

	assert.False(t, anon.Owns(0))
	assert.False(t, anon.CanAccess(0))
}
