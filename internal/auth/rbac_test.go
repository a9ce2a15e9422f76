package auth_test

import (
	"testing"

	"github.com/presaleshub/crm-api/internal/auth"
	"github.com/stretchr/testify/assert"
)

func TestResolver_Resolve_SingleRole(t *testing.T) {
	resolver := auth.NewResolver(auth.DefaultRBACConfig())

	set := resolver.Resolve([]string{"Presales Member"})

	assert.True(t, set.Allows("clients", "read"))
	assert.True(t, set.Allows("clients", "write"))
	assert.True(t, set.Allows("opportunities", "write"))
	assert.False(t, set.Allows("users", "read"))
}

func TestResolver_Resolve_MergeIsUnion(t *testing.T) {
	resolver := auth.NewResolver(auth.DefaultRBACConfig())

	lead := resolver.Resolve([]string{"Presales Lead"})
	assert.False(t, lead.Allows("opportunities", "write"))

	// Adding a role can only add grants, never remove them
	both := resolver.Resolve([]string{"Presales Lead", "Presales Member"})
	assert.True(t, both.Allows("opportunities", "write"))
	assert.True(t, both.Allows("opportunities", "read"))
	assert.True(t, both.Allows("clients", "write"))
}

func TestResolver_Resolve_WildcardCollapse(t *testing.T) {
	resolver := auth.NewResolver(auth.DefaultRBACConfig())

	set := resolver.Resolve([]string{"Presales Member", "Admin"})

	assert.Equal(t, map[string]bool{"*": true}, set.AllowedModules)
	assert.True(t, set.Allows("clients", "read"))
	assert.True(t, set.Allows("users", "delete"))
	assert.True(t, set.Allows("anything", "whatsoever"))
}

func TestResolver_Resolve_UnknownRoleContributesNothing(t *testing.T) {
	resolver := auth.NewResolver(auth.DefaultRBACConfig())

	set := resolver.Resolve([]string{"Intern", "Presales Lead"})

	assert.True(t, set.Allows("clients", "read"))
	assert.False(t, set.Allows("opportunities", "write"))

	empty := resolver.Resolve([]string{"Intern"})
	assert.False(t, empty.Allows("clients", "read"))
}

func TestResolver_Resolve_NoRoles(t *testing.T) {
	resolver := auth.NewResolver(auth.DefaultRBACConfig())

	set := resolver.Resolve(nil)

	assert.False(t, set.Allows("clients", "read"))
	assert.False(t, set.Allows("*", "*"))
}

func TestPermissionSet_Allows_RequiresModuleAccess(t *testing.T) {
	// Sales Head has opportunity permissions declared empty and the module
	// absent from AllowedModules; both checks must fail closed.
	resolver := auth.NewResolver(auth.DefaultRBACConfig())
	set := resolver.Resolve([]string{"Sales Head"})

	assert.True(t, set.Allows("clients", "write"))
	assert.False(t, set.Allows("opportunities", "read"))
	assert.False(t, set.Allows("opportunities", "write"))
}

func TestPermissionSet_Allows_ModuleWildcardAction(t *testing.T) {
	resolver := auth.NewResolver(map[string]auth.RoleConfig{
		"Operator": {
			AllowedModules: []string{"clients"},
			Permissions:    map[string][]string{"clients": {"*"}},
		},
	})
	set := resolver.Resolve([]string{"Operator"})

	assert.True(t, set.Allows("clients", "read"))
	assert.True(t, set.Allows("clients", "purge"))
	assert.False(t, set.Allows("opportunities", "read"))
}
