package auth

// RoleConfig declares which modules a role may reach and which actions it
// may perform per module. "*" is a wildcard for both modules and actions.
type RoleConfig struct {
	AllowedModules []string
	Permissions    map[string][]string
}

// PermissionSet is the merged capability set resolved from a user's roles
type PermissionSet struct {
	AllowedModules map[string]bool
	Permissions    map[string]map[string]bool
}

// DefaultRBACConfig is the static role-to-capability mapping. It is built
// once at startup and never mutated at request time.
func DefaultRBACConfig() map[string]RoleConfig {
	return map[string]RoleConfig{
		"Presales Member": {
			AllowedModules: []string{"clients", "opportunities"},
			Permissions: map[string][]string{
				"clients":       {"read", "write"},
				"opportunities": {"read", "write"},
			},
		},
		"Presales Lead": {
			AllowedModules: []string{"clients", "opportunities"},
			Permissions: map[string][]string{
				"clients":       {"read", "write"},
				"opportunities": {"read"},
			},
		},
		"Sales Head": {
			AllowedModules: []string{"clients"},
			Permissions: map[string][]string{
				"clients":       {"read", "write"},
				"opportunities": {},
			},
		},
		"Admin": {
			AllowedModules: []string{"*"},
			Permissions: map[string][]string{
				"*": {"*"},
			},
		},
	}
}

// Resolver merges role names into permission sets against an immutable
// role configuration.
type Resolver struct {
	config map[string]RoleConfig
}

// NewResolver creates a resolver over the given role configuration
func NewResolver(config map[string]RoleConfig) *Resolver {
	return &Resolver{config: config}
}

// Resolve computes the merged permission set for a set of role names.
// Unknown roles contribute nothing. If any role grants the full wildcard
// ("*": "*"), the allowed modules collapse to the wildcard alone.
func (r *Resolver) Resolve(roleNames []string) PermissionSet {
	merged := PermissionSet{
		AllowedModules: make(map[string]bool),
		Permissions:    make(map[string]map[string]bool),
	}

	for _, name := range roleNames {
		cfg, ok := r.config[name]
		if !ok {
			continue
		}
		for _, module := range cfg.AllowedModules {
			merged.AllowedModules[module] = true
		}
		for module, actions := range cfg.Permissions {
			if merged.Permissions[module] == nil {
				merged.Permissions[module] = make(map[string]bool)
			}
			for _, action := range actions {
				merged.Permissions[module][action] = true
			}
		}
	}

	if merged.Permissions["*"]["*"] {
		merged.AllowedModules = map[string]bool{"*": true}
	}

	return merged
}

// Allows reports whether the set grants the given action on the given module.
// Both the module-access check and the action check must pass.
func (p PermissionSet) Allows(module, action string) bool {
	hasModule := p.AllowedModules["*"] || p.AllowedModules[module]
	hasAction := p.Permissions["*"]["*"] ||
		p.Permissions[module]["*"] ||
		p.Permissions[module][action]
	return hasModule && hasAction
}
