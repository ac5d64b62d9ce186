package config

import "fmt"

// Catalog is the fixed, ordered mapping from worker role names to their
// runtime module targets. It is built once at load time; lookups for unknown
// roles fail closed.
type Catalog struct {
	order  []Role
	byName map[string]Role
}

// NewCatalog builds a catalog from the configured worker roles. Order is
// preserved and determines launch order.
func NewCatalog(workers []Role) *Catalog {
	cat := &Catalog{byName: make(map[string]Role, len(workers))}
	for _, role := range workers {
		cat.order = append(cat.order, role)
		cat.byName[role.Name] = role
	}
	return cat
}

// Roles returns the catalog entries in launch order.
func (c *Catalog) Roles() []Role {
	out := make([]Role, len(c.order))
	copy(out, c.order)
	return out
}

// Lookup resolves a role name to its module target.
func (c *Catalog) Lookup(name string) (Role, error) {
	role, ok := c.byName[name]
	if !ok {
		return Role{}, fmt.Errorf("unknown worker role %q", name)
	}
	return role, nil
}

// Len reports the number of worker roles.
func (c *Catalog) Len() int {
	return len(c.order)
}
