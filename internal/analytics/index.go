package analytics

import "freelancedesk/internal/core"

// ByID builds a lookup table keyed by id.
func ByID[T any](items []T, id func(T) string) map[string]T {
	m := make(map[string]T, len(items))
	for _, it := range items {
		m[id(it)] = it
	}
	return m
}

// Index resolves foreign keys between one owner's collections.
type Index struct {
	clients  map[string]core.Client
	projects map[string]core.Project
	paid     map[string]core.Money
}

// NewIndex builds every lookup once per load.
func NewIndex(clients []core.Client, projects []core.Project, payments []core.Payment) *Index {
	ix := &Index{
		clients:  ByID(clients, func(c core.Client) string { return c.ID }),
		projects: ByID(projects, func(p core.Project) string { return p.ID }),
		paid:     make(map[string]core.Money, len(projects)),
	}
	for _, p := range payments {
		ix.paid[p.ProjectID] = ix.paid[p.ProjectID].Add(p.Amount)
	}
	return ix
}

func (ix *Index) Client(id string) (core.Client, bool) {
	c, ok := ix.clients[id]
	return c, ok
}

func (ix *Index) Project(id string) (core.Project, bool) {
	p, ok := ix.projects[id]
	return p, ok
}

// ClientOf resolves payment -> project -> client.
func (ix *Index) ClientOf(p core.Payment) (core.Client, bool) {
	proj, ok := ix.projects[p.ProjectID]
	if !ok {
		return core.Client{}, false
	}
	return ix.Client(proj.ClientID)
}

// Paid is the lifetime total paid against a project.
func (ix *Index) Paid(projectID string) core.Money {
	return ix.paid[projectID]
}

// Pending is the signed remainder of a project; negative means overpaid.
func (ix *Index) Pending(p core.Project) core.Money {
	return p.TotalAmount.Sub(ix.paid[p.ID])
}
