package module

import "insightmart/internal/services/api/ops/domain"

// Ports exported by the ops module
type Ports struct {
	Service domain.ServicePort
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
