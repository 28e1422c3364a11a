package topology

import "fmt"

// DependencyCondition is the state a dependency must reach before the
// dependent service starts
type DependencyCondition int

const (
	// ServiceHealthy waits for the target's health check to pass
	ServiceHealthy DependencyCondition = iota
	// ServiceStarted waits only for the target container to start
	ServiceStarted
	// ServiceCompletedSuccessfully waits for the target to exit with status 0
	ServiceCompletedSuccessfully
)

// ComposeName returns the depends_on condition keyword
func (c DependencyCondition) ComposeName() string {
	switch c {
	case ServiceHealthy:
		return "service_healthy"
	case ServiceStarted:
		return "service_started"
	case ServiceCompletedSuccessfully:
		return "service_completed_successfully"
	default:
		panic(fmt.Sprintf("topology: unknown dependency condition %d", int(c)))
	}
}

// String implements fmt.Stringer
func (c DependencyCondition) String() string {
	return c.ComposeName()
}

// MarshalText renders the compose keyword
func (c DependencyCondition) MarshalText() ([]byte, error) {
	return []byte(c.ComposeName()), nil
}

// ServiceDependency states that the owning service waits for Target to
// reach Condition
type ServiceDependency struct {
	Target    Service             `json:"service"`
	Condition DependencyCondition `json:"condition"`
}

// DependsOn builds a ServiceDependency
func DependsOn(target Service, condition DependencyCondition) ServiceDependency {
	return ServiceDependency{Target: target, Condition: condition}
}

// String implements fmt.Stringer
func (d ServiceDependency) String() string {
	return fmt.Sprintf("%s (%s)", d.Target, d.Condition)
}
