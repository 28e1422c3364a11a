package topology

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidConfiguration matches every user-facing rule violation
	ErrInvalidConfiguration = errors.New("invalid deployment configuration")
	// ErrInternalConsistency matches every derivation post-condition failure
	ErrInternalConsistency = errors.New("topology derivation is inconsistent")
)

// Rule names reported by ConfigurationError
const (
	RuleDashboardRequiresMetrics = "dashboard-requires-metrics"
	RuleTLSRequiresTerminator    = "tls-requires-terminator"
	RuleTLSWithoutServices       = "tls-without-services"
	RuleDatabaseDriverMismatch   = "database-driver-mismatch"
	RuleHostPortConflict         = "host-port-conflict"
)

// ConfigurationError reports a bundle that violates a cross-service rule.
// The user fixes it by changing the configuration.
type ConfigurationError struct {
	Rule     string
	Services []Service
	Detail   string
	Remedy   string
}

func (e *ConfigurationError) Error() string {
	names := make([]string, len(e.Services))
	for i, s := range e.Services {
		names[i] = s.Name()
	}
	msg := fmt.Sprintf("%s [%s]: %s", e.Rule, strings.Join(names, ", "), e.Detail)
	if e.Remedy != "" {
		msg += "; " + e.Remedy
	}
	return msg
}

// Is lets errors.Is match ErrInvalidConfiguration
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// InternalError reports a derivation that broke a topology post-condition.
// It points at a bug in the engine, not at the user's configuration.
type InternalError struct {
	Service Service
	// Target is set for dangling dependencies
	Target *Service
	// Network is set for network union mismatches
	Network *Network
	Detail  string
}

func (e *InternalError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "internal topology error in %s", e.Service)
	if e.Target != nil {
		fmt.Fprintf(&b, " (dependency %s)", *e.Target)
	}
	if e.Network != nil {
		fmt.Fprintf(&b, " (network %s)", *e.Network)
	}
	b.WriteString(": ")
	b.WriteString(e.Detail)
	return b.String()
}

// Is lets errors.Is match ErrInternalConsistency
func (e *InternalError) Is(target error) bool {
	return target == ErrInternalConsistency
}
