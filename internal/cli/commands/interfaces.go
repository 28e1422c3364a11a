package commands

import (
	"context"

	"trackerdeploy/internal/db"
	"trackerdeploy/internal/operations"
)

// EnvironmentManager is the part of operations.EnvironmentOperations the
// commands use
type EnvironmentManager interface {
	CreateEnvironment(ctx context.Context, req operations.CreateEnvironmentRequest) (*db.Environment, error)
	ListEnvironments(ctx context.Context) ([]*db.Environment, error)
	ShowEnvironment(ctx context.Context, name string) (*operations.EnvironmentDetails, error)
	RenderEnvironment(ctx context.Context, name, outputDir string) (*operations.RenderResult, error)
	DeleteEnvironment(ctx context.Context, name string) error
}

var _ EnvironmentManager = (*operations.EnvironmentOperations)(nil)
