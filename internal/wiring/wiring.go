// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/gate/internal/adapters/config"
	_ "go.trai.ch/gate/internal/adapters/github"
	_ "go.trai.ch/gate/internal/adapters/logger"
	_ "go.trai.ch/gate/internal/adapters/reports"
	_ "go.trai.ch/gate/internal/adapters/shell"
	_ "go.trai.ch/gate/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/gate/internal/app"
	_ "go.trai.ch/gate/internal/engine/scheduler"
)
