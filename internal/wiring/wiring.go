// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/smake/internal/adapters/cas"
	_ "go.trai.ch/smake/internal/adapters/config"
	_ "go.trai.ch/smake/internal/adapters/detector"
	_ "go.trai.ch/smake/internal/adapters/fs"
	_ "go.trai.ch/smake/internal/adapters/logger"
	_ "go.trai.ch/smake/internal/adapters/shell"
	// Register app and engine nodes.
	_ "go.trai.ch/smake/internal/app"
	_ "go.trai.ch/smake/internal/engine/scheduler"
)
