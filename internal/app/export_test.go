package app

import "go.trai.ch/gate/internal/adapters/detector"

// SetDetectMode replaces terminal detection.
func (a *App) SetDetectMode(fn func() detector.OutputMode) {
	a.detectMode = fn
}

// SetCIDetector replaces CI detection used for the default configuration.
func (a *App) SetCIDetector(fn func() bool) {
	a.detectCI = fn
}

// SetIDGenerator replaces the run id generator.
func (a *App) SetIDGenerator(fn func() string) {
	a.newID = fn
}
