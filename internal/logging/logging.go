// Package logging constructs the structured logger that cmd/tss-node
// builds at startup and hands to the session controller.
package logging

import "go.uber.org/zap"

// New builds a production logger, or a development logger (human
// readable, debug level) when verbose is set.
func New(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
