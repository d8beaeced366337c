// Package logging constructs the service's zap logger.
package logging

import (
	"go.uber.org/zap"
)

// New returns a configured zap logger. Development mode uses a human
// readable console encoder at debug level.
func New(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
