package state

import (
	"time"

	"regraph/icons"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start: time.Now(),
		Icons: icons.DefaultTable(),
	}
}
