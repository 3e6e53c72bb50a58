package usecase

import (
	"testing"

	"go.uber.org/goleak"
)

// The event processing loop runs until its context is cancelled, so every
// test in this package must leave no goroutines behind.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
