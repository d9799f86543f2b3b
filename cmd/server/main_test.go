package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAutoMigrateRequested(t *testing.T) {
	assert.True(t, autoMigrateRequested([]string{"--auto-migrate"}))
	assert.True(t, autoMigrateRequested([]string{"--verbose", "-M"}))
	assert.False(t, autoMigrateRequested(nil))
	assert.False(t, autoMigrateRequested([]string{"--migrate"}))
}
