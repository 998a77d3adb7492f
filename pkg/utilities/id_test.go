package utilities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewKSUID(t *testing.T) {
	a, b := NewKSUID(), NewKSUID()
	assert.NotEqual(t, a, b)
	assert.True(t, IsKSUID(a))
	assert.False(t, IsKSUID("not-a-ksuid"))
	assert.False(t, IsKSUID(""))
}

func TestNewSnowflakeIDWithNode_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := NewSnowflakeIDWithNode(3)
		_, dup := seen[id]
		assert.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestNewSnowflakeIDWithNode_InvalidNodeFallsBack(t *testing.T) {
	id := NewSnowflakeIDWithNode(-1)
	assert.True(t, IsKSUID(id))
}

func TestNewSnowflakeID_BadEnv(t *testing.T) {
	t.Setenv("SNOWFLAKE_NODE", "abc")
	assert.NotEmpty(t, NewSnowflakeID())
}
