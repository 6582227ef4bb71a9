package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionRegistry(t *testing.T) {
	r := NewSessionRegistry()

	_, ok := r.ClientFor("sess-1")
	assert.False(t, ok)

	r.Register("sess-2", "client-a")
	r.Register("sess-1", "client-a")
	r.Register("sess-3", "client-b")

	cid, ok := r.ClientFor("sess-1")
	assert.True(t, ok)
	assert.Equal(t, "client-a", cid)
	assert.Equal(t, []string{"sess-1", "sess-2"}, r.SessionsOf("client-a"))
	assert.Empty(t, r.SessionsOf("client-z"))
}

func TestSessionRegistry_ReRegisterMovesOwnership(t *testing.T) {
	r := NewSessionRegistry()
	r.Register("sess-1", "client-old")
	r.Register("sess-1", "client-new")

	cid, _ := r.ClientFor("sess-1")
	assert.Equal(t, "client-new", cid)
	assert.Empty(t, r.SessionsOf("client-old"))
	assert.Equal(t, []string{"sess-1"}, r.SessionsOf("client-new"))
}

func TestSessionRegistry_Forget(t *testing.T) {
	r := NewSessionRegistry()
	r.Register("sess-1", "client-a")
	r.Register("sess-2", "client-a")

	r.Forget("sess-1")
	r.Forget("never-registered")

	_, ok := r.ClientFor("sess-1")
	assert.False(t, ok)
	assert.Equal(t, []string{"sess-2"}, r.SessionsOf("client-a"))
}

func TestSessionRegistry_Remove(t *testing.T) {
	r := NewSessionRegistry()
	r.Register("sess-1", "client-a")
	r.Register("sess-2", "client-a")
	r.Register("sess-3", "client-b")

	assert.Equal(t, []string{"sess-1", "sess-2"}, r.Remove("client-a"))
	assert.Empty(t, r.Remove("client-a"))

	_, ok := r.ClientFor("sess-2")
	assert.False(t, ok)
	cid, ok := r.ClientFor("sess-3")
	assert.True(t, ok)
	assert.Equal(t, "client-b", cid)
}
