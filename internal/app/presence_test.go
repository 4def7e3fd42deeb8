package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"signalhub/internal/core"
	"signalhub/internal/domain"
)

func TestRegisterAndLookup(t *testing.T) {
	p := NewPresence()
	conn := &fakeConn{}

	require.NoError(t, p.Register("c1", "alice", conn))

	cid, got, ok := p.Lookup("alice")
	require.True(t, ok)
	require.Equal(t, domain.ConnID("c1"), cid)
	require.Equal(t, core.PeerConn(conn), got)

	name, ok := p.NameOf("c1")
	require.True(t, ok)
	require.Equal(t, "alice", name)
}

func TestRegisterRejectsTakenName(t *testing.T) {
	p := NewPresence()

	require.NoError(t, p.Register("c1", "alice", &fakeConn{}))
	err := p.Register("c2", "alice", &fakeConn{})
	require.ErrorIs(t, err, domain.ErrNameTaken)

	// The original binding survives the collision.
	cid, _, ok := p.Lookup("alice")
	require.True(t, ok)
	require.Equal(t, domain.ConnID("c1"), cid)
}

func TestRegisterValidatesName(t *testing.T) {
	p := NewPresence()

	require.ErrorIs(t, p.Register("c1", "", &fakeConn{}), domain.ErrNameEmpty)
	_, ok := p.NameOf("c1")
	require.False(t, ok)
}

func TestReRegisterSameConnectionRejected(t *testing.T) {
	p := NewPresence()

	require.NoError(t, p.Register("c1", "alice", &fakeConn{}))
	require.ErrorIs(t, p.Register("c1", "alicia", &fakeConn{}), domain.ErrAlreadyRegistered)

	// The original binding is untouched in both directions.
	name, ok := p.NameOf("c1")
	require.True(t, ok)
	require.Equal(t, "alice", name)
	_, _, ok = p.Lookup("alicia")
	require.False(t, ok)
}

func TestRemoveFreesName(t *testing.T) {
	p := NewPresence()
	require.NoError(t, p.Register("c1", "alice", &fakeConn{}))

	name, ok := p.Remove("c1")
	require.True(t, ok)
	require.Equal(t, "alice", name)

	_, _, found := p.Lookup("alice")
	require.False(t, found)

	_, ok = p.Remove("c1")
	require.False(t, ok)

	// Name can be claimed by a new connection.
	require.NoError(t, p.Register("c2", "alice", &fakeConn{}))
}

func TestNamesSorted(t *testing.T) {
	p := NewPresence()
	require.NoError(t, p.Register("c1", "carol", &fakeConn{}))
	require.NoError(t, p.Register("c2", "alice", &fakeConn{}))
	require.NoError(t, p.Register("c3", "bob", &fakeConn{}))

	require.Equal(t, []string{"alice", "bob", "carol"}, p.Names())
}
