package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExitPointNotifiesInAttachOrder(t *testing.T) {
	exit := NewExitPoint[int]("out")

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		e := NewEntryPoint[int]("in", false)
		e.OnPacket = func(_ string, v int) { order = append(order, i*100+v) }
		exit.Attach(e)
	}

	exit.SendData(7)
	require.Equal(t, []int{7, 107, 207}, order)
}

func TestBarrierFiresOnlyWhenAllConnectionsArrive(t *testing.T) {
	b := NewBarrier()
	entry := NewEntryPoint[int]("mix", true)

	exitA := NewExitPoint[int]("a")
	exitB := NewExitPoint[int]("b")
	exitA.Attach(entry)
	exitB.Attach(entry)

	Bind(b, entry)

	oneReady := 0
	allReady := 0
	b.OnOneReady = func(string) { oneReady++ }
	b.OnAllReady = func() { allReady++ }

	exitA.SendData(1)
	require.Equal(t, 0, oneReady)
	require.Equal(t, 0, allReady)

	exitB.SendData(2)
	require.Equal(t, 1, oneReady)
	require.Equal(t, 1, allReady)

	// Waiting list reset: the next full round fires again.
	exitA.SendData(3)
	exitB.SendData(4)
	require.Equal(t, 2, oneReady)
	require.Equal(t, 2, allReady)
}

func TestBarrierIgnoresZeroConnectionEntryPoints(t *testing.T) {
	b := NewBarrier()
	entry := NewEntryPoint[int]("unconnected", true)
	Bind(b, entry)

	allReady := 0
	b.OnAllReady = func() { allReady++ }

	b.NotifyReceived("unconnected")
	require.Equal(t, 0, allReady)
}

type fakeSource struct {
	id    string
	ticks int
	log   *[]string
}

func (s *fakeSource) ID() string { return s.id }
func (s *fakeSource) Tick() {
	s.ticks++
	if s.log != nil {
		*s.log = append(*s.log, s.id)
	}
}

func TestManagerTicksSourcesInRegistrationOrder(t *testing.T) {
	m := NewManager()
	var order []string
	a := &fakeSource{id: "a", log: &order}
	b := &fakeSource{id: "b", log: &order}
	require.NoError(t, m.RegisterNode(a))
	require.NoError(t, m.RegisterNode(b))
	m.EndSetup()

	require.NoError(t, m.Tick())
	require.Equal(t, 1, a.ticks)
	require.Equal(t, 1, b.ticks)
	require.Equal(t, []string{"a", "b"}, order)
}

func TestManagerRejectsRegisterAfterEndSetup(t *testing.T) {
	m := NewManager()
	m.EndSetup()
	err := m.RegisterNode(&fakeSource{id: "late"})
	require.Error(t, err)
}

func TestManagerRejectsTickBeforeEndSetup(t *testing.T) {
	m := NewManager()
	err := m.Tick()
	require.Error(t, err)
}

type fakeCommandNode struct {
	id       string
	received []Command
}

func (n *fakeCommandNode) ID() string { return n.id }
func (n *fakeCommandNode) HandleCommand(c Command) {
	if c.SourceID != "" && c.SourceID != n.id {
		return
	}
	n.received = append(n.received, c)
}

func TestManagerBroadcastsCommandsToAllReceivers(t *testing.T) {
	m := NewManager()
	a := &fakeCommandNode{id: "src1"}
	b := &fakeCommandNode{id: "src2"}
	require.NoError(t, m.RegisterNode(a))
	require.NoError(t, m.RegisterNode(b))
	m.EndSetup()

	m.Broadcast(Command{Name: "/source/resetBuffers", SourceID: "src1"})

	require.Len(t, a.received, 1)
	require.Empty(t, b.received)
}

func TestParseCommandLegacyAddressShim(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"address":"/source/location","sourceID":"s1","location":[1,2,3]}`))
	require.NoError(t, err)
	require.Equal(t, "/source/location", cmd.Name)
	require.Equal(t, "s1", cmd.SourceID)

	loc, ok := cmd.Vec3("location")
	require.True(t, ok)
	require.Equal(t, [3]float64{1, 2, 3}, loc)
}

func TestParseCommandCanonicalSchema(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"command":"/listener/enableSpatialization","listenerID":"l1","enable":true}`))
	require.NoError(t, err)
	require.Equal(t, "/listener/enableSpatialization", cmd.Name)
	enable, ok := cmd.Bool("enable")
	require.True(t, ok)
	require.True(t, enable)
}

func TestServiceRefLockSucceedsWhileServiceAlive(t *testing.T) {
	svc := new(int)
	*svc = 42
	ref := NewServiceRef(svc)

	got, ok := ref.Lock()
	require.True(t, ok)
	require.Equal(t, 42, *got)
}

func TestServiceRefUnsetLockFails(t *testing.T) {
	var ref ServiceRef[int]
	_, ok := ref.Lock()
	require.False(t, ok)
}
