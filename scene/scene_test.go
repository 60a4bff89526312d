package scene

import (
	"testing"

	"github.com/akmonengine/orbit"
	"github.com/akmonengine/orbit/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertAABB(t *testing.T, body *actor.Body, min, max mgl64.Vec3) {
	t.Helper()
	aabb := body.AABB()
	assert.InDeltaSlice(t, min[:], aabb.Min[:], 1e-9, "%s min", body.Name)
	assert.InDeltaSlice(t, max[:], aabb.Max[:], 1e-9, "%s max", body.Name)
}

func demoRoom() Room {
	return Room{Prefix: "DRD/", DimX: 8, DimY: 8, DimZ: 1, Thickness: DEFAULT_WALL_THICKNESS}
}

func TestWall(t *testing.T) {
	t.Run("min corner at pos", func(t *testing.T) {
		wall, err := Wall("w", mgl64.Vec3{2, 0.1, 1}, mgl64.Vec3{1, 2, 0}, 0)
		require.NoError(t, err)
		assertAABB(t, wall, mgl64.Vec3{1, 2, 0}, mgl64.Vec3{3, 2.1, 1})
	})

	t.Run("rotated about the corner", func(t *testing.T) {
		wall, err := Wall("w", mgl64.Vec3{2, 0.1, 1}, mgl64.Vec3{0, 0, 0}, 90)
		require.NoError(t, err)
		assertAABB(t, wall, mgl64.Vec3{-0.1, 0, 0}, mgl64.Vec3{0, 2, 1})
	})

	t.Run("degenerate", func(t *testing.T) {
		_, err := Wall("flat", mgl64.Vec3{2, 0, 1}, mgl64.Vec3{}, 0)
		var geomErr *actor.InvalidGeometryError
		assert.ErrorAs(t, err, &geomErr)
	})
}

func contactsOf(t *testing.T, monitor *orbit.Monitor, agent *actor.Body) []orbit.PairResult {
	t.Helper()
	results, err := monitor.TestAgentAgainstStatic(agent)
	require.NoError(t, err)
	return orbit.Overlapping(results)
}

func TestDoubleRoomDoor(t *testing.T) {
	walls, err := demoRoom().DoubleRoomDoor()
	require.NoError(t, err)
	require.Len(t, walls, 6)
	assert.Equal(t, "DRD/w1", walls[0].Name)
	assert.Equal(t, "DRD/w6", walls[5].Name)

	// the door is the gap between w5 and w6, 2 wide around x = 0
	assertAABB(t, walls[4], mgl64.Vec3{-4, 0, 0}, mgl64.Vec3{-1, 0.01, 1})
	assertAABB(t, walls[5], mgl64.Vec3{1, 0, 0}, mgl64.Vec3{4, 0.01, 1})

	monitor, err := orbit.NewMonitor(walls, 1)
	require.NoError(t, err)

	through, err := actor.NewBody("agent", actor.NewTransformAt(mgl64.Vec3{0, 0, 0.3}, mgl64.QuatIdent()), &actor.Sphere{Radius: 0.2})
	require.NoError(t, err)
	assert.Empty(t, contactsOf(t, monitor, through), "agent fits through the door")

	through.SetPose(mgl64.Ident3(), mgl64.Vec3{1, 0, 0.3})
	contacts := contactsOf(t, monitor, through)
	require.Len(t, contacts, 1)
	assert.Equal(t, "DRD/w6", contacts[0].B)
}

func TestDoubleRoomWindow(t *testing.T) {
	walls, err := demoRoom().DoubleRoomWindow()
	require.NoError(t, err)
	require.Len(t, walls, 8)

	monitor, err := orbit.NewMonitor(walls, 1)
	require.NoError(t, err)
	agent, err := actor.NewBody("agent", actor.NewTransform(), &actor.Sphere{Radius: 0.1})
	require.NoError(t, err)

	// the window sits in the middle third of the height
	agent.SetPose(mgl64.Ident3(), mgl64.Vec3{0, 0, 0.5})
	assert.Empty(t, contactsOf(t, monitor, agent))

	agent.SetPose(mgl64.Ident3(), mgl64.Vec3{0, 0, 0.15})
	contacts := contactsOf(t, monitor, agent)
	require.Len(t, contacts, 1)
	assert.Equal(t, "DRD/w5", contacts[0].B)
}

func TestBuild(t *testing.T) {
	walls, err := Build(KindEmpty, Room{})
	require.NoError(t, err)
	assert.Empty(t, walls)

	walls, err = Build(KindDoubleWin, demoRoom())
	require.NoError(t, err)
	assert.Len(t, walls, 8)

	_, err = Build("castle", demoRoom())
	assert.Error(t, err)

	_, err = Build(KindDoubleDoor, Room{DimX: 8, DimY: 8, DimZ: 1})
	assert.Error(t, err, "zero thickness")
}
