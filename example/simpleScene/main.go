package main

import (
	"fmt"

	"github.com/akmonengine/orbit"
	"github.com/akmonengine/orbit/actor"
	"github.com/akmonengine/orbit/gjk"
	"github.com/akmonengine/orbit/kinematics"
	"github.com/akmonengine/orbit/scene"
	"github.com/go-gl/mathgl/mgl64"
)

// CollisionDebugger instruments the monitor results of each step
type CollisionDebugger interface {
	DebugGJK(agent, static *actor.Body, simplex *gjk.Simplex)
	DebugContacts(step int, results []orbit.PairResult)
}

// SimpleDebugger prints everything to stdout
type SimpleDebugger struct{}

func (d *SimpleDebugger) DebugGJK(agent, static *actor.Body, simplex *gjk.Simplex) {
	fmt.Printf("GJK Debug:\n")
	fmt.Printf("   Agent pos: %v\n", agent.Transform.Position)
	fmt.Printf("   Static %s pos: %v\n", static.Name, static.Transform.Position)
	fmt.Printf("   Simplex points: %d\n", simplex.Count)
	for i := 0; i < simplex.Count; i++ {
		fmt.Printf("   Point %d: %v (distance: %.4f)\n", i, simplex.Points[i], simplex.Points[i].Len())
	}
}

func (d *SimpleDebugger) DebugContacts(step int, results []orbit.PairResult) {
	for _, r := range orbit.Overlapping(results) {
		fmt.Printf("   step %d: %s touches %s\n", step, r.A, r.B)
	}
}

// SetupScene builds the two rooms joined by a door and a planar agent in the south room
func SetupScene() (*orbit.Monitor, *kinematics.Agent, *actor.Body, error) {
	room := scene.Room{Prefix: "room", DimX: 4, DimY: 4, DimZ: 1, Thickness: scene.DEFAULT_WALL_THICKNESS}
	statics, err := room.DoubleRoomDoor()
	if err != nil {
		return nil, nil, nil, err
	}

	monitor, err := orbit.NewMonitor(statics, 1.0)
	if err != nil {
		return nil, nil, nil, err
	}

	agent, err := kinematics.NewAgent(kinematics.PlanarHolonomic, kinematics.WithAltitude(0.3))
	if err != nil {
		return nil, nil, nil, err
	}
	body, err := actor.NewBody(agent.Name(), actor.NewTransform(), &actor.Sphere{Radius: 0.2})
	if err != nil {
		return nil, nil, nil, err
	}

	return monitor, agent, body, nil
}

// WalkThroughDoor moves the agent north through the door, then sideways into the wall
func WalkThroughDoor() error {
	fmt.Println("Walk-through: agent crossing the door")
	fmt.Println("=====================================")

	monitor, agent, body, err := SetupScene()
	if err != nil {
		return err
	}
	debugger := &SimpleDebugger{}
	events := orbit.NewContactEvents()
	events.Subscribe(orbit.COLLISION_ENTER, func(event orbit.Event) {
		e := event.(orbit.CollisionEnterEvent)
		fmt.Printf("   >> enter %s / %s\n", e.BodyA, e.BodyB)
	})
	events.Subscribe(orbit.COLLISION_EXIT, func(event orbit.Event) {
		e := event.(orbit.CollisionExitEvent)
		fmt.Printf("   << exit %s / %s\n", e.BodyA, e.BodyB)
	})

	fmt.Printf("Statics: %d\n", len(monitor.Statics()))
	fmt.Println()

	path := []mgl64.Vec2{}
	for y := -1.0; y <= 1.0; y += 0.25 {
		path = append(path, mgl64.Vec2{0, y})
	}
	for x := 0.0; x <= 1.0; x += 0.25 {
		path = append(path, mgl64.Vec2{x, 0})
	}

	simplex := &gjk.Simplex{}
	for step, p := range path {
		if err := agent.SetConfig(kinematics.Configuration{p.X(), p.Y(), 0}); err != nil {
			return err
		}
		pose := agent.Pose()
		body.SetPose(pose.Rotation, pose.Translation)

		fmt.Printf("--- STEP %d ---\n", step+1)
		fmt.Printf("  Agent: %v\n", pose.Translation)

		results, err := monitor.TestAgentAgainstStatic(body)
		if err != nil {
			return err
		}
		debugger.DebugContacts(step+1, results)

		for _, static := range monitor.Statics() {
			if !body.AABB().Overlaps(static.AABB()) {
				continue
			}
			gjk.Overlaps(body, static, simplex)
			debugger.DebugGJK(body, static, simplex)
		}

		events.Observe(results)
		fmt.Println()
	}

	fmt.Println("Walk-through done")
	return nil
}

func main() {
	if err := WalkThroughDoor(); err != nil {
		fmt.Println("error:", err)
	}
}
