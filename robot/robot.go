// Package robot is the boundary to the robot SDK. The orchestrator never
// talks to hardware directly: it sees a [Transport], holds it through a
// session-scoped [Handle], and exposes each subsystem to the model as a
// capability provider of schema-described tools.
package robot

import "context"

// Transport is the external robot SDK surface the orchestrator depends on.
// Implementations wrap a real SDK client; [Virtual] is the in-memory one
// used in development and tests.
type Transport interface {
	// Connect establishes the session. Called lazily, at most once per Handle.
	Connect(ctx context.Context) error
	Close() error

	ArmMove(ctx context.Context, pose string, speed float64) (string, error)
	ArmPosition(ctx context.Context) (string, error)
	BaseMove(ctx context.Context, direction string, meters float64) (string, error)
	BaseRotate(ctx context.Context, degrees float64) (string, error)
	GripperSet(ctx context.Context, state string) (string, error)
	CameraCapture(ctx context.Context, camera string) (string, error)
	BatteryStatus(ctx context.Context) (string, error)
}
