package robot

import (
	"context"
	"fmt"
	"sync"
)

// Interface compliance check.
var _ Transport = (*Virtual)(nil)

// Virtual is an in-memory [Transport] for development and tests. It keeps
// just enough state to make consecutive commands observable: current arm
// pose, base odometry, gripper state, and a battery that drains a little
// with every motion.
type Virtual struct {
	mu       sync.Mutex
	connects int
	closed   bool

	armPose string
	x, y    float64
	heading float64
	gripper string
	battery float64
}

// NewVirtual creates a virtual robot parked at the origin.
func NewVirtual() *Virtual {
	return &Virtual{
		armPose: "rest",
		gripper: "open",
		battery: 100,
	}
}

// Connects reports how many times Connect has been called.
func (v *Virtual) Connects() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.connects
}

func (v *Virtual) Connect(_ context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.connects++
	v.closed = false
	return nil
}

func (v *Virtual) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	return nil
}

func (v *Virtual) ArmMove(_ context.Context, pose string, speed float64) (string, error) {
	if speed <= 0 || speed > 1 {
		return "", fmt.Errorf("speed %.2f out of range (0, 1]", speed)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.armPose = pose
	v.battery -= 0.5
	return fmt.Sprintf("arm moved to pose %q at speed %.2f", pose, speed), nil
}

func (v *Virtual) ArmPosition(_ context.Context) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return fmt.Sprintf("arm at pose %q", v.armPose), nil
}

func (v *Virtual) BaseMove(_ context.Context, direction string, meters float64) (string, error) {
	if meters < 0 {
		return "", fmt.Errorf("distance %.2f is negative", meters)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	switch direction {
	case "forward":
		v.y += meters
	case "backward":
		v.y -= meters
	case "left":
		v.x -= meters
	case "right":
		v.x += meters
	default:
		return "", fmt.Errorf("unknown direction %q", direction)
	}
	v.battery -= meters * 0.1
	return fmt.Sprintf("base moved %s %.2fm, now at (%.2f, %.2f)", direction, meters, v.x, v.y), nil
}

func (v *Virtual) BaseRotate(_ context.Context, degrees float64) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.heading += degrees
	for v.heading >= 360 {
		v.heading -= 360
	}
	for v.heading < 0 {
		v.heading += 360
	}
	return fmt.Sprintf("base rotated %.1f°, heading %.1f°", degrees, v.heading), nil
}

func (v *Virtual) GripperSet(_ context.Context, state string) (string, error) {
	if state != "open" && state != "closed" {
		return "", fmt.Errorf("unknown gripper state %q", state)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gripper = state
	return fmt.Sprintf("gripper %s", state), nil
}

func (v *Virtual) CameraCapture(_ context.Context, camera string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return fmt.Sprintf("captured frame from %q camera at (%.2f, %.2f) heading %.1f°", camera, v.x, v.y, v.heading), nil
}

func (v *Virtual) BatteryStatus(_ context.Context) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return fmt.Sprintf("battery at %.1f%%", v.battery), nil
}
