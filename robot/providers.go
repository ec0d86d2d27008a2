package robot

import (
	"context"

	"github.com/mwidla/teleop"
	"github.com/mwidla/teleop/catalog"
)

// Providers returns one capability provider per robot subsystem, all
// sharing the given handle.
func Providers(h *Handle) []catalog.Provider {
	return []catalog.Provider{
		ArmProvider{Handle: h},
		BaseProvider{Handle: h},
		GripperProvider{Handle: h},
		CameraProvider{Handle: h},
	}
}

// stringArg reads a string argument, falling back to def when absent or of
// the wrong type. Schema-level validation happened upstream; tools stay
// permissive here.
func stringArg(args map[string]any, key, def string) string {
	if s, ok := args[key].(string); ok && s != "" {
		return s
	}
	return def
}

// floatArg reads a numeric argument. JSON numbers decode as float64.
func floatArg(args map[string]any, key string, def float64) float64 {
	if f, ok := args[key].(float64); ok {
		return f
	}
	return def
}

// run connects through the handle and converts the transport call's outcome
// to a tool result.
func run(ctx context.Context, h *Handle, fn func(context.Context, Transport) (string, error)) teleop.ToolResult {
	t, err := h.use(ctx)
	if err != nil {
		return teleop.Fail(err.Error())
	}
	out, err := fn(ctx, t)
	if err != nil {
		return teleop.Fail(err.Error())
	}
	return teleop.Ok(out)
}

// ArmProvider exposes the manipulator arm.
type ArmProvider struct {
	Handle *Handle
}

func (ArmProvider) Name() string { return "arm" }

func (p ArmProvider) Tools() ([]catalog.Tool, error) {
	return []catalog.Tool{
		{
			Schema: teleop.ToolSchema{
				Name:        "arm_move",
				Description: "Move the arm to a named pose.",
				Parameters: []teleop.Parameter{
					{Name: "pose", Type: "string", Description: "Target pose name.", Enum: []string{"rest", "home", "extended", "pickup"}},
					{Name: "speed", Type: "number", Description: "Motion speed in (0, 1]. Defaults to 0.5."},
				},
				Required: []string{"pose"},
			},
			Impl: func(ctx context.Context, args map[string]any) teleop.ToolResult {
				return run(ctx, p.Handle, func(ctx context.Context, t Transport) (string, error) {
					return t.ArmMove(ctx, stringArg(args, "pose", "rest"), floatArg(args, "speed", 0.5))
				})
			},
			Mock: func(_ context.Context, args map[string]any) teleop.ToolResult {
				return teleop.Okf("arm would move to pose %q", stringArg(args, "pose", "rest"))
			},
		},
		{
			Schema: teleop.ToolSchema{
				Name:        "arm_position",
				Description: "Report the arm's current pose.",
			},
			Impl: func(ctx context.Context, _ map[string]any) teleop.ToolResult {
				return run(ctx, p.Handle, func(ctx context.Context, t Transport) (string, error) {
					return t.ArmPosition(ctx)
				})
			},
			Mock: func(_ context.Context, _ map[string]any) teleop.ToolResult {
				return teleop.Ok(`arm at pose "rest"`)
			},
		},
	}, nil
}

// BaseProvider exposes the mobile base.
type BaseProvider struct {
	Handle *Handle
}

func (BaseProvider) Name() string { return "base" }

func (p BaseProvider) Tools() ([]catalog.Tool, error) {
	return []catalog.Tool{
		{
			Schema: teleop.ToolSchema{
				Name:        "base_move",
				Description: "Drive the base in a cardinal direction.",
				Parameters: []teleop.Parameter{
					{Name: "direction", Type: "string", Description: "Direction of travel.", Enum: []string{"forward", "backward", "left", "right"}},
					{Name: "distance", Type: "number", Description: "Distance in meters."},
				},
				Required: []string{"direction", "distance"},
			},
			Impl: func(ctx context.Context, args map[string]any) teleop.ToolResult {
				return run(ctx, p.Handle, func(ctx context.Context, t Transport) (string, error) {
					return t.BaseMove(ctx, stringArg(args, "direction", "forward"), floatArg(args, "distance", 0))
				})
			},
			Mock: func(_ context.Context, args map[string]any) teleop.ToolResult {
				return teleop.Okf("base would move %s %.2fm", stringArg(args, "direction", "forward"), floatArg(args, "distance", 0))
			},
		},
		{
			Schema: teleop.ToolSchema{
				Name:        "base_rotate",
				Description: "Rotate the base in place.",
				Parameters: []teleop.Parameter{
					{Name: "degrees", Type: "number", Description: "Rotation in degrees, positive is counter-clockwise."},
				},
				Required: []string{"degrees"},
			},
			Impl: func(ctx context.Context, args map[string]any) teleop.ToolResult {
				return run(ctx, p.Handle, func(ctx context.Context, t Transport) (string, error) {
					return t.BaseRotate(ctx, floatArg(args, "degrees", 0))
				})
			},
			Mock: func(_ context.Context, args map[string]any) teleop.ToolResult {
				return teleop.Okf("base would rotate %.1f°", floatArg(args, "degrees", 0))
			},
		},
	}, nil
}

// GripperProvider exposes the gripper.
type GripperProvider struct {
	Handle *Handle
}

func (GripperProvider) Name() string { return "gripper" }

func (p GripperProvider) Tools() ([]catalog.Tool, error) {
	return []catalog.Tool{
		{
			Schema: teleop.ToolSchema{
				Name:        "gripper_set",
				Description: "Open or close the gripper.",
				Parameters: []teleop.Parameter{
					{Name: "state", Type: "string", Description: "Desired gripper state.", Enum: []string{"open", "closed"}},
				},
				Required: []string{"state"},
			},
			Impl: func(ctx context.Context, args map[string]any) teleop.ToolResult {
				return run(ctx, p.Handle, func(ctx context.Context, t Transport) (string, error) {
					return t.GripperSet(ctx, stringArg(args, "state", "open"))
				})
			},
			Mock: func(_ context.Context, args map[string]any) teleop.ToolResult {
				return teleop.Okf("gripper would be set %s", stringArg(args, "state", "open"))
			},
		},
	}, nil
}

// CameraProvider exposes the cameras and battery telemetry. Read-only
// tools, but they still go through the approval gate like everything else.
type CameraProvider struct {
	Handle *Handle
}

func (CameraProvider) Name() string { return "camera" }

func (p CameraProvider) Tools() ([]catalog.Tool, error) {
	return []catalog.Tool{
		{
			Schema: teleop.ToolSchema{
				Name:        "camera_capture",
				Description: "Capture a frame from a camera.",
				Parameters: []teleop.Parameter{
					{Name: "camera", Type: "string", Description: "Camera to read.", Enum: []string{"front", "wrist"}},
				},
				Required: []string{"camera"},
			},
			Impl: func(ctx context.Context, args map[string]any) teleop.ToolResult {
				return run(ctx, p.Handle, func(ctx context.Context, t Transport) (string, error) {
					return t.CameraCapture(ctx, stringArg(args, "camera", "front"))
				})
			},
			Mock: func(_ context.Context, args map[string]any) teleop.ToolResult {
				return teleop.Okf("would capture frame from %q camera", stringArg(args, "camera", "front"))
			},
		},
		{
			Schema: teleop.ToolSchema{
				Name:        "battery_status",
				Description: "Report the battery charge level.",
			},
			Impl: func(ctx context.Context, _ map[string]any) teleop.ToolResult {
				return run(ctx, p.Handle, func(ctx context.Context, t Transport) (string, error) {
					return t.BatteryStatus(ctx)
				})
			},
			Mock: func(_ context.Context, _ map[string]any) teleop.ToolResult {
				return teleop.Ok("battery at 100.0%")
			},
		},
	}, nil
}
