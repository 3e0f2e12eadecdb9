package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/eytandecker/simsensors/internal/uavobject"
	"github.com/eytandecker/simsensors/pkg/types"
)

// ObjectReader is the subset of uavobject.Bus used by the MCP server.
type ObjectReader interface {
	Names() []string
	Fresh(name string) (types.ObjectState, error)
}

// GyrosBiasWriter is implemented by the GyrosBias object handle.
type GyrosBiasWriter interface {
	Set(v types.GyrosBias)
}

// Server wraps the MCP SDK server and exposes the sensor objects as tools.
type Server struct {
	sdk     *mcpsdk.Server
	objects ObjectReader
	bias    GyrosBiasWriter
}

// NewServer creates a Server and registers its tools. set_gyro_bias is only
// registered when bias is non-nil.
func NewServer(objects ObjectReader, bias GyrosBiasWriter) *Server {
	s := &Server{
		sdk: mcpsdk.NewServer(&mcpsdk.Implementation{
			Name:    "simsensors",
			Version: "1.0.0",
		}, nil),
		objects: objects,
		bias:    bias,
	}

	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "get_sensor_state",
		Description: "Returns the latest simulated accelerometer, gyroscope, barometer, GPS and magnetometer objects.",
	}, s.handleGetSensorState)

	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "get_home_location",
		Description: "Returns the home location and the earth magnetic field vector used by the simulation.",
	}, s.handleGetHomeLocation)

	if bias != nil {
		mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
			Name:        "set_gyro_bias",
			Description: "Sets the gyro bias (deg/s) added to every simulated gyroscope sample.",
		}, s.handleSetGyroBias)
	}
	return s
}

// Run starts the MCP server over stdio and blocks until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.sdk.Run(ctx, &mcpsdk.StdioTransport{})
}

// Connect connects the server to an existing transport (used in tests).
func (s *Server) Connect(ctx context.Context, t mcpsdk.Transport) (*mcpsdk.ServerSession, error) {
	return s.sdk.Connect(ctx, t, nil)
}

// getSensorStateInput holds arguments for the get_sensor_state tool.
type getSensorStateInput struct {
	Objects []string `json:"objects,omitempty"`
}

// SensorStateResponse is the JSON payload returned by get_sensor_state.
// Without a filter, stale objects are listed instead of failing the call.
type SensorStateResponse struct {
	Objects   []types.ObjectState `json:"objects"`
	Stale     []string            `json:"stale,omitempty"`
	Timestamp string              `json:"timestamp"`
}

// ErrorResponse is returned when the requested data cannot be provided.
type ErrorResponse struct {
	Available   bool   `json:"available"`
	Error       string `json:"error"`
	Code        string `json:"code"`
	Recoverable bool   `json:"recoverable"`
	Suggestion  string `json:"suggestion"`
	Timestamp   string `json:"timestamp"`
}

func (s *Server) handleGetSensorState(
	ctx context.Context,
	req *mcpsdk.CallToolRequest,
	input getSensorStateInput,
) (*mcpsdk.CallToolResult, any, error) {
	resp := SensorStateResponse{
		Objects:   []types.ObjectState{},
		Timestamp: now(),
	}

	if len(input.Objects) > 0 {
		for _, name := range input.Objects {
			obj, err := s.objects.Fresh(name)
			if err != nil {
				return s.errorResult(err), nil, nil
			}
			resp.Objects = append(resp.Objects, obj)
		}
		return jsonResult(resp)
	}

	for _, name := range s.objects.Names() {
		obj, err := s.objects.Fresh(name)
		switch {
		case err == nil:
			resp.Objects = append(resp.Objects, obj)
		case errors.Is(err, uavobject.ErrStale):
			resp.Stale = append(resp.Stale, name)
		default:
			return s.errorResult(err), nil, nil
		}
	}
	return jsonResult(resp)
}

// HomeLocationResponse is the JSON payload returned by get_home_location.
type HomeLocationResponse struct {
	types.HomeLocation
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleGetHomeLocation(
	ctx context.Context,
	req *mcpsdk.CallToolRequest,
	input struct{},
) (*mcpsdk.CallToolResult, any, error) {
	obj, err := s.objects.Fresh(types.ObjectHomeLocation)
	if err != nil {
		return s.errorResult(err), nil, nil
	}
	home, ok := obj.Data.(types.HomeLocation)
	if !ok {
		return s.errorResult(&types.ObjectError{Object: types.ObjectHomeLocation, Err: uavobject.ErrTypeMismatch}), nil, nil
	}
	return jsonResult(HomeLocationResponse{HomeLocation: home, Timestamp: now()})
}

// setGyroBiasInput holds arguments for the set_gyro_bias tool.
type setGyroBiasInput struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// GyroBiasResponse echoes the bias that was written.
type GyroBiasResponse struct {
	types.GyrosBias
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleSetGyroBias(
	ctx context.Context,
	req *mcpsdk.CallToolRequest,
	input setGyroBiasInput,
) (*mcpsdk.CallToolResult, any, error) {
	bias := types.GyrosBias{X: input.X, Y: input.Y, Z: input.Z}
	s.bias.Set(bias)
	return jsonResult(GyroBiasResponse{GyrosBias: bias, Timestamp: now()})
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func jsonResult(v any) (*mcpsdk.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, nil, nil
}

func (s *Server) errorResult(err error) *mcpsdk.CallToolResult {
	resp := ErrorResponse{
		Available: false,
		Error:     err.Error(),
		Timestamp: now(),
	}

	switch {
	case errors.Is(err, uavobject.ErrStale):
		resp.Code = "DATA_STALE"
		resp.Recoverable = true
		resp.Suggestion = "Wait for the sensors task to publish fresh data."
	case errors.Is(err, uavobject.ErrNotRegistered):
		resp.Code = "OBJECT_NOT_REGISTERED"
		resp.Recoverable = false
		resp.Suggestion = "Use one of: Accels, Gyros, GyrosBias, BaroAltitude, GPSPosition, Magnetometer, HomeLocation."
	default:
		resp.Code = "UNKNOWN_ERROR"
		resp.Recoverable = false
		resp.Suggestion = "Check application logs for details."
	}

	data, _ := json.Marshal(resp)
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
		IsError: true,
	}
}
