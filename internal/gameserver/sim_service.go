// Package gameserver hosts characters in real time and exposes the balance
// simulator over gRPC.
package gameserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/idlerpg/internal/sim"
)

const (
	// SimServiceName is the fully qualified gRPC service name.
	SimServiceName = "idlerpg.sim.v1.SimService"
	// RunBatchMethod is the full method path of RunBatch.
	RunBatchMethod = "/" + SimServiceName + "/RunBatch"
)

// SimServer is the server API of the simulation service. Requests and
// responses are google.protobuf.Struct documents.
type SimServer interface {
	RunBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ReportStore persists finished simulation reports.
type ReportStore interface {
	Save(ctx context.Context, rep *sim.SimReport) error
}

// SimServiceDesc describes SimService for grpc.Server.RegisterService.
var SimServiceDesc = grpc.ServiceDesc{
	ServiceName: SimServiceName,
	HandlerType: (*SimServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RunBatch", Handler: runBatchHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "idlerpg/sim/v1/sim.proto",
}

// RegisterSimServer registers srv with s.
func RegisterSimServer(s grpc.ServiceRegistrar, srv SimServer) {
	s.RegisterService(&SimServiceDesc, srv)
}

func runBatchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SimServer).RunBatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RunBatchMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SimServer).RunBatch(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// SimClient calls a remote SimService.
type SimClient struct {
	cc grpc.ClientConnInterface
}

// NewSimClient returns a client bound to cc.
func NewSimClient(cc grpc.ClientConnInterface) *SimClient {
	return &SimClient{cc: cc}
}

// RunBatch invokes the remote RunBatch method.
func (c *SimClient) RunBatch(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, RunBatchMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// SimService runs simulation batches on request.
//
// Request fields (all optional, unset fields take the configured defaults):
// num_runs, seed (decimal string or number), max_ticks_per_run, target_zone,
// target_prestige, simulate_loot, simulate_prestige, include_runs.
//
// The response is the JSON report as a Struct. base_seed is rendered as a
// decimal string because a Struct number cannot hold every uint64; runs are
// omitted unless include_runs is set.
type SimService struct {
	runner   *sim.Runner
	defaults sim.SimConfig
	store    ReportStore
	logger   *zap.Logger
}

// NewSimService returns a service that runs batches on runner. store may be nil.
//
// Precondition: runner and logger must be non-nil.
func NewSimService(runner *sim.Runner, defaults sim.SimConfig, store ReportStore, logger *zap.Logger) *SimService {
	if runner == nil || logger == nil {
		panic("gameserver.NewSimService: runner and logger must be non-nil")
	}
	return &SimService{runner: runner, defaults: defaults, store: store, logger: logger}
}

// RunBatch implements SimServer.
func (s *SimService) RunBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sc, includeRuns, err := decodeRequest(s.defaults, req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	rep, err := s.runner.RunBatch(ctx, sc)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, status.FromContextError(err).Err()
		}
		return nil, status.Errorf(codes.Internal, "running batch: %v", err)
	}

	if s.store != nil {
		if err := s.store.Save(ctx, rep); err != nil {
			s.logger.Warn("storing simulation report failed",
				zap.String("batch_id", rep.BatchID),
				zap.Error(err),
			)
		}
	}

	out, err := encodeReport(rep, includeRuns)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding report: %v", err)
	}
	return out, nil
}

func decodeRequest(defaults sim.SimConfig, req *structpb.Struct) (sim.SimConfig, bool, error) {
	sc := defaults
	var includeRuns bool
	for name, v := range req.GetFields() {
		var err error
		switch name {
		case "num_runs":
			var n uint64
			n, err = uintField(v, math.MaxUint32)
			sc.NumRuns = uint32(n)
		case "seed":
			var seed uint64
			seed, err = seedField(v)
			sc.Seed = &seed
		case "max_ticks_per_run":
			sc.MaxTicksPerRun, err = uintField(v, 1<<53)
		case "target_zone":
			var n uint64
			n, err = uintField(v, math.MaxUint32)
			sc.TargetZone = uint32(n)
		case "target_prestige":
			var n uint64
			n, err = uintField(v, math.MaxUint32)
			sc.TargetPrestige = uint32(n)
		case "simulate_loot":
			sc.SimulateLoot, err = boolField(v)
		case "simulate_prestige":
			sc.SimulatePrestige, err = boolField(v)
		case "include_runs":
			includeRuns, err = boolField(v)
		default:
			err = errors.New("unknown field")
		}
		if err != nil {
			return sim.SimConfig{}, false, fmt.Errorf("field %q: %w", name, err)
		}
	}
	if sc.NumRuns > sim.MaxNumRuns {
		return sim.SimConfig{}, false, fmt.Errorf("field \"num_runs\": at most %d runs per batch", sim.MaxNumRuns)
	}
	return sc, includeRuns, nil
}

func uintField(v *structpb.Value, max uint64) (uint64, error) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, errors.New("must be a number")
	}
	f := n.NumberValue
	if f < 0 || f != math.Trunc(f) || f > float64(max) {
		return 0, fmt.Errorf("must be an integer in [0, %d]", max)
	}
	return uint64(f), nil
}

func seedField(v *structpb.Value) (uint64, error) {
	if s, ok := v.GetKind().(*structpb.Value_StringValue); ok {
		seed, err := strconv.ParseUint(s.StringValue, 10, 64)
		if err != nil {
			return 0, errors.New("must be a decimal uint64")
		}
		return seed, nil
	}
	return uintField(v, 1<<53)
}

func boolField(v *structpb.Value) (bool, error) {
	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, errors.New("must be a bool")
	}
	return b.BoolValue, nil
}

func encodeReport(rep *sim.SimReport, includeRuns bool) (*structpb.Struct, error) {
	data, err := json.Marshal(rep)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	doc["base_seed"] = strconv.FormatUint(rep.BaseSeed, 10)
	if cfg, ok := doc["config"].(map[string]any); ok && rep.Config.Seed != nil {
		cfg["seed"] = strconv.FormatUint(*rep.Config.Seed, 10)
	}
	if !includeRuns {
		delete(doc, "runs")
	} else if runs, ok := doc["runs"].([]any); ok {
		for i, r := range runs {
			if run, ok := r.(map[string]any); ok && i < len(rep.Runs) {
				run["seed"] = strconv.FormatUint(rep.Runs[i].Seed, 10)
			}
		}
	}
	return structpb.NewStruct(doc)
}
