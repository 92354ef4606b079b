package optd

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GoSim-25-26J-441/forward-optimizer/pkg/config"
	"github.com/GoSim-25-26J-441/forward-optimizer/pkg/logger"
)

// OptimizerGRPCServer implements OptimizerServer on top of a RunStore.
type OptimizerGRPCServer struct {
	store    *RunStore
	Executor *RunExecutor
}

func NewOptimizerGRPCServer(store *RunStore, executor *RunExecutor) *OptimizerGRPCServer {
	return &OptimizerGRPCServer{
		store:    store,
		Executor: executor,
	}
}

func (s *OptimizerGRPCServer) CreateRun(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	csv := stringField(req, "variables_csv")
	if csv == "" {
		return nil, status.Error(codes.InvalidArgument, "variables_csv is required")
	}
	order, err := parseOrder(stringField(req, "model_order"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	rec, err := s.Executor.Submit(stringField(req, "run_id"), csv, order)
	if err != nil {
		switch {
		case config.IsConfigError(err):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		case errors.Is(err, ErrRunExists):
			return nil, status.Error(codes.AlreadyExists, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}

	logger.Info("run submitted (gRPC)", "run_id", rec.ID)
	return runResponse(rec)
}

func (s *OptimizerGRPCServer) GetRun(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	runID := stringField(req, "run_id")
	if runID == "" {
		return nil, status.Error(codes.InvalidArgument, "run_id is required")
	}
	rec, ok := s.store.Get(runID)
	if !ok {
		return nil, status.Error(codes.NotFound, "run not found")
	}
	return runResponse(rec)
}

func (s *OptimizerGRPCServer) ListRuns(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit := int(numberField(req, "limit"))
	if limit <= 0 {
		limit = 50
	}
	offset := max(int(numberField(req, "offset")), 0)
	recs := s.store.List(limit, offset, ParseRunStatus(stringField(req, "status")))

	resp, err := structpb.NewStruct(map[string]any{"runs": convertRuns(recs)})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

func (s *OptimizerGRPCServer) StopRun(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	runID := stringField(req, "run_id")
	if runID == "" {
		return nil, status.Error(codes.InvalidArgument, "run_id is required")
	}

	updated, err := s.Executor.Stop(runID)
	if err != nil {
		switch {
		case errors.Is(err, ErrRunNotFound):
			return nil, status.Error(codes.NotFound, err.Error())
		case errors.Is(err, ErrRunTerminal):
			return nil, status.Error(codes.FailedPrecondition, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	return runResponse(updated)
}

func runResponse(rec *RunRecord) (*structpb.Struct, error) {
	resp, err := structpb.NewStruct(map[string]any{"run": convertRun(rec)})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

func stringField(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	return s.GetFields()[key].GetStringValue()
}

func numberField(s *structpb.Struct, key string) float64 {
	if s == nil {
		return 0
	}
	return s.GetFields()[key].GetNumberValue()
}
