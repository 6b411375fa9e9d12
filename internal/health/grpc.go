package health

import (
	"context"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// GRPCChecker answers grpc.health.v1 checks from the dependency checks.
// The empty service name and serviceName are known; others are NotFound.
type GRPCChecker struct {
	checker     *Checker
	serviceName string
}

func NewGRPCChecker(checker *Checker, serviceName string) *GRPCChecker {
	return &GRPCChecker{
		checker:     checker,
		serviceName: serviceName,
	}
}

func (g *GRPCChecker) Check(ctx context.Context, req *grpchealth.CheckRequest) (*grpchealth.CheckResponse, error) {
	if req.Service != "" && req.Service != g.serviceName {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("unknown service %q", req.Service))
	}

	if g.checker.Check(ctx).Status != StatusHealthy {
		return &grpchealth.CheckResponse{Status: grpchealth.StatusNotServing}, nil
	}
	return &grpchealth.CheckResponse{Status: grpchealth.StatusServing}, nil
}

// Mount routes the gRPC health service to its handler and everything else to
// next. The result speaks cleartext HTTP/2 so gRPC clients can connect
// without TLS.
func Mount(next http.Handler, checker grpchealth.Checker) http.Handler {
	path, handler := grpchealth.NewHandler(checker)

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	mux.Handle("/", next)

	return h2c.NewHandler(mux, &http2.Server{})
}
