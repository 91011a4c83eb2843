package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/rl1809/hoodie-drop/internal/core/domain"
	"github.com/rl1809/hoodie-drop/internal/core/service"
)

const CheckoutServiceName = "checkout.v1.CheckoutService"

// CheckoutServiceServer is the gRPC surface of the checkout. Messages are
// google.protobuf.Struct so clients need no generated stubs.
type CheckoutServiceServer interface {
	StartDraft(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCheckout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetField(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Submit(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type GRPCHandler struct {
	checkoutService *service.CheckoutService
	logger          *zap.Logger
}

func NewGRPCHandler(checkoutService *service.CheckoutService, logger *zap.Logger) *GRPCHandler {
	return &GRPCHandler{checkoutService: checkoutService, logger: logger}
}

func RegisterCheckoutServiceServer(s grpc.ServiceRegistrar, srv CheckoutServiceServer) {
	s.RegisterService(&checkoutServiceDesc, srv)
}

func (h *GRPCHandler) StartDraft(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	checkout, err := h.checkoutService.StartDraft(ctx)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return checkoutStruct(checkout)
}

func (h *GRPCHandler) GetCheckout(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredString(req, "id")
	if err != nil {
		return nil, err
	}
	checkout, err := h.checkoutService.GetCheckout(ctx, id)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return checkoutStruct(checkout)
}

func (h *GRPCHandler) SetField(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredString(req, "id")
	if err != nil {
		return nil, err
	}
	name, err := requiredString(req, "name")
	if err != nil {
		return nil, err
	}
	value, err := scalarValue(req, "value")
	if err != nil {
		return nil, err
	}

	checkout, err := h.checkoutService.SetField(ctx, id, domain.Field(name), value)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return checkoutStruct(checkout)
}

func (h *GRPCHandler) Submit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredString(req, "id")
	if err != nil {
		return nil, err
	}
	result, err := h.checkoutService.Submit(ctx, id)
	if err != nil {
		return nil, h.toStatus(err)
	}

	resp, err := checkoutStruct(result.Checkout)
	if err != nil {
		return nil, err
	}
	resp.Fields["delivery"] = structpb.NewStringValue("dispatched")
	resp.Fields["dispatchedAt"] = structpb.NewStringValue(result.Sent.DispatchedAt.UTC().Format(time.RFC3339Nano))
	return resp, nil
}

func (h *GRPCHandler) toStatus(err error) error {
	httpStatus, _, message, _ := classifyError(err)
	var code codes.Code
	switch httpStatus {
	case http.StatusNotFound:
		code = codes.NotFound
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		code = codes.InvalidArgument
	case http.StatusBadGateway:
		code = codes.Unavailable
	case http.StatusConflict:
		code = codes.FailedPrecondition
		if errors.Is(err, service.ErrCheckoutBusy) {
			code = codes.Aborted
		}
	default:
		h.logger.Error("checkout rpc failed", zap.Error(err))
		code = codes.Internal
	}
	return status.Error(code, message)
}

func checkoutStruct(checkout *domain.Checkout) (*structpb.Struct, error) {
	draft := checkout.Draft
	fields := map[string]interface{}{
		"id":           checkout.ID,
		"state":        string(checkout.State),
		"lastError":    checkout.LastError,
		"selectedSize": draft.SelectedSize(),
		"draft": map[string]interface{}{
			"name":            draft.Name,
			"email":           draft.Email,
			"phone":           draft.Phone,
			"year":            draft.Year,
			"major":           draft.Major,
			"size":            string(draft.Size),
			"paymentMethod":   string(draft.PaymentMethod),
			"agreedToAdvance": draft.AgreedToAdvance,
			"rating":          draft.Rating,
		},
	}
	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode checkout: %v", err)
	}
	return resp, nil
}

func requiredString(req *structpb.Struct, key string) (string, error) {
	value := stringValue(req, key)
	if value == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return value, nil
}

// scalarValue renders a string, bool or number field the way the form would
// post it. A missing or null field is empty; lists and objects are rejected.
func scalarValue(req *structpb.Struct, key string) (string, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return "", nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return kind.StringValue, nil
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(kind.BoolValue), nil
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(kind.NumberValue, 'f', -1, 64), nil
	case *structpb.Value_NullValue, nil:
		return "", nil
	}
	return "", status.Errorf(codes.InvalidArgument, "%s must be a string, number or boolean", key)
}

func stringValue(req *structpb.Struct, key string) string {
	if req == nil {
		return ""
	}
	return req.GetFields()[key].GetStringValue()
}

func unaryHandler(method func(CheckoutServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error), fullMethod string) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method(srv.(CheckoutServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return method(srv.(CheckoutServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var checkoutServiceDesc = grpc.ServiceDesc{
	ServiceName: CheckoutServiceName,
	HandlerType: (*CheckoutServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "StartDraft", Handler: unaryHandler(CheckoutServiceServer.StartDraft, "/"+CheckoutServiceName+"/StartDraft")},
		{MethodName: "GetCheckout", Handler: unaryHandler(CheckoutServiceServer.GetCheckout, "/"+CheckoutServiceName+"/GetCheckout")},
		{MethodName: "SetField", Handler: unaryHandler(CheckoutServiceServer.SetField, "/"+CheckoutServiceName+"/SetField")},
		{MethodName: "Submit", Handler: unaryHandler(CheckoutServiceServer.Submit, "/"+CheckoutServiceName+"/Submit")},
	},
	Streams: []grpc.StreamDesc{},
}
