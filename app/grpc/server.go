package grpc

import (
	"context"
	"errors"

	"github.com/vibast-solutions/ms-go-booking/app/dto"
	"github.com/vibast-solutions/ms-go-booking/app/middleware"
	"github.com/vibast-solutions/ms-go-booking/app/service"
	"github.com/vibast-solutions/ms-go-booking/app/types"

	"github.com/sirupsen/logrus"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "accounts.AccountService"

type AccountServiceServer interface {
	CreateAccount(context.Context, *types.CreateAccountRequest) (*types.AccountResponse, error)
	SendVerificationEmail(context.Context, *types.SendVerificationEmailRequest) (*types.SendVerificationEmailResponse, error)
	ActivateAccount(context.Context, *types.TokenRequest) (*types.AccountResponse, error)
	UpdateEmail(context.Context, *types.TokenRequest) (*types.UpdateEmailResponse, error)
	ResetPassword(context.Context, *types.ResetPasswordRequest) (*types.AccountResponse, error)
	DeactivateAccount(context.Context, *types.Empty) (*types.AccountResponse, error)
	Me(context.Context, *types.Empty) (*types.MeResponse, error)
}

// AccountServer exposes the account lifecycle over gRPC. Domain failures
// travel in the response status, only transport and auth problems become
// gRPC errors.
type AccountServer struct {
	accounts service.AccountService
}

func NewAccountServer(accounts service.AccountService) *AccountServer {
	return &AccountServer{accounts: accounts}
}

func (s *AccountServer) CreateAccount(ctx context.Context, req *types.CreateAccountRequest) (*types.AccountResponse, error) {
	logrus.WithField("email", req.GetEmail()).Info("Create account request received (grpc)")
	res := s.accounts.CreateAccount(ctx, dto.CreateAccountInput{
		Email:       req.Email,
		Password1:   req.Password1,
		Password2:   req.Password2,
		Name:        req.Name,
		Surnames:    req.Surnames,
		PhoneNumber: req.PhoneNumber,
	})
	return accountResponse(res), nil
}

func (s *AccountServer) SendVerificationEmail(ctx context.Context, req *types.SendVerificationEmailRequest) (*types.SendVerificationEmailResponse, error) {
	if err := req.Validate(); err != nil {
		logrus.WithField("email", req.GetEmail()).Debug("Send verification email validation failed (grpc)")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	res := s.accounts.RequestVerificationEmail(ctx, middleware.CallerFromContext(ctx), req.GetEmail(), req.GetAction())
	return &types.SendVerificationEmailResponse{
		Email:  res.Email,
		Action: res.Action,
		Status: toStatus(res.Status),
	}, nil
}

func (s *AccountServer) ActivateAccount(ctx context.Context, req *types.TokenRequest) (*types.AccountResponse, error) {
	return accountResponse(s.accounts.ActivateAccount(ctx, req.GetToken())), nil
}

func (s *AccountServer) UpdateEmail(ctx context.Context, req *types.TokenRequest) (*types.UpdateEmailResponse, error) {
	res := s.accounts.UpdateEmail(ctx, req.GetToken())
	return &types.UpdateEmailResponse{
		OldEmail: res.OldEmail,
		NewEmail: res.NewEmail,
		Status:   toStatus(res.Status),
	}, nil
}

func (s *AccountServer) ResetPassword(ctx context.Context, req *types.ResetPasswordRequest) (*types.AccountResponse, error) {
	return accountResponse(s.accounts.ResetPassword(ctx, req.GetToken(), req.Password1, req.Password2)), nil
}

func (s *AccountServer) DeactivateAccount(ctx context.Context, _ *types.Empty) (*types.AccountResponse, error) {
	return accountResponse(s.accounts.DeactivateAccount(ctx, middleware.CallerFromContext(ctx))), nil
}

func (s *AccountServer) Me(ctx context.Context, _ *types.Empty) (*types.MeResponse, error) {
	account, err := s.accounts.Me(ctx, middleware.CallerFromContext(ctx))
	if err != nil {
		if errors.Is(err, service.ErrUserNotLoggedIn) {
			return nil, status.Error(codes.Unauthenticated, "user not logged in")
		}
		logrus.WithError(err).Error("Me failed (grpc)")
		return nil, status.Error(codes.Internal, "internal server error")
	}

	return &types.MeResponse{
		ID:          account.ID,
		Email:       account.Email,
		Name:        account.Name,
		Surnames:    account.Surnames,
		PhoneNumber: account.PhoneNumber,
		IsActive:    account.IsActive,
		IsStaff:     account.IsStaff,
		IsVip:       account.IsVip,
	}, nil
}

func accountResponse(res dto.AccountResult) *types.AccountResponse {
	return &types.AccountResponse{Email: res.Email, Status: toStatus(res.Status)}
}

func toStatus(st dto.Status) *types.Status {
	errs := st.Errors
	if errs == nil {
		errs = []string{}
	}
	return &types.Status{Result: st.Result, Errors: errs}
}

// Register attaches the server to a gRPC server under ServiceName.
func Register(registrar gogrpc.ServiceRegistrar, srv AccountServiceServer) {
	registrar.RegisterService(&serviceDesc, srv)
}

func unaryHandler[Req any, Res any](method string, call func(AccountServiceServer, context.Context, *Req) (*Res, error)) gogrpc.MethodDesc {
	return gogrpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			server := srv.(AccountServiceServer)
			if interceptor == nil {
				return call(server, ctx, in)
			}
			info := &gogrpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + method,
			}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(server, ctx, req.(*Req))
			})
		},
	}
}

var serviceDesc = gogrpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AccountServiceServer)(nil),
	Methods: []gogrpc.MethodDesc{
		unaryHandler("CreateAccount", AccountServiceServer.CreateAccount),
		unaryHandler("SendVerificationEmail", AccountServiceServer.SendVerificationEmail),
		unaryHandler("ActivateAccount", AccountServiceServer.ActivateAccount),
		unaryHandler("UpdateEmail", AccountServiceServer.UpdateEmail),
		unaryHandler("ResetPassword", AccountServiceServer.ResetPassword),
		unaryHandler("DeactivateAccount", AccountServiceServer.DeactivateAccount),
		unaryHandler("Me", AccountServiceServer.Me),
	},
	Streams: []gogrpc.StreamDesc{},
}
