package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/fistein/pkg/api"
)

// ExpenseServiceName is the fully-qualified name of the ExpenseService service.
const ExpenseServiceName = "fistein.v1.ExpenseService"

// These constants are the fully-qualified names of the RPCs defined in
// ExpenseService. They're exposed at runtime as Spec.Procedure.
const (
	ExpenseServiceCreateExpenseProcedure    = "/fistein.v1.ExpenseService/CreateExpense"
	ExpenseServiceGetExpenseProcedure       = "/fistein.v1.ExpenseService/GetExpense"
	ExpenseServiceListExpensesProcedure     = "/fistein.v1.ExpenseService/ListExpenses"
	ExpenseServiceUpdateExpenseProcedure    = "/fistein.v1.ExpenseService/UpdateExpense"
	ExpenseServiceDeleteExpenseProcedure    = "/fistein.v1.ExpenseService/DeleteExpense"
	ExpenseServiceGetExpenseSharesProcedure = "/fistein.v1.ExpenseService/GetExpenseShares"
	ExpenseServiceSettleSharesProcedure     = "/fistein.v1.ExpenseService/SettleShares"
)

// ExpenseServiceHandler is implemented by the server side of the ExpenseService.
// ExpenseService records expenses and settles their shares.
type ExpenseServiceHandler interface {
	CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error)
	GetExpense(context.Context, *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	UpdateExpense(context.Context, *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error)
	GetExpenseShares(context.Context, *connect.Request[api.GetExpenseSharesRequest]) (*connect.Response[api.GetExpenseSharesResponse], error)
	SettleShares(context.Context, *connect.Request[api.SettleSharesRequest]) (*connect.Response[api.SettleSharesResponse], error)
}

// NewExpenseServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewExpenseServiceHandler(svc ExpenseServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts, connect.HandlerOption(connect.WithCodec(Codec{})))
	createExpenseHandler := connect.NewUnaryHandler(ExpenseServiceCreateExpenseProcedure, svc.CreateExpense, opts...)
	getExpenseHandler := connect.NewUnaryHandler(ExpenseServiceGetExpenseProcedure, svc.GetExpense, opts...)
	listExpensesHandler := connect.NewUnaryHandler(ExpenseServiceListExpensesProcedure, svc.ListExpenses, opts...)
	updateExpenseHandler := connect.NewUnaryHandler(ExpenseServiceUpdateExpenseProcedure, svc.UpdateExpense, opts...)
	deleteExpenseHandler := connect.NewUnaryHandler(ExpenseServiceDeleteExpenseProcedure, svc.DeleteExpense, opts...)
	getExpenseSharesHandler := connect.NewUnaryHandler(ExpenseServiceGetExpenseSharesProcedure, svc.GetExpenseShares, opts...)
	settleSharesHandler := connect.NewUnaryHandler(ExpenseServiceSettleSharesProcedure, svc.SettleShares, opts...)
	return "/fistein.v1.ExpenseService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ExpenseServiceCreateExpenseProcedure:
			createExpenseHandler.ServeHTTP(w, r)
		case ExpenseServiceGetExpenseProcedure:
			getExpenseHandler.ServeHTTP(w, r)
		case ExpenseServiceListExpensesProcedure:
			listExpensesHandler.ServeHTTP(w, r)
		case ExpenseServiceUpdateExpenseProcedure:
			updateExpenseHandler.ServeHTTP(w, r)
		case ExpenseServiceDeleteExpenseProcedure:
			deleteExpenseHandler.ServeHTTP(w, r)
		case ExpenseServiceGetExpenseSharesProcedure:
			getExpenseSharesHandler.ServeHTTP(w, r)
		case ExpenseServiceSettleSharesProcedure:
			settleSharesHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// ExpenseServiceClient is a client for the fistein.v1.ExpenseService service.
type ExpenseServiceClient interface {
	CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error)
	GetExpense(context.Context, *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	UpdateExpense(context.Context, *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error)
	GetExpenseShares(context.Context, *connect.Request[api.GetExpenseSharesRequest]) (*connect.Response[api.GetExpenseSharesResponse], error)
	SettleShares(context.Context, *connect.Request[api.SettleSharesRequest]) (*connect.Response[api.SettleSharesResponse], error)
}

// NewExpenseServiceClient constructs a client for the fistein.v1.ExpenseService service.
// baseURL is the server's address, for example http://localhost:8080.
func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ExpenseServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = withCodec(opts, connect.ClientOption(connect.WithCodec(Codec{})))
	return &expenseServiceClient{
		createExpense:    connect.NewClient[api.CreateExpenseRequest, api.CreateExpenseResponse](httpClient, baseURL+ExpenseServiceCreateExpenseProcedure, opts...),
		getExpense:       connect.NewClient[api.GetExpenseRequest, api.GetExpenseResponse](httpClient, baseURL+ExpenseServiceGetExpenseProcedure, opts...),
		listExpenses:     connect.NewClient[api.ListExpensesRequest, api.ListExpensesResponse](httpClient, baseURL+ExpenseServiceListExpensesProcedure, opts...),
		updateExpense:    connect.NewClient[api.UpdateExpenseRequest, api.UpdateExpenseResponse](httpClient, baseURL+ExpenseServiceUpdateExpenseProcedure, opts...),
		deleteExpense:    connect.NewClient[api.DeleteExpenseRequest, api.DeleteExpenseResponse](httpClient, baseURL+ExpenseServiceDeleteExpenseProcedure, opts...),
		getExpenseShares: connect.NewClient[api.GetExpenseSharesRequest, api.GetExpenseSharesResponse](httpClient, baseURL+ExpenseServiceGetExpenseSharesProcedure, opts...),
		settleShares:     connect.NewClient[api.SettleSharesRequest, api.SettleSharesResponse](httpClient, baseURL+ExpenseServiceSettleSharesProcedure, opts...),
	}
}

type expenseServiceClient struct {
	createExpense    *connect.Client[api.CreateExpenseRequest, api.CreateExpenseResponse]
	getExpense       *connect.Client[api.GetExpenseRequest, api.GetExpenseResponse]
	listExpenses     *connect.Client[api.ListExpensesRequest, api.ListExpensesResponse]
	updateExpense    *connect.Client[api.UpdateExpenseRequest, api.UpdateExpenseResponse]
	deleteExpense    *connect.Client[api.DeleteExpenseRequest, api.DeleteExpenseResponse]
	getExpenseShares *connect.Client[api.GetExpenseSharesRequest, api.GetExpenseSharesResponse]
	settleShares     *connect.Client[api.SettleSharesRequest, api.SettleSharesResponse]
}

func (c *expenseServiceClient) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	return c.getExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *expenseServiceClient) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	return c.updateExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) GetExpenseShares(ctx context.Context, req *connect.Request[api.GetExpenseSharesRequest]) (*connect.Response[api.GetExpenseSharesResponse], error) {
	return c.getExpenseShares.CallUnary(ctx, req)
}

func (c *expenseServiceClient) SettleShares(ctx context.Context, req *connect.Request[api.SettleSharesRequest]) (*connect.Response[api.SettleSharesResponse], error) {
	return c.settleShares.CallUnary(ctx, req)
}
