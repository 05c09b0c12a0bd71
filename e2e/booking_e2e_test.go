//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	bookinggrpc "github.com/vibast-solutions/ms-go-booking/app/grpc"
	"github.com/vibast-solutions/ms-go-booking/app/types"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	defaultHTTPBase = "http://localhost:8080"
	defaultGRPCAddr = "localhost:9090"
)

type graphQLClient struct {
	baseURL string
	client  *http.Client
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type payload struct {
	Email  *string  `json:"email"`
	Token  *string  `json:"token"`
	Result string   `json:"result"`
	Errors []string `json:"errors"`
}

func newGraphQLClient() *graphQLClient {
	return &graphQLClient{
		baseURL: envOr("BOOKING_HTTP_URL", defaultHTTPBase),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (c *graphQLClient) do(t *testing.T, bearer, query string, variables map[string]any) graphQLResponse {
	t.Helper()

	data, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil {
		t.Fatalf("json marshal failed: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/graphql", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("http request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("graphql status: %d body: %s", resp.StatusCode, string(body))
	}

	var out graphQLResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("graphql unmarshal failed: %v body: %s", err, string(body))
	}
	return out
}

// mutation runs a single-field mutation and decodes its payload.
func (c *graphQLClient) mutation(t *testing.T, bearer, field, query string, variables map[string]any) payload {
	t.Helper()

	res := c.do(t, bearer, query, variables)
	if len(res.Errors) > 0 {
		t.Fatalf("%s returned errors: %+v", field, res.Errors)
	}
	var data map[string]payload
	if err := json.Unmarshal(res.Data, &data); err != nil {
		t.Fatalf("%s unmarshal failed: %v", field, err)
	}
	return data[field]
}

func waitForHTTP(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 2 * time.Second}
	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/healthz")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("http service not ready at %s", baseURL)
}

func waitForGRPC(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("grpc service not ready at %s", addr)
}

const createAccountMutation = `mutation($email: String, $password: String) {
  createAccount(email: $email, password1: $password, password2: $password, name: "Jane", surnames: "Doe", phoneNumber: "+34612345678") {
    email result errors
  }
}`

const tokenAuthMutation = `mutation($email: String!, $password: String!) {
  tokenAuth(email: $email, password: $password) { token result errors }
}`

func TestBookingE2E_GraphQLFlow(t *testing.T) {
	httpBase := envOr("BOOKING_HTTP_URL", defaultHTTPBase)
	if err := waitForHTTP(httpBase, 30*time.Second); err != nil {
		t.Fatalf("http not ready: %v", err)
	}

	client := newGraphQLClient()
	email := fmt.Sprintf("e2e+%d@example.com", time.Now().UnixNano())
	password := "StrongPass1"

	abort := false
	fail := func(t *testing.T, format string, args ...any) {
		abort = true
		t.Fatalf(format, args...)
	}
	step := func(name string, fn func(t *testing.T)) {
		t.Run(name, func(t *testing.T) {
			if abort {
				t.Skip("previous step failed")
			}
			fn(t)
		})
	}

	step("CreateAccount", func(t *testing.T) {
		res := client.mutation(t, "", "createAccount", createAccountMutation, map[string]any{
			"email":    email,
			"password": password,
		})
		if res.Result != "OK" || len(res.Errors) != 0 {
			fail(t, "create account failed: %+v", res)
		}
	})

	step("CreateAccountDuplicate", func(t *testing.T) {
		res := client.mutation(t, "", "createAccount", createAccountMutation, map[string]any{
			"email":    email,
			"password": password,
		})
		if res.Result != "KO" || len(res.Errors) != 1 || res.Errors[0] != "EmailAlreadyRegisteredError" {
			fail(t, "expected duplicate email error, got %+v", res)
		}
	})

	step("TokenAuthBeforeActivation", func(t *testing.T) {
		res := client.mutation(t, "", "tokenAuth", tokenAuthMutation, map[string]any{
			"email":    email,
			"password": password,
		})
		if res.Result != "KO" || res.Token != nil {
			fail(t, "expected inactive account to be refused, got %+v", res)
		}
	})

	step("SendActivationEmail", func(t *testing.T) {
		res := client.mutation(t, "", "sendVerificationEmail", `mutation($email: String) {
  sendVerificationEmail(email: $email, action: ACTIVATE_ACCOUNT) { email action result errors }
}`, map[string]any{"email": email})
		if res.Result != "OK" {
			fail(t, "send activation email failed: %+v", res)
		}
	})

	step("ActivateWithForgedToken", func(t *testing.T) {
		res := client.mutation(t, "", "activateAccount", `mutation {
  activateAccount(token: "forged") { email result errors }
}`, nil)
		if res.Result != "KO" || len(res.Errors) == 0 {
			fail(t, "expected forged token to be refused, got %+v", res)
		}
	})

	step("MeAnonymous", func(t *testing.T) {
		res := client.do(t, "", `{ me { email } }`, nil)
		if len(res.Errors) == 0 {
			fail(t, "expected anonymous me to fail")
		}
	})

	step("StaffAppointmentStates", func(t *testing.T) {
		staffEmail, staffPassword := os.Getenv("BOOKING_STAFF_EMAIL"), os.Getenv("BOOKING_STAFF_PASSWORD")
		if staffEmail == "" || staffPassword == "" {
			t.Skip("BOOKING_STAFF_EMAIL and BOOKING_STAFF_PASSWORD not set")
		}

		auth := client.mutation(t, "", "tokenAuth", tokenAuthMutation, map[string]any{
			"email":    staffEmail,
			"password": staffPassword,
		})
		if auth.Result != "OK" || auth.Token == nil {
			fail(t, "staff token auth failed: %+v", auth)
		}

		res := client.do(t, *auth.Token, `mutation($name: String!) {
  createAppointmentState(name: $name) { appointmentStateNode { id name } result errors }
}`, map[string]any{"name": fmt.Sprintf("e2e-%d", time.Now().UnixNano())})
		if len(res.Errors) > 0 {
			fail(t, "create appointment state returned errors: %+v", res.Errors)
		}
		var data struct {
			CreateAppointmentState struct {
				Node *struct {
					ID string `json:"id"`
				} `json:"appointmentStateNode"`
				Result string `json:"result"`
			} `json:"createAppointmentState"`
		}
		if err := json.Unmarshal(res.Data, &data); err != nil {
			fail(t, "unmarshal failed: %v", err)
		}
		if data.CreateAppointmentState.Result != "OK" || data.CreateAppointmentState.Node == nil {
			fail(t, "unexpected create appointment state result: %s", string(res.Data))
		}
	})
}

func TestBookingE2E_GRPCFlow(t *testing.T) {
	grpcAddr := envOr("BOOKING_GRPC_ADDR", defaultGRPCAddr)
	if err := waitForGRPC(grpcAddr, 30*time.Second); err != nil {
		t.Fatalf("grpc not ready: %v", err)
	}

	conn, err := grpc.NewClient(grpcAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(bookinggrpc.CodecName)),
	)
	if err != nil {
		t.Fatalf("grpc client failed: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	method := func(name string) string { return "/" + bookinggrpc.ServiceName + "/" + name }

	var created types.AccountResponse
	err = conn.Invoke(ctx, method("CreateAccount"), &types.CreateAccountRequest{
		Email:       fmt.Sprintf("e2e-grpc+%d@example.com", time.Now().UnixNano()),
		Password1:   "StrongPass1",
		Password2:   "StrongPass1",
		Name:        "Jane",
		Surnames:    "Doe",
		PhoneNumber: "+34612345678",
	}, &created)
	if err != nil {
		t.Fatalf("create account failed: %v", err)
	}
	if created.GetStatus().GetResult() != "OK" {
		t.Fatalf("unexpected create account status: %+v", created.GetStatus())
	}

	var me types.MeResponse
	err = conn.Invoke(ctx, method("Me"), &types.Empty{}, &me)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected anonymous Me to be Unauthenticated, got %v", err)
	}

	badCtx := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer forged")
	err = conn.Invoke(badCtx, method("Me"), &types.Empty{}, &me)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected forged token to be Unauthenticated, got %v", err)
	}
}
