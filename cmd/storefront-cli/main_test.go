package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/storefront/internal/domain/auth"
	"github.com/target/storefront/internal/domain/order"
)

type fakeShop struct {
	orders map[int64]order.Order
	staff  bool
}

func (f *fakeShop) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"detail":"Invalid credentials"}`))
			return
		}
		writeTestJSON(w, map[string]any{
			"token": "tok-" + body.Username,
			"user": domainauth.User{
				ID: 7, Username: body.Username, Email: body.Username + "@example.com", IsStaff: f.staff,
			},
		})
	})
	mux.HandleFunc("GET /api/orders/{id}/", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Token ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		for id, o := range f.orders {
			if r.PathValue("id") == strconv.FormatInt(id, 10) {
				writeTestJSON(w, o)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("GET /api/orders/", func(w http.ResponseWriter, _ *http.Request) {
		list := make([]order.Order, 0, len(f.orders))
		for _, o := range f.orders {
			list = append(list, o)
		}
		writeTestJSON(w, list)
	})
	mux.HandleFunc("GET /api/admin/orders/", func(w http.ResponseWriter, _ *http.Request) {
		writeTestJSON(w, []order.Order{
			{ID: 1, Status: "paid", ProductName: "Mug", ProductPrice: "9.5"},
			{ID: 2, Status: "failed", ProductName: "Lamp", ProductPrice: "30.00"},
		})
	})
	return mux
}

func writeTestJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type cliResult struct {
	code   int
	stdout string
	stderr string
}

func setupCLI(t *testing.T, shop *fakeShop) func(stdin string, args ...string) cliResult {
	t.Helper()
	srv := httptest.NewServer(shop.handler(t))
	t.Cleanup(srv.Close)

	t.Setenv("STORAGE_BACKEND", "file")
	t.Setenv("STORAGE_FILE_PATH", filepath.Join(t.TempDir(), "session.json"))
	t.Setenv("SHOP_API_BASE_URL", srv.URL)
	t.Setenv("LOG_LEVEL", "error")

	return func(stdin string, args ...string) cliResult {
		var stdout, stderr bytes.Buffer
		code := run(args, strings.NewReader(stdin), &stdout, &stderr)
		return cliResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
	}
}

func TestRun_NoArgsPrintsUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(nil, strings.NewReader(""), &stdout, &stderr)

	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "Usage: storefront-cli <command> [flags]")
	for _, name := range []string{"login", "logout", "whoami", "order", "orders"} {
		assert.Contains(t, stderr.String(), name)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"bogus"}, strings.NewReader(""), &stdout, &stderr)

	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), `unknown command "bogus"`)
}

func TestLoginPersistsAcrossInvocations(t *testing.T) {
	cli := setupCLI(t, &fakeShop{})

	res := cli("", "login", "-username", "alice", "-password", "secret")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Signed in as alice")

	// A fresh process restores the session from the file.
	res = cli("", "whoami", "-json")
	require.Equal(t, 0, res.code, res.stderr)

	var out whoamiOutput
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Equal(t, whoamiOutput{ID: 7, Username: "alice", Email: "alice@example.com"}, out)

	res = cli("", "logout")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Signed out")

	res = cli("", "whoami")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "not logged in")
}

func TestLoginPromptsForMissingCredentials(t *testing.T) {
	cli := setupCLI(t, &fakeShop{})

	res := cli("bob\nsecret\n", "login")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Username: ")
	assert.Contains(t, res.stdout, "Password: ")
	assert.Contains(t, res.stdout, "Signed in as bob")

	res = cli("", "whoami")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "bob@example.com")
}

func TestLoginReadsPasswordWithoutEchoOnTerminal(t *testing.T) {
	shop := &fakeShop{}
	srv := httptest.NewServer(shop.handler(t))
	t.Cleanup(srv.Close)
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("SHOP_API_BASE_URL", srv.URL)
	t.Setenv("LOG_LEVEL", "error")

	stdin, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { _ = stdin.Close() })
	_, err = w.WriteString("carol\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	var readFd int
	origIsTerminal, origReadPassword := isTerminal, readPassword
	t.Cleanup(func() { isTerminal, readPassword = origIsTerminal, origReadPassword })
	isTerminal = func(fd int) bool { return fd == int(stdin.Fd()) }
	readPassword = func(fd int) ([]byte, error) {
		readFd = fd
		return []byte("secret"), nil
	}

	var stdout, stderr bytes.Buffer
	code := run([]string{"login"}, stdin, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, int(stdin.Fd()), readFd, "password must come from the terminal reader")
	assert.Contains(t, stdout.String(), "Password: \n")
	assert.Contains(t, stdout.String(), "Signed in as carol")
	assert.NotContains(t, stdout.String(), "secret")
}

func TestPromptSecret_FallsBackForPipes(t *testing.T) {
	origIsTerminal := isTerminal
	t.Cleanup(func() { isTerminal = origIsTerminal })
	isTerminal = func(int) bool { return false }

	stdin := strings.NewReader("hunter2\n")
	var out bytes.Buffer
	got, err := promptSecret(&out, stdin, bufio.NewReader(stdin), "Password: ")

	require.NoError(t, err)
	assert.Equal(t, "hunter2", got)
	assert.Equal(t, "Password: ", out.String())
}

func TestLoginInvalidCredentials(t *testing.T) {
	cli := setupCLI(t, &fakeShop{})

	res := cli("", "login", "-username", "alice", "-password", "wrong")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "invalid credentials")

	res = cli("", "whoami")
	assert.Equal(t, 1, res.code)
}

func TestLoginRequiresCredentials(t *testing.T) {
	cli := setupCLI(t, &fakeShop{})

	res := cli("", "login")
	assert.Equal(t, 2, res.code)
	assert.Contains(t, res.stderr, "username and password are required")
}

func TestOrderCommand(t *testing.T) {
	shop := &fakeShop{orders: map[int64]order.Order{
		42: {ID: 42, Status: "paid", ProductName: "Desk Lamp", ProductPrice: "49.9", CardLastFour: "4242",
			CreatedAt: "2024-05-01T10:00:00Z"},
		43: {ID: 43, Status: "declined", ProductName: "Chair", ProductPrice: "120.00", CardLastFour: "0002"},
	}}
	cli := setupCLI(t, shop)

	res := cli("", "order", "42")
	assert.Equal(t, 1, res.code, "no session yet")
	assert.Contains(t, res.stderr, "Order not found")

	require.Equal(t, 0, cli("", "login", "-username", "alice", "-password", "secret").code)

	t.Run("confirmed", func(t *testing.T) {
		res := cli("", "order", "42")
		require.Equal(t, 0, res.code, res.stderr)
		assert.Contains(t, res.stdout, "Order Confirmed!")
		assert.Contains(t, res.stdout, "#42")
		assert.Contains(t, res.stdout, "Desk Lamp")
		assert.Contains(t, res.stdout, "$49.90")
		assert.Contains(t, res.stdout, "•••• 4242")
	})

	t.Run("failed", func(t *testing.T) {
		res := cli("", "order", "43")
		require.Equal(t, 0, res.code, res.stderr)
		assert.Contains(t, res.stdout, "Order Failed")
		assert.Contains(t, res.stdout, "declined")
	})

	t.Run("fetch fault", func(t *testing.T) {
		res := cli("", "order", "99")
		assert.Equal(t, 1, res.code)
		assert.Contains(t, res.stderr, "Failed to load order")
	})

	t.Run("bad id", func(t *testing.T) {
		res := cli("", "order", "abc")
		assert.Equal(t, 1, res.code)
		assert.Contains(t, res.stderr, "Order not found")
	})

	t.Run("missing id", func(t *testing.T) {
		res := cli("", "order")
		assert.Equal(t, 2, res.code)
	})
}

func TestOrdersCommand(t *testing.T) {
	shop := &fakeShop{orders: map[int64]order.Order{
		5: {ID: 5, Status: "paid", ProductName: "Kettle", ProductPrice: "25"},
	}}
	cli := setupCLI(t, shop)

	res := cli("", "orders")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "not logged in")

	require.Equal(t, 0, cli("", "login", "-username", "alice", "-password", "secret").code)

	res = cli("", "orders")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "PRODUCT")
	assert.Contains(t, res.stdout, "Kettle")
	assert.Contains(t, res.stdout, "$25.00")

	res = cli("", "orders", "-all")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "staff account")
}

func TestOrdersCommand_AllForStaff(t *testing.T) {
	cli := setupCLI(t, &fakeShop{staff: true})
	require.Equal(t, 0, cli("", "login", "-username", "root", "-password", "secret").code)

	res := cli("", "orders", "-all")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Mug")
	assert.Contains(t, res.stdout, "$9.50")
	assert.Contains(t, res.stdout, "Lamp")
}

func TestOrdersCommand_Empty(t *testing.T) {
	cli := setupCLI(t, &fakeShop{})
	require.Equal(t, 0, cli("", "login", "-username", "alice", "-password", "secret").code)

	res := cli("", "orders")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "No orders yet.")
}
