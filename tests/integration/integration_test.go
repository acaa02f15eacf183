//go:build integration

package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/olshop/online-store/internal/controller"
	"github.com/olshop/online-store/internal/domain/cart"
	"github.com/olshop/online-store/internal/domain/catalog"
	"github.com/olshop/online-store/internal/storage/file"
	"github.com/olshop/online-store/internal/web"
	"github.com/olshop/online-store/pkg/health"
	"github.com/olshop/online-store/pkg/httpmiddleware"
)

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

var testProducts = []catalog.Product{
	{ID: 1, Title: "Backpack", Price: decimal.RequireFromString("109.95"), Image: "backpack.jpg"},
	{ID: 2, Title: "T-Shirt", Price: decimal.RequireFromString("22.30"), Image: "shirt.jpg"},
}

// newStoreServer boots the full stack against dataDir: file storage, cart
// restore, controller, templates, health endpoints, and the middleware chain.
// Assertions stay black-box over HTTP.
func newStoreServer(t *testing.T, dataDir string) *httptest.Server {
	t.Helper()

	cache := catalog.NewCache()
	cache.Replace(testProducts)

	cartRepo := file.NewCartRepository(dataDir + "/online-store.json")
	orderRepo := file.NewOrderRepository(dataDir + "/orders.jsonl")

	store := cart.NewStore(cache)
	lines, err := cartRepo.Load(t.Context())
	if err != nil {
		t.Fatalf("restore cart: %v", err)
	}
	store.Replace(lines)

	ctrl, err := controller.New(controller.Config{
		HandoffBase:  "https://wa.me",
		HandoffPhone: "+6281936020227",
	}, store, cartRepo, orderRepo, zap.NewNop(), noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("create controller: %v", err)
	}

	handler, err := web.NewHandler(ctrl, cache, orderRepo)
	if err != nil {
		t.Fatalf("create handler: %v", err)
	}

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.SetReady(true)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	handler.Routes(mux)

	srv := httptest.NewServer(httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zap.NewNop()),
		httpmiddleware.LogRequests(),
	))
	t.Cleanup(srv.Close)
	return srv
}

// noRedirect returns a client that surfaces 303 responses instead of
// following them, so tests can assert on Location headers.
func noRedirect() *http.Client {
	return &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func doGet(t *testing.T, srv *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func postAction(t *testing.T, srv *httptest.Server, form url.Values) *http.Response {
	t.Helper()
	resp, err := noRedirect().Post(
		srv.URL+"/action",
		"application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		t.Fatalf("POST /action: %v", err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}
