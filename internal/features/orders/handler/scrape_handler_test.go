package handler

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"order-scrapper/internal/core/cache"
	"order-scrapper/internal/features/browser/browsertest"
	browserservice "order-scrapper/internal/features/browser/service"
	"order-scrapper/internal/features/orders/adapters"
	"order-scrapper/internal/features/orders/domain"
	"order-scrapper/internal/features/orders/ports"
	"order-scrapper/internal/features/orders/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingURL = "https://admin.weedmaps.com/orders"

var (
	listing = domain.ListingSelectors{Ready: ".row", Link: "//a", ReadyTimeout: time.Second}
	detail  = domain.DetailSelectors{
		Ready:        "h4",
		ReadyTimeout: time.Second,
		Fields: map[domain.Field]string{
			domain.FieldOrderNumber:  "//span",
			domain.FieldCustomerName: "//h4",
			domain.FieldPhoneNumber:  "//div",
			domain.FieldEmailAddress: "//p",
		},
		OrderNumberPrefix: "Order #",
	}
)

func orderPage(number, name string) browsertest.Page {
	return browsertest.Page{
		"h4":     {browsertest.Text(name)},
		"//span": {browsertest.Text("Order #" + number)},
		"//h4":   {browsertest.Text(name)},
		"//div":  {browsertest.Text("555-0100")},
		"//p":    {browsertest.Text(strings.ToLower(name) + "@x.test")},
	}
}

type testEnv struct {
	app      *fiber.App
	sessions *browserservice.SessionManager
	output   string
}

func setupApp(t *testing.T, pages map[string]browsertest.Page, history ports.RunRepository) *testEnv {
	t.Helper()
	session := browsertest.NewSession(listingURL, pages)
	sessions := browserservice.NewSessionManager(
		browsertest.Resolver{URL: "ws://127.0.0.1:9222/devtools/browser/1"},
		&browsertest.Connector{Session: session},
		browserservice.Options{ListingURL: listingURL, ReleaseAfterUse: false},
		nil,
	)

	output := filepath.Join(t.TempDir(), "filtered_orders_data.csv")
	runner := service.NewScrapeRunner(service.NewLinkCollector(), service.NewOrderExtractor(detail), adapters.NewCSVRecordStore(), listing, 1, nil)
	svc := service.NewScrapeService(sessions, runner, history, domain.RunParams{OutputPath: output}, nil)
	h := NewScrapeHandler(svc)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "test-ray-id")
		return c.Next()
	})
	app.Post("/scrape", h.Scrape)
	app.Get("/scrape/last", h.LastRun)

	return &testEnv{app: app, sessions: sessions, output: output}
}

func twoOrders() map[string]browsertest.Page {
	return map[string]browsertest.Page{
		listingURL: {
			".row": {browsertest.Text("row")},
			"//a":  {browsertest.Link("https://x/orders/1"), browsertest.Link("https://x/orders/2")},
		},
		"https://x/orders/1": orderPage("1", "Ann"),
		"https://x/orders/2": orderPage("2", "Bob"),
	}
}

// TestScrapeHandler_Scrape_NoSession verifies that scraping requires a connected browser.
func TestScrapeHandler_Scrape_NoSession(t *testing.T) {
	env := setupApp(t, twoOrders(), nil)

	resp, err := env.app.Test(httptest.NewRequest("POST", "/scrape", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "test-ray-id", body.RayID)
	assert.NoFileExists(t, env.output)
}

// TestScrapeHandler_Scrape_Success verifies a full run writes the CSV and reports counts.
func TestScrapeHandler_Scrape_Success(t *testing.T) {
	env := setupApp(t, twoOrders(), nil)
	_, err := env.sessions.Connect(context.Background())
	require.NoError(t, err)

	resp, err := env.app.Test(httptest.NewRequest("POST", "/scrape", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body ScrapeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotNil(t, body.Outcome)
	assert.Equal(t, 2, body.Outcome.TotalFound)
	assert.Equal(t, 2, body.Outcome.TotalExtracted)
	assert.Contains(t, body.Message, env.output)

	f, err := os.Open(env.output)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"https://x/orders/2", "2", "Bob", "555-0100", "bob@x.test"}, rows[2])
}

// TestScrapeHandler_Scrape_MaxItems verifies the body overrides the item cap.
func TestScrapeHandler_Scrape_MaxItems(t *testing.T) {
	env := setupApp(t, twoOrders(), nil)
	_, err := env.sessions.Connect(context.Background())
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/scrape", strings.NewReader(`{"max_items":1}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body ScrapeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body.Outcome.TotalFound)
	assert.Equal(t, 1, body.Outcome.TotalExtracted)
}

// TestScrapeHandler_Scrape_BadBody verifies malformed JSON is rejected.
func TestScrapeHandler_Scrape_BadBody(t *testing.T) {
	env := setupApp(t, twoOrders(), nil)

	req := httptest.NewRequest("POST", "/scrape", strings.NewReader(`{"max_items":`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

// TestScrapeHandler_Scrape_NegativeMaxItems verifies a negative cap is rejected.
func TestScrapeHandler_Scrape_NegativeMaxItems(t *testing.T) {
	env := setupApp(t, twoOrders(), nil)
	_, err := env.sessions.Connect(context.Background())
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/scrape", strings.NewReader(`{"max_items":-2}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

// TestScrapeHandler_Scrape_ListingNotReady verifies a listing without rows maps to 422.
func TestScrapeHandler_Scrape_ListingNotReady(t *testing.T) {
	env := setupApp(t, map[string]browsertest.Page{listingURL: {}}, nil)
	_, err := env.sessions.Connect(context.Background())
	require.NoError(t, err)

	resp, err := env.app.Test(httptest.NewRequest("POST", "/scrape", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

// TestScrapeHandler_Scrape_PersistenceFailure verifies the outcome is still reported when the file cannot be written.
func TestScrapeHandler_Scrape_PersistenceFailure(t *testing.T) {
	env := setupApp(t, twoOrders(), nil)
	_, err := env.sessions.Connect(context.Background())
	require.NoError(t, err)

	dir := t.TempDir()
	body, err := json.Marshal(map[string]string{"output_path": dir})
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/scrape", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var out ScrapeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotNil(t, out.Outcome)
	assert.Equal(t, 2, out.Outcome.TotalExtracted)
	assert.Len(t, out.Outcome.Records, 2)
}

// TestScrapeHandler_LastRun verifies the run history endpoint.
func TestScrapeHandler_LastRun(t *testing.T) {
	t.Run("HistoryDisabled", func(t *testing.T) {
		env := setupApp(t, twoOrders(), nil)

		resp, err := env.app.Test(httptest.NewRequest("GET", "/scrape/last", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("AfterRun", func(t *testing.T) {
		mr := miniredis.RunT(t)
		c, err := cache.NewRedisAdapter("redis://" + mr.Addr())
		require.NoError(t, err)
		t.Cleanup(func() { c.Close() })

		env := setupApp(t, twoOrders(), adapters.NewRedisRunRepository(c, time.Hour))

		resp, err := env.app.Test(httptest.NewRequest("GET", "/scrape/last", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

		_, err = env.sessions.Connect(context.Background())
		require.NoError(t, err)
		resp, err = env.app.Test(httptest.NewRequest("POST", "/scrape", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		resp, err = env.app.Test(httptest.NewRequest("GET", "/scrape/last", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var summary domain.RunSummary
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
		assert.Equal(t, 2, summary.TotalExtracted)
		assert.Equal(t, env.output, summary.OutputPath)
	})
}
