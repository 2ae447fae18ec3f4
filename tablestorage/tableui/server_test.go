package tableui

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jamie-davis/AzureTableSpike/tablestorage/edm"
	"github.com/jamie-davis/AzureTableSpike/tablestorage/tablestore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *tablestore.Store) {
	t.Helper()
	reg := prometheus.NewRegistry()
	store := tablestore.New(tablestore.WithMetrics(reg))
	ctx := context.Background()
	require.NoError(t, store.StoreNew(ctx, "orders", "c1", "o1", edm.Row{"Total": edm.Double(10), "Data": edm.Binary{1, 2, 3}}))
	require.NoError(t, store.StoreNew(ctx, "orders", "c1", "o2", edm.Row{"Total": edm.Double(200)}))

	srv := httptest.NewServer(NewServer(ServerConfig{}, store, reg).Handler())
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, method, url, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestAPI_ListTables(t *testing.T) {
	srv, _ := newTestServer(t)

	var resp struct {
		Tables []tableSummary `json:"tables"`
	}
	status := doJSON(t, http.MethodGet, srv.URL+"/api/tables", "", &resp)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []tableSummary{{Name: "orders", Rows: 2}}, resp.Tables)
}

func TestAPI_QueryRows(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("filter", func(t *testing.T) {
		var resp struct {
			Rows  []rowJSON `json:"rows"`
			Count int       `json:"count"`
		}
		status := doJSON(t, http.MethodGet, srv.URL+"/api/tables/orders/rows?filter=Total+gt+50", "", &resp)
		assert.Equal(t, http.StatusOK, status)
		require.Equal(t, 1, resp.Count)
		assert.Equal(t, "o2", resp.Rows[0].RowKey)
		assert.Equal(t, jsonValue{Type: "Double", Value: "200"}, resp.Rows[0].Fields["Total"])
	})

	t.Run("select", func(t *testing.T) {
		var resp struct {
			Rows []rowJSON `json:"rows"`
		}
		status := doJSON(t, http.MethodGet, srv.URL+"/api/tables/orders/rows?filter=RowKey+eq+'o1'&select=Data", "", &resp)
		assert.Equal(t, http.StatusOK, status)
		require.Len(t, resp.Rows, 1)
		assert.Equal(t, map[string]jsonValue{"Data": {Type: "Binary", Value: "AQID"}}, resp.Rows[0].Fields)
	})

	t.Run("bad filter", func(t *testing.T) {
		var resp map[string]string
		status := doJSON(t, http.MethodGet, srv.URL+"/api/tables/orders/rows?filter=Total+gt", "", &resp)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, resp["error"], "unable to parse filter string")
	})

	t.Run("evaluation failure", func(t *testing.T) {
		status := doJSON(t, http.MethodGet, srv.URL+"/api/tables/orders/rows?filter=Missing+eq+1", "", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, status)
	})
}

func TestAPI_Rows(t *testing.T) {
	srv, store := newTestServer(t)
	ctx := context.Background()

	status := doJSON(t, http.MethodPut, srv.URL+"/api/tables/orders/rows/c2/o9",
		`{"fields":{"Count":{"type":"Int64","value":"7"},"When":{"type":"DateTime","value":"2024-03-01T10:20:30Z"}}}`, nil)
	assert.Equal(t, http.StatusOK, status)

	row, ok := store.GetFields(ctx, "orders", "c2", "o9")
	require.True(t, ok)
	assert.Equal(t, edm.Int64(7), row["Count"])

	var got rowJSON
	status = doJSON(t, http.MethodGet, srv.URL+"/api/tables/orders/rows/c2/o9", "", &got)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, jsonValue{Type: "DateTime", Value: "2024-03-01T10:20:30Z"}, got.Fields["When"])

	status = doJSON(t, http.MethodPut, srv.URL+"/api/tables/orders/rows/c2/o9", `{"fields":{"X":{"type":"Int32","value":"x"}}}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status = doJSON(t, http.MethodDelete, srv.URL+"/api/tables/orders/rows/c2/o9", "", nil)
	assert.Equal(t, http.StatusNoContent, status)
	status = doJSON(t, http.MethodDelete, srv.URL+"/api/tables/orders/rows/c2/o9", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status = doJSON(t, http.MethodGet, srv.URL+"/api/tables/orders/rows/c2/o9", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_AbsentFields(t *testing.T) {
	srv, store := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, store.StoreNew(ctx, "orders", "c3", "o1", edm.Row{"Total": edm.Double(5), "Gone": nil}))

	var got rowJSON
	status := doJSON(t, http.MethodGet, srv.URL+"/api/tables/orders/rows/c3/o1", "", &got)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]jsonValue{"Total": {Type: "Double", Value: "5"}}, got.Fields)

	var resp struct {
		Rows []rowJSON `json:"rows"`
	}
	status = doJSON(t, http.MethodGet, srv.URL+"/api/tables/orders/rows?filter=PartitionKey+eq+'c3'", "", &resp)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, resp.Rows, 1)
	assert.NotContains(t, resp.Rows[0].Fields, "Gone")
}

func TestAPI_Parse(t *testing.T) {
	srv, _ := newTestServer(t)

	var resp struct {
		Success     bool   `json:"success"`
		Error       string `json:"error"`
		Description string `json:"description"`
	}
	doJSON(t, http.MethodPost, srv.URL+"/api/parse", `{"filter":"(a  eq 1)"}`, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "(a eq 1)", resp.Description)

	doJSON(t, http.MethodPost, srv.URL+"/api/parse", `{"filter":"a eq 1."}`, &resp)
	assert.False(t, resp.Success)
	assert.Equal(t, `"1." is not a valid token`, resp.Error)
}

func TestAPI_Metrics(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `tablestore_operations_total{operation="store_new",status="ok",table="orders"} 2`)
}

func TestServer_Serve(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(ServerConfig{}, tablestore.New(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/api/tables")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
