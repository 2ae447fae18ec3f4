package tableui

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jamie-davis/AzureTableSpike/tablestorage/filterexpr"
	"github.com/jamie-davis/AzureTableSpike/tablestorage/tablectx"
	"github.com/jamie-davis/AzureTableSpike/tablestorage/tablestore"
)

// APIHandler provides REST endpoints over a store.
type APIHandler struct {
	store *tablestore.Store
	opts  []tablectx.Option
}

func NewAPIHandler(store *tablestore.Store, opts ...tablectx.Option) *APIHandler {
	return &APIHandler{store: store, opts: opts}
}

// RegisterRoutes registers all API routes on the given mux.
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/tables", h.listTables)
	mux.HandleFunc("GET /api/tables/{table}/rows", h.queryRows)
	mux.HandleFunc("GET /api/tables/{table}/rows/{pk}/{rk}", h.getRow)
	mux.HandleFunc("PUT /api/tables/{table}/rows/{pk}/{rk}", h.putRow)
	mux.HandleFunc("DELETE /api/tables/{table}/rows/{pk}/{rk}", h.deleteRow)
	mux.HandleFunc("POST /api/parse", h.parseFilter)
}

func (h *APIHandler) table(r *http.Request) *tablectx.Table {
	return tablectx.New(h.store, r.PathValue("table"), h.opts...)
}

type tableSummary struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

func (h *APIHandler) listTables(w http.ResponseWriter, r *http.Request) {
	names := h.store.Tables()
	tables := make([]tableSummary, 0, len(names))
	for _, name := range names {
		tables = append(tables, tableSummary{Name: name, Rows: h.store.RowCount(r.Context(), name)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

type rowJSON struct {
	PartitionKey string               `json:"partitionKey"`
	RowKey       string               `json:"rowKey"`
	Fields       map[string]jsonValue `json:"fields"`
}

func toRowJSON(e tablectx.Entity) rowJSON {
	return rowJSON{PartitionKey: e.PartitionKey, RowKey: e.RowKey, Fields: encodeRow(e.Properties)}
}

// queryRows runs ?filter= against the table. ?select=a,b limits the fields
// returned.
func (h *APIHandler) queryRows(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")
	var columns []string
	if sel := r.URL.Query().Get("select"); sel != "" {
		columns = strings.Split(sel, ",")
	}

	entities, err := h.table(r).QueryAll(r.Context(), filter, columns...)
	var invalid *tablectx.InvalidFilterError
	var failed *tablectx.QueryFailedError
	switch {
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.As(err, &failed):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	rows := make([]rowJSON, 0, len(entities))
	for _, e := range entities {
		rows = append(rows, toRowJSON(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows, "count": len(rows)})
}

func (h *APIHandler) getRow(w http.ResponseWriter, r *http.Request) {
	e, ok := h.table(r).Get(r.Context(), r.PathValue("pk"), r.PathValue("rk"))
	if !ok {
		writeError(w, http.StatusNotFound, "row not found")
		return
	}
	writeJSON(w, http.StatusOK, toRowJSON(e))
}

// putRow stores the request body's fields, replacing any existing row.
func (h *APIHandler) putRow(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Fields map[string]jsonValue `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	fields, err := decodeRow(body.Fields)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	e := tablectx.Entity{PartitionKey: r.PathValue("pk"), RowKey: r.PathValue("rk"), Properties: fields}
	if err := h.table(r).AddOrReplace(r.Context(), e); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toRowJSON(e))
}

func (h *APIHandler) deleteRow(w http.ResponseWriter, r *http.Request) {
	e := tablectx.Entity{PartitionKey: r.PathValue("pk"), RowKey: r.PathValue("rk")}
	err := h.table(r).Delete(r.Context(), e)
	if errors.Is(err, tablestore.ErrRowNotFound) {
		writeError(w, http.StatusNotFound, "row not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) parseFilter(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Filter string `json:"filter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	result := filterexpr.Parse(body.Filter)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     result.Success(),
		"error":       result.Error,
		"description": result.Root.Describe(),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
