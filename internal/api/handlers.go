package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gopivot/domain/core"
	"gopivot/domain/grid"
	"gopivot/domain/pivot"
)

// createRequest is the POST body: the spreadsheet to attach to plus
// the wire-schema definition.
type createRequest struct {
	SpreadsheetID string          `json:"spreadsheetId"`
	PivotTable    json.RawMessage `json:"pivotTable"`
}

type pivotResponse struct {
	ID            core.ID         `json:"id"`
	SpreadsheetID string          `json:"spreadsheetId,omitempty"`
	ServerTableID string          `json:"serverTableId,omitempty"`
	PivotTable    json.RawMessage `json:"pivotTable,omitempty"`
}

func (h *Handler) createPivot(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.PivotTable) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("pivotTable is required"))
		return
	}

	id, table, err := h.service.ImportWire(r.Context(), req.SpreadsheetID, req.PivotTable)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pivotResponse{
		ID:            id,
		SpreadsheetID: req.SpreadsheetID,
		ServerTableID: table.ServerID().String(),
		PivotTable:    req.PivotTable,
	})
}

func (h *Handler) listPivots(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListTables(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	out := make([]pivotResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, pivotResponse{
			ID:            rec.ID,
			SpreadsheetID: rec.SpreadsheetID,
			ServerTableID: rec.ServerTableID.String(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getPivot(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.GetRecord(r.Context(), core.ID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pivotResponse{
		ID:            rec.ID,
		SpreadsheetID: rec.SpreadsheetID,
		ServerTableID: rec.ServerTableID.String(),
		PivotTable:    rec.Definition,
	})
}

func (h *Handler) updatePivot(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	id := core.ID(chi.URLParam(r, "id"))

	table, err := h.service.UpdateTable(r.Context(), id, func(t *pivot.Table) error {
		replacement, err := pivot.UnmarshalWire(raw)
		if err != nil {
			return err
		}
		t.Adopt(replacement)
		return nil
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	body, err := table.MarshalWire()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pivotResponse{
		ID:            id,
		ServerTableID: table.ServerID().String(),
		PivotTable:    body,
	})
}

func (h *Handler) deletePivot(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteTable(r.Context(), core.ID(chi.URLParam(r, "id"))); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) refreshPivots(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.RefreshAll(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"refreshed": n})
}

// convertRange exposes the address normalizer: A1 labels in, wire
// GridRange out.
func (h *Handler) convertRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sheetID, err := strconv.ParseInt(q.Get("sheetId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("sheetId must be an integer"))
		return
	}
	cellRange, err := grid.ParseRange(q.Get("start"), q.Get("end"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, grid.ToGridRange(cellRange, sheetID))
}

// writeDomainError maps the error taxonomy onto HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case core.IsValidationError(err):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, core.ErrAlreadyDeleted):
		writeError(w, http.StatusGone, err)
	case core.IsNotFoundError(err):
		writeError(w, http.StatusNotFound, err)
	case core.IsTransient(err):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		h.logger.Error("request failed: %v", err)
		writeError(w, http.StatusBadGateway, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
