package main

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/Simplici0/movequote/internal/apperr"
	"github.com/Simplici0/movequote/internal/estimates"
	"github.com/Simplici0/movequote/internal/export"
	"github.com/Simplici0/movequote/internal/status"
	"github.com/Simplici0/movequote/internal/wizard"
)

func (s *server) handleNewDraft(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusCreated, wizard.NewDraft())
}

type stepRequest struct {
	Draft wizard.Draft    `json:"draft"`
	Input json.RawMessage `json:"input"`
}

// handleDraftStep applies one wizard step and returns the new draft with a
// totals preview. On failure the submitted draft is echoed back unchanged.
func (s *server) handleDraftStep(w http.ResponseWriter, r *http.Request) {
	step, ok := wizard.ParseStep(chi.URLParam(r, "step"))
	if !ok {
		writeError(w, r, apperr.Validation("step", "unknown step %q", chi.URLParam(r, "step")))
		return
	}

	var req stepRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	resolver := s.resolver()
	next, err := wizard.NewAggregator(resolver).Advance(r.Context(), req.Draft, step, req.Input)
	if err != nil {
		writeErrorWith(w, r, err, envelope{"draft": req.Draft})
		return
	}

	taxRate, _, err := resolver.TaxRate(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	totals, err := next.Totals(taxRate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, envelope{"draft": next, "totals": totals})
}

func (s *server) handleSubmitEstimate(w http.ResponseWriter, r *http.Request) {
	var d wizard.Draft
	if err := decodeJSON(r, &d); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.estimates.Submit(r.Context(), d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, e)
}

func (s *server) handleListEstimates(w http.ResponseWriter, r *http.Request) {
	customerID, err := queryID(r, "customer_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	projectID, err := queryID(r, "project_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	f := estimates.Filter{
		CustomerID: customerID,
		ProjectID:  projectID,
		Status:     strings.TrimSpace(r.URL.Query().Get("status")),
		Query:      r.URL.Query().Get("q"),
	}
	if f.Status != "" {
		if _, err := status.Parse(f.Status); err != nil {
			writeError(w, r, err)
			return
		}
	}

	list, err := s.estimates.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": list, "count": len(list)})
}

func (s *server) loadEstimate(w http.ResponseWriter, r *http.Request) (estimates.Estimate, bool) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return estimates.Estimate{}, false
	}
	e, err := s.estimates.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return estimates.Estimate{}, false
	}
	return e, true
}

func (s *server) handleGetEstimate(w http.ResponseWriter, r *http.Request) {
	e, ok := s.loadEstimate(w, r)
	if !ok {
		return
	}
	writeData(w, http.StatusOK, e)
}

// handleUpdateEstimate accepts a partial estimate. Derived amounts in the body
// (staff_cost, subtotal, ...) are ignored and recomputed.
func (s *server) handleUpdateEstimate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var p estimates.Patch
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.estimates.Update(r.Context(), id, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, e)
}

func (s *server) handleDeleteEstimate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.estimates.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true})
}

type statusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func decodeStatus(r *http.Request) (status.Status, string, error) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		return "", "", err
	}
	next, err := status.Parse(req.Status)
	if err != nil {
		return "", "", err
	}
	return next, req.Notes, nil
}

func (s *server) handleEstimateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	next, notes, err := decodeStatus(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := s.estimates.UpdateStatus(r.Context(), id, next, notes, currentUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, entry)
}

func (s *server) handleEstimatePDF(w http.ResponseWriter, r *http.Request) {
	e, ok := s.loadEstimate(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.RenderPDF(&buf, e, s.export); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="estimate-%d.pdf"`, e.ID))
	_, _ = w.Write(buf.Bytes())
}

func (s *server) handleEstimateMail(w http.ResponseWriter, r *http.Request) {
	e, ok := s.loadEstimate(w, r)
	if !ok {
		return
	}

	m := export.RenderMail(e, s.export)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "件名: %s\n\n%s", m.Subject, m.Body)
}
