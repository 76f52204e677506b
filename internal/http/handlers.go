package http

import (
	"errors"
	"net/http"
	"strconv"

	"budgethub/internal/changes"
	"budgethub/internal/log"
	"budgethub/internal/services"
	"budgethub/internal/sheets"
)

type budgetSummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Year          int    `json:"year"`
	LinkedSheetID string `json:"linkedSheetId,omitempty"`
}

type importResponse struct {
	ID       string `json:"id"`
	Warnings string `json:"warnings,omitempty"`
}

type pushResponse struct {
	BudgetID      string `json:"budgetId"`
	SpreadsheetID string `json:"spreadsheetId"`
	SheetTitle    string `json:"sheetTitle"`
	RowCount      int    `json:"rowCount"`
}

type pullResponse struct {
	BudgetID string           `json:"budgetId"`
	Strategy string           `json:"strategy"`
	Applied  bool             `json:"applied"`
	Summary  changes.Summary  `json:"summary"`
	Changes  []changes.Change `json:"changes"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.docs.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]budgetSummary, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, budgetSummary{ID: b.ID, Title: b.Title, Year: b.Year, LinkedSheetID: b.LinkedSheetID})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	// Export streams straight into the response; errors before the first
	// write still map to a status code.
	ew := &errorTrackingWriter{ResponseWriter: w}
	if err := s.docs.Export(r.Context(), r.PathValue("id"), ew); err != nil && !ew.wrote {
		s.fail(w, r, err)
	}
}

func (s *Server) handleImportBudget(w http.ResponseWriter, r *http.Request) {
	res, err := s.docs.Import(r.Context(), http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := importResponse{ID: res.Budget.ID}
	if res.Warnings != nil {
		out.Warnings = res.Warnings.Error()
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Budget imported",
		log.FieldOperation, log.OpImport, log.FieldBudgetID, res.Budget.ID)
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	res, err := s.sync.Push(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pushResponse{
		BudgetID:      res.BudgetID,
		SpreadsheetID: res.Target.SpreadsheetID,
		SheetTitle:    res.Target.Title,
		RowCount:      res.RowCount,
	})
}

// handlePull reports sheet edits. With ?apply=true they are saved in the
// same locked operation.
func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	apply, _ := strconv.ParseBool(r.URL.Query().Get("apply"))
	pull := s.sync.Pull
	if apply {
		pull = s.sync.PullAndApply
	}
	res, err := pull(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	list := res.Changes
	if list == nil {
		list = []changes.Change{}
	}
	writeJSON(w, http.StatusOK, pullResponse{
		BudgetID: res.BudgetID,
		Strategy: res.Strategy,
		Applied:  apply && res.Summary.TotalChanges > 0,
		Summary:  res.Summary,
		Changes:  list,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	runs, err := s.sync.History(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if runs == nil {
		runs = []sheets.SyncRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// fail maps service errors to status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, sheets.ErrBudgetNotFound):
		writeError(w, r, http.StatusNotFound, "budget not found")
	case errors.Is(err, services.ErrNoSpreadsheet), errors.Is(err, services.ErrStaleReview):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.As(err, &maxBytes):
		writeError(w, r, http.StatusRequestEntityTooLarge, "document too large")
	case errors.Is(err, services.ErrInvalidDocument):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldError, err, log.FieldErrorType, log.ErrorTypeInternal)
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
