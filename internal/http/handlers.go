package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/marufjanezz06-cmyk/my-wallet/internal/core"
	"github.com/marufjanezz06-cmyk/my-wallet/internal/ledger"
)

// maxBodySize bounds request bodies; imported backups are the largest
// payload and stay well under this.
const maxBodySize = 4 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeStoreError maps ledger errors onto HTTP statuses and the
// user-facing messages the wallet shows for them.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		writeError(w, http.StatusUnprocessableEntity, "Введите сумму больше нуля.")
	case errors.Is(err, core.ErrEmptyName):
		writeError(w, http.StatusUnprocessableEntity, "Введите название категории.")
	case errors.Is(err, core.ErrDuplicateName):
		writeError(w, http.StatusUnprocessableEntity, "Такая категория уже есть.")
	case errors.Is(err, core.ErrBadBackup):
		writeError(w, http.StatusUnprocessableEntity, "Файл не похож на резервную копию кошелька.")
	case errors.Is(err, ledger.ErrPersistence):
		slog.Warn("Change applied but not persisted", "error", err)
		writeError(w, http.StatusInternalServerError, "Изменение принято, но не сохранено: после перезапуска оно может пропасть.")
	default:
		slog.Error("Unexpected store error", "error", err)
		writeError(w, http.StatusInternalServerError, "Внутренняя ошибка.")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Некорректное тело запроса.")
		return false
	}
	return true
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	view := s.store.Snapshot(r.URL.Query().Get("search"))
	writeJSON(w, http.StatusOK, view)
}

type addTransactionRequest struct {
	Type     string `json:"type"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Date     string `json:"date"`
	Note     string `json:"note"`
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req addTransactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	tx, err := s.store.AddTransaction(r.Context(), core.TxType(req.Type), req.Amount, req.Category, req.Date, req.Note)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type categoryRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.store.AddCategory(r.Context(), req.Name); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.store.Snapshot(""))
}

type renameCategoryRequest struct {
	Old string `json:"old"`
	New string `json:"new"`
}

func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	var req renameCategoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.store.RenameCategory(r.Context(), req.Old, req.New); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.Snapshot(""))
}

type setFilterRequest struct {
	Filter string `json:"filter"`
}

func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	var req setFilterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.store.SetFilter(r.Context(), req.Filter); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.Snapshot(""))
}

type setMonthRequest struct {
	Month string `json:"month"`
}

func (s *Server) handleSetMonth(w http.ResponseWriter, r *http.Request) {
	var req setMonthRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.store.SetMonth(r.Context(), req.Month); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.Snapshot(""))
}

type shiftMonthRequest struct {
	Delta int `json:"delta"`
}

func (s *Server) handleShiftMonth(w http.ResponseWriter, r *http.Request) {
	var req shiftMonthRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if _, err := s.store.ShiftMonth(r.Context(), req.Delta); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.Snapshot(""))
}

// sanitizeFilename keeps header-unsafe characters out of the download
// name; the month key is stored verbatim and may hold arbitrary text.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.Export()
	if err != nil {
		writeStoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+sanitizeFilename(s.store.ExportFilename())+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	data, err := io.ReadAll(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Некорректное тело запроса.")
		return
	}

	if err := s.store.Import(r.Context(), data); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.Snapshot(""))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Reset(r.Context()); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.Snapshot(""))
}
