// Package httpapi serves the library over HTTP with chi.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"library-catalog/library"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Library is everything the HTTP layer calls. *library.LibraryManager
// satisfies it.
type Library interface {
	AddBook(ctx context.Context, nb library.NewBook) (library.AddBookResult, error)
	ListBooks(ctx context.Context) ([]*library.Book, error)
	SearchBooks(ctx context.Context, term, searchType string) ([]*library.Book, error)
	Borrow(ctx context.Context, patronID string, bookID int64) (library.BorrowResult, error)
	Return(ctx context.Context, patronID string, bookID int64) (library.ReturnResult, error)
	CalculateLateFee(ctx context.Context, patronID string, bookID int64) (library.FeeResult, error)
	PatronStatus(ctx context.Context, patronID string) (library.StatusReport, error)
	Ping(ctx context.Context) error
}

// Handler holds the route handlers.
type Handler struct {
	lib     Library
	logger  *slog.Logger
	version string
}

// NewRouter mounts every route with metrics and request logging.
func NewRouter(lib Library, logger *slog.Logger, version string) http.Handler {
	h := &Handler{lib: lib, logger: logger.With(slog.String("component", "httpapi")), version: version}

	r := chi.NewRouter()
	r.Use(Metrics(), RequestLogger(logger))

	r.Get("/healthcheck", h.Healthcheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/books", h.ListBooks)
		r.Post("/books", h.AddBook)
		r.Get("/books/search", h.SearchBooks)
		r.Post("/borrow", h.Borrow)
		r.Post("/return", h.Return)
		r.Get("/patrons/{patronID}/fees/{bookID}", h.LateFee)
		r.Get("/patrons/{patronID}/status", h.PatronStatus)
	})
	return r
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type booksResponse struct {
	Count int             `json:"count"`
	Books []*library.Book `json:"books"`
}

// Healthcheck pings the backend.
func (h *Handler) Healthcheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := map[string]string{
		"status":    "ok",
		"version":   h.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.lib.Ping(ctx); err != nil {
		resp["status"] = "fail"
		resp["message"] = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.lib.ListBooks(r.Context())
	if err != nil {
		h.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booksResponse{Count: len(books), Books: books})
}

func (h *Handler) SearchBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	books, err := h.lib.SearchBooks(r.Context(), q.Get("q"), q.Get("type"))
	if err != nil {
		h.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booksResponse{Count: len(books), Books: books})
}

type addBookRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	ISBN        string `json:"isbn"`
	TotalCopies any    `json:"total_copies"`
}

func (h *Handler) AddBook(w http.ResponseWriter, r *http.Request) {
	var req addBookRequest
	if !decodeBody(w, r, &req) {
		return
	}

	copies, ok := library.IntegerFrom(req.TotalCopies)
	if !ok || copies < 1 || copies > 1<<31-1 {
		writeJSON(w, http.StatusUnprocessableEntity, library.AddBookResult{
			Message: library.ErrInvalidCopies.Message,
			Kind:    library.ErrInvalidCopies.Kind,
		})
		return
	}

	res, err := h.lib.AddBook(r.Context(), library.NewBook{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		TotalCopies: int(copies),
	})
	if err != nil {
		h.storeError(w, err)
		return
	}
	status := http.StatusCreated
	if !res.Success {
		status = statusFor(res.Kind)
	}
	writeJSON(w, status, res)
}

// loanRequest keeps both ids untyped so that 123456 (a number) and "1" (a
// string) are rejected by validation instead of being coerced.
type loanRequest struct {
	PatronID any `json:"patron_id"`
	BookID   any `json:"book_id"`
}

func (h *Handler) Borrow(w http.ResponseWriter, r *http.Request) {
	patronID, bookID, failure, ok := h.loanArgs(w, r)
	if !ok {
		return
	}
	if failure != nil {
		writeJSON(w, statusFor(failure.Kind), library.BorrowResult{Message: failure.Message, Kind: failure.Kind})
		return
	}

	res, err := h.lib.Borrow(r.Context(), patronID, bookID)
	if err != nil {
		h.storeError(w, err)
		return
	}
	writeJSON(w, resultStatus(res.Success, res.Kind), res)
}

func (h *Handler) Return(w http.ResponseWriter, r *http.Request) {
	patronID, bookID, failure, ok := h.loanArgs(w, r)
	if !ok {
		return
	}
	if failure != nil {
		writeJSON(w, statusFor(failure.Kind), library.ReturnResult{Message: failure.Message, Kind: failure.Kind})
		return
	}

	res, err := h.lib.Return(r.Context(), patronID, bookID)
	if err != nil {
		h.storeError(w, err)
		return
	}
	writeJSON(w, resultStatus(res.Success, res.Kind), res)
}

// loanArgs decodes and validates a loan body. ok is false when a response has
// already been written.
func (h *Handler) loanArgs(w http.ResponseWriter, r *http.Request) (string, int64, *library.Failure, bool) {
	var req loanRequest
	if !decodeBody(w, r, &req) {
		return "", 0, nil, false
	}
	var failure *library.Failure
	patronID, err := library.PatronIDFrom(req.PatronID)
	if errors.As(err, &failure) {
		return "", 0, failure, true
	}
	bookID, err := library.BookIDFrom(req.BookID)
	if errors.As(err, &failure) {
		return "", 0, failure, true
	}
	return patronID, bookID, nil, true
}

func (h *Handler) LateFee(w http.ResponseWriter, r *http.Request) {
	patronID := chi.URLParam(r, "patronID")
	if library.ValidatePatronID(patronID) != nil {
		writeFeeFailure(w, library.ErrInvalidPatronID)
		return
	}
	bookID, err := strconv.ParseInt(chi.URLParam(r, "bookID"), 10, 64)
	if err != nil {
		writeFeeFailure(w, library.ErrInvalidBookID)
		return
	}

	res, err := h.lib.CalculateLateFee(r.Context(), patronID, bookID)
	if err != nil {
		h.storeError(w, err)
		return
	}
	writeJSON(w, resultStatus(res.OK(), res.Kind), res)
}

func writeFeeFailure(w http.ResponseWriter, f *library.Failure) {
	writeJSON(w, statusFor(f.Kind), library.FeeResult{Status: library.StatusError, Kind: f.Kind, Message: f.Message})
}

func (h *Handler) PatronStatus(w http.ResponseWriter, r *http.Request) {
	rep, err := h.lib.PatronStatus(r.Context(), chi.URLParam(r, "patronID"))
	if err != nil {
		h.storeError(w, err)
		return
	}
	writeJSON(w, resultStatus(rep.Status == library.StatusSuccess, rep.Kind), rep)
}

func (h *Handler) storeError(w http.ResponseWriter, err error) {
	h.logger.Error("store failure", slog.String("error", err.Error()))
	status := http.StatusInternalServerError
	if errors.Is(err, library.ErrStoreUnavailable) {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorResponse{Error: "StoreUnavailable", Message: "The catalog store is unavailable. Try again later."})
}

func resultStatus(success bool, kind library.ErrorKind) int {
	if success {
		return http.StatusOK
	}
	return statusFor(kind)
}

// statusFor maps a failure kind to an HTTP status.
func statusFor(kind library.ErrorKind) int {
	switch kind {
	case library.KindInvalidPatronID, library.KindInvalidBookID,
		library.KindInvalidTitle, library.KindInvalidAuthor,
		library.KindInvalidISBN, library.KindInvalidCopies:
		return http.StatusUnprocessableEntity
	case library.KindBookNotFound:
		return http.StatusNotFound
	case library.KindBookUnavailable, library.KindAlreadyBorrowed,
		library.KindBorrowLimitExceeded, library.KindNotBorrowed,
		library.KindDuplicateISBN:
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "BadRequest", Message: "Request body must be a JSON object."})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
