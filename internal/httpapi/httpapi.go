package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pharmapos/internal/domain"
	"pharmapos/internal/ledger"
	"pharmapos/internal/report"
	"pharmapos/internal/service"
	"pharmapos/internal/statement"
	"pharmapos/internal/store"
)

type API struct {
	service       *service.Service
	auth          *AuthManager
	allowedOrigin string
	loginLimiter  *attemptLimiter
	logger        *zap.Logger
}

func New(svc *service.Service, auth *AuthManager, allowedOrigin string, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		service:       svc,
		auth:          auth,
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
		logger:        logger.Named("httpapi"),
	}
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	l.entries[key] = append(kept, now)
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/api/v1/auth/login", a.handleLogin)

	mux.HandleFunc("/api/v1/products", a.requireAuth(a.handleProducts))
	mux.HandleFunc("/api/v1/products/", a.requireAuth(a.handleProductActions))
	mux.HandleFunc("/api/v1/sales/", a.requireAuth(a.handleSales))
	mux.HandleFunc("/api/v1/procurements/", a.requireAuth(a.handleProcurements))
	mux.HandleFunc("/api/v1/statements/", a.requireAuth(a.handleStatement))
	mux.HandleFunc("/api/v1/dashboard", a.requireAuth(a.handleDashboard))
	mux.HandleFunc("/api/v1/settings", a.requireAuth(a.handleSettings))
	mux.HandleFunc("/api/v1/reset", a.requireAuth(a.handleReset))

	return a.withMiddleware(mux)
}

func (a *API) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		if err := a.auth.ParseToken(token); err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		next(w, r)
	}
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"dirty": a.service.Dirty(),
		"at":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Login(req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		filter := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("filter")))
		var status domain.StockStatus
		switch filter {
		case "", "all":
		case string(domain.StockLow), string(domain.StockOut), string(domain.StockIn):
			status = domain.StockStatus(filter)
		default:
			writeError(w, http.StatusBadRequest, fmt.Errorf("unknown filter %q", filter))
			return
		}
		products := a.service.ListProducts(r.URL.Query().Get("q"), status)
		writeJSON(w, http.StatusOK, map[string]any{"products": products})
	case http.MethodPost:
		var req domain.ProductCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		product, err := a.service.CreateProduct(r.Context(), req)
		if failed(err) {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, withWarning(map[string]any{"product": product}, err))
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleProductActions(w http.ResponseWriter, r *http.Request) {
	tail := strings.TrimSpace(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/products/"), "/"))
	if tail == "" {
		writeError(w, http.StatusBadRequest, errors.New("product barcode required"))
		return
	}

	switch tail {
	case "lookup":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		product, err := a.service.FindProductByName(r.URL.Query().Get("name"))
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"product": product})
		return
	case "suggest":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		field := ledger.SearchField(strings.ToLower(r.URL.Query().Get("field")))
		if field != ledger.SearchName && field != ledger.SearchBarcode {
			field = ledger.SearchAny
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": a.service.SuggestProducts(field, r.URL.Query().Get("q"))})
		return
	case "profit-preview":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		purchase, err1 := parseDecimal(r.URL.Query().Get("purchase_price"))
		selling, err2 := parseDecimal(r.URL.Query().Get("selling_price"))
		if err := errors.Join(err1, err2); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		preview, err := a.service.ProfitPreview(purchase, selling)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, preview)
		return
	}

	switch r.Method {
	case http.MethodGet:
		product, err := a.service.GetProduct(tail)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"product": product})
	case http.MethodDelete:
		err := a.service.DeleteProduct(r.Context(), tail)
		if failed(err) {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, withWarning(map[string]any{"deleted": tail}, err))
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleSales(w http.ResponseWriter, r *http.Request) {
	tail := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/sales/"), "/")
	parts := strings.Split(tail, "/")

	switch {
	case tail == "current":
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"batch": a.service.CurrentSale()})
		case http.MethodPost:
			var req domain.SaleLineRequest
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			batch, err := a.service.AddSaleLine(req)
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"batch": batch})
		case http.MethodDelete:
			writeJSON(w, http.StatusOK, map[string]any{"batch": a.service.ClearSale()})
		default:
			writeMethodNotAllowed(w)
		}
	case tail == "current/complete":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		var req domain.SaleCompleteRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
		}
		result, err := a.service.CompleteSale(r.Context(), req)
		if failed(err) {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	case len(parts) == 3 && parts[0] == "current" && parts[1] == "lines":
		if r.Method != http.MethodDelete {
			writeMethodNotAllowed(w)
			return
		}
		index, err := strconv.Atoi(parts[2])
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("line index must be a number"))
			return
		}
		batch, err := a.service.RemoveSaleLine(index)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"batch": batch})
	case len(parts) == 2 && parts[1] == "receipt":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		a.writeReceipt(w, r, parts[0])
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown sales action"))
	}
}

func (a *API) writeReceipt(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("sale id must be a number"))
		return
	}
	receipt, err := a.service.Receipt(id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(statement.ReceiptText(receipt)))
	case "html":
		page, err := statement.ReceiptHTML(receipt)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	default:
		writeJSON(w, http.StatusOK, receipt)
	}
}

func (a *API) handleProcurements(w http.ResponseWriter, r *http.Request) {
	tail := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/procurements/"), "/")
	parts := strings.Split(tail, "/")

	switch {
	case tail == "current":
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"batch": a.service.CurrentProcurement()})
		case http.MethodPost:
			var req domain.ProcurementLineRequest
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			batch, err := a.service.AddProcurementLine(req)
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"batch": batch})
		case http.MethodDelete:
			writeJSON(w, http.StatusOK, map[string]any{"batch": a.service.ClearProcurement()})
		default:
			writeMethodNotAllowed(w)
		}
	case tail == "current/complete":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		result, err := a.service.CompleteProcurement(r.Context())
		if failed(err) {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	case len(parts) == 3 && parts[0] == "current" && parts[1] == "lines":
		if r.Method != http.MethodDelete {
			writeMethodNotAllowed(w)
			return
		}
		index, err := strconv.Atoi(parts[2])
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("line index must be a number"))
			return
		}
		batch, err := a.service.RemoveProcurementLine(index)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"batch": batch})
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown procurement action"))
	}
}

func (a *API) handleStatement(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	kind := domain.StatementKind(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/statements/"), "/"))
	window, err := a.parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	st, err := a.service.Statement(kind, window)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format"))) {
	case "csv":
		body, err := statement.CSV(st)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", statement.FileName(st, "csv")))
		_, _ = w.Write([]byte(body))
	case "html", "print":
		page, err := statement.HTML(st)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	case "xlsx":
		book, err := statement.XLSX(st)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", statement.FileName(st, "xlsx")))
		_, _ = w.Write(book)
	default:
		writeJSON(w, http.StatusOK, st)
	}
}

// parseWindow reads period, date, from and to. Dates are read in the shop's
// location and accept most common layouts.
func (a *API) parseWindow(r *http.Request) (report.Window, error) {
	q := r.URL.Query()
	loc := a.service.Location()

	parseDate := func(name string, fallback time.Time) (time.Time, error) {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			return fallback, nil
		}
		parsed, err := dateparse.ParseIn(raw, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid %s %q", name, raw)
		}
		return parsed, nil
	}

	now := a.service.Now()
	switch report.Period(strings.ToLower(q.Get("period"))) {
	case "", report.PeriodDay:
		date, err := parseDate("date", now)
		if err != nil {
			return report.Window{}, err
		}
		return report.Day(date, loc), nil
	case report.PeriodMonth:
		date, err := parseDate("date", now)
		if err != nil {
			return report.Window{}, err
		}
		return report.Month(date, loc), nil
	case report.PeriodRange:
		if q.Get("from") == "" || q.Get("to") == "" {
			return report.Window{}, errors.New("range needs from and to")
		}
		from, err := parseDate("from", now)
		if err != nil {
			return report.Window{}, err
		}
		to, err := parseDate("to", now)
		if err != nil {
			return report.Window{}, err
		}
		return report.Range(from, to, loc)
	default:
		return report.Window{}, fmt.Errorf("unknown period %q", q.Get("period"))
	}
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, a.service.Dashboard(r.Context()))
}

func (a *API) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"settings": a.service.Settings()})
	case http.MethodPatch:
		var req domain.SettingsUpdate
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		settings, err := a.service.UpdateSettings(r.Context(), req)
		if failed(err) {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, withWarning(map[string]any{"settings": settings}, err))
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.ResetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	err := a.service.ResetAll(r.Context(), req.Confirm)
	if failed(err) {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, withWarning(map[string]any{"reset": true}, err))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if (r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut) && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		a.logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("latency", time.Since(startedAt)),
		)
	})
}

// failed reports whether err should abort the response. A persistence
// failure does not: the change is applied and the client gets a warning.
func failed(err error) bool {
	return err != nil && !errors.Is(err, store.ErrPersistence)
}

func withWarning(body map[string]any, err error) map[string]any {
	if err != nil {
		body["warning"] = err.Error()
	}
	return body
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateKey),
		errors.Is(err, store.ErrNegativeStock),
		errors.Is(err, store.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, store.ErrEmptyBatch), errors.Is(err, store.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func parseDecimal(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	return d, nil
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx bodies stay generic; 4xx messages are meant for the cashier.
	msg := err.Error()
	if status >= 500 {
		zap.L().Error("internal error", zap.Int("status", status), zap.Error(err))
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
