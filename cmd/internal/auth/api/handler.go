package authapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"board/cmd/internal/auth/account"
	"board/cmd/internal/auth/session"
	"board/cmd/internal/metrics"
)

// Accounts is the account surface served over HTTP.
type Accounts interface {
	Register(ctx context.Context, d account.RegisterDetails) (bool, error)
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, token string) (bool, error)
	GetSession(ctx context.Context, token string) (*session.View, error)
	GetUser(ctx context.Context, username string) (*account.PublicUser, error)
	SetAdmin(ctx context.Context, username string, admin bool) (bool, error)
	GetAdmins(ctx context.Context) ([]account.PublicUser, error)
}

// Handler wires HTTP endpoints to the account manager.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	accounts Accounts
	metrics  *metrics.Metrics
}

// HandlerOption configures optional handler dependencies.
type HandlerOption func(*Handler)

// WithMetrics records login, registration and logout outcomes.
func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) {
		if h == nil {
			return
		}
		h.metrics = m
	}
}

// NewHandler constructs a Handler.
func NewHandler(log *slog.Logger, accounts Accounts, cfg Config, opts ...HandlerOption) (*Handler, error) {
	if accounts == nil {
		return nil, errors.New("authapi: nil accounts")
	}
	if log == nil {
		log = slog.Default()
	}

	h := &Handler{
		log:      log,
		cfg:      cfg.normalized(),
		accounts: accounts,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h, nil
}

// Register wires API routes onto the provided mux. Requests must pass
// through Decode for guarded routes to see a session.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/{$}", h.handleRoot)
	mux.HandleFunc("/v1", h.handleIndex)
	mux.HandleFunc("/v1/{$}", h.handleIndex)
	mux.HandleFunc("/v1/me", h.handleMe)
	mux.HandleFunc("/v1/accounts", h.handleRegister)
	mux.HandleFunc("/v1/accounts/{username}", h.handleGetAccount)
	mux.HandleFunc("/v1/accounts/{username}/admin", adminGuard(h.handleSetAdmin))
	mux.HandleFunc("/v1/admins", adminGuard(h.handleAdmins))
	mux.HandleFunc("/", handleNotFound)
}

// ---- handlers ----

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"v1": "/v1"})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"me":     "/me",
		"users":  "/accounts",
		"admins": "/admins",
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut:
		h.handleLogin(w, r)
	case http.MethodGet:
		guard(h.handleSession)(w, r)
	case http.MethodDelete:
		guard(h.handleLogout)(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, "username and password must be provided")
		return
	}

	token, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.metrics.ObserveLogin(metrics.LoginError)
		h.log.Error("auth.login.fail", "err", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if token == "" {
		h.metrics.ObserveLogin(metrics.LoginRejected)
		h.log.Info("auth.login.rejected")
		writeError(w, http.StatusUnauthorized, msgUnauthorised)
		return
	}

	h.metrics.ObserveLogin(metrics.LoginSuccess)
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	v, _ := SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, toSessionResponse(*v))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	v, _ := SessionFromContext(r.Context())

	revoked, err := h.accounts.Logout(r.Context(), v.Token)
	if err != nil {
		h.log.Error("auth.logout.fail", "err", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if revoked {
		h.metrics.ObserveLogout()
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Username == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" || req.Email == "" {
		writeError(w, http.StatusUnprocessableEntity, "Invalid data")
		return
	}

	ok, err := h.accounts.Register(r.Context(), account.RegisterDetails{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		h.metrics.ObserveRegister(metrics.RegisterError)
		h.log.Error("auth.register.fail", "err", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if !ok {
		h.metrics.ObserveRegister(metrics.RegisterRejected)
		writeError(w, http.StatusUnprocessableEntity, "Bad details")
		return
	}

	h.metrics.ObserveRegister(metrics.RegisterSuccess)
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	u, err := h.accounts.GetUser(r.Context(), r.PathValue("username"))
	if err != nil {
		h.log.Error("auth.account.get.fail", "err", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if u == nil {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}

	v, ok := SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, toUserResponse(*u, ok && v.Admin))
}

func (h *Handler) handleSetAdmin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req setAdminRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Admin == nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid data")
		return
	}

	username := r.PathValue("username")
	ok, err := h.accounts.SetAdmin(r.Context(), username, *req.Admin)
	if err != nil {
		h.log.Error("auth.account.set_admin.fail", "err", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}

	v, _ := SessionFromContext(r.Context())
	h.log.Info("auth.account.set_admin.ok", "by", v.Username, "username", username, "admin", *req.Admin)
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) handleAdmins(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	admins, err := h.accounts.GetAdmins(r.Context())
	if err != nil {
		h.log.Error("auth.admins.list.fail", "err", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	out := make([]userResponse, 0, len(admins))
	for _, u := range admins {
		out = append(out, toUserResponse(u, true))
	}
	writeJSON(w, http.StatusOK, out)
}

func handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, msgNotFound)
}
