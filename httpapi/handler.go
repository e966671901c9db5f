package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	vms "github.com/Code4Bharat1/VMS-BACKEND"
	"github.com/Code4Bharat1/VMS-BACKEND/middleware"
	"github.com/gorilla/mux"
)

// Handler serves the authentication routes under /api/auth.
type Handler struct {
	engine   *vms.Engine
	cfg      Config
	sameSite http.SameSite
}

// NewHandler validates cfg and returns a Handler backed by engine.
func NewHandler(engine *vms.Engine, cfg Config) (*Handler, error) {
	if engine == nil {
		return nil, errors.New("httpapi: engine is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sameSite, _ := cfg.sameSite()
	return &Handler{engine: engine, cfg: cfg, sameSite: sameSite}, nil
}

// RegisterRoutes mounts the public, admin and self-service routes on r.
// r is expected to be the /api/auth subrouter.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	guard := middleware.Guard(h.engine)

	r.HandleFunc("/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/refresh", h.refresh).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.logout).Methods(http.MethodPost)
	r.HandleFunc("/captcha", h.captcha).Methods(http.MethodGet)

	admin := r.NewRoute().Subrouter()
	admin.Use(guard, middleware.RequireRole(vms.RoleAdmin))
	admin.HandleFunc("/register", h.create(h.engine.RegisterAdmin, "user", "Admin")).Methods(http.MethodPost)
	admin.HandleFunc("/supervisor", h.create(h.engine.CreateSupervisor, "supervisor", "Supervisor")).Methods(http.MethodPost)
	admin.HandleFunc("/staff", h.create(h.engine.CreateStaff, "staff", "Staff")).Methods(http.MethodPost)

	self := r.NewRoute().Subrouter()
	self.Use(guard, middleware.RequireRole(vms.RoleAdmin, vms.RoleSupervisor, vms.RoleStaff))
	self.HandleFunc("/users/update-password", h.updatePassword).Methods(http.MethodPut)
	self.HandleFunc("/users/profile", h.updateProfile).Methods(http.MethodPut)
}

type loginRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	CaptchaID    string `json:"captchaId"`
	CaptchaValue string `json:"captchaValue"`
}

type loginResponse struct {
	Message     string        `json:"message"`
	AccessToken string        `json:"accessToken"`
	User        *vms.Identity `json:"user"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.engine.Login(r.Context(), vms.LoginRequest{
		Email:           req.Email,
		Password:        req.Password,
		ChallengeID:     req.CaptchaID,
		ChallengeAnswer: req.CaptchaValue,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	h.setRefreshCookie(w, res.RefreshToken, res.RefreshExpiresAt)
	middleware.WriteJSON(w, http.StatusOK, loginResponse{
		Message:     "Login successful",
		AccessToken: res.AccessToken,
		User:        res.Identity,
	})
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.Refresh(r.Context(), h.refreshCookie(r))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	if res.RefreshToken != "" {
		h.setRefreshCookie(w, res.RefreshToken, res.RefreshExpiresAt)
	}
	middleware.WriteJSON(w, http.StatusOK, tokenResponse{AccessToken: res.AccessToken})
}

type okResponse struct {
	OK bool `json:"ok"`
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	err := h.engine.Logout(r.Context(), h.refreshCookie(r))
	h.clearRefreshCookie(w)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *Handler) captcha(w http.ResponseWriter, r *http.Request) {
	c, err := h.engine.IssueChallenge(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	middleware.WriteJSON(w, http.StatusOK, c)
}

type createAccountRequest struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	Password    string   `json:"password"`
	Role        string   `json:"role"`
	AssignedBay string   `json:"assignedBay"`
	ManagedBays []string `json:"managedBays"`
}

func (req createAccountRequest) toEngine() vms.CreateAccountRequest {
	return vms.CreateAccountRequest{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Password:    req.Password,
		Role:        vms.Role(req.Role),
		AssignedBay: req.AssignedBay,
		ManagedBays: req.ManagedBays,
	}
}

type accountView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone,omitempty"`
	Role        vms.Role `json:"role"`
	Active      bool     `json:"isActive"`
	AssignedBay string   `json:"assignedBay,omitempty"`
	ManagedBays []string `json:"managedBays,omitempty"`
}

func viewOf(a *vms.Account) accountView {
	return accountView{
		ID:          a.ID,
		Name:        a.Name,
		Email:       a.Email,
		Phone:       a.Phone,
		Role:        a.Role,
		Active:      a.Active,
		AssignedBay: a.AssignedBay,
		ManagedBays: a.ManagedBays,
	}
}

type createFunc func(ctx context.Context, req vms.CreateAccountRequest) (*vms.Account, error)

// create decodes the body, runs fn and answers {message, <key>: account}.
func (h *Handler) create(fn createFunc, key, label string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAccountRequest
		if !h.decode(w, r, &req) {
			return
		}

		created, err := fn(r.Context(), req.toEngine())
		if err != nil {
			middleware.WriteError(w, err)
			return
		}

		middleware.WriteJSON(w, http.StatusOK, map[string]any{
			"message": fmt.Sprintf("%s registered successfully", label),
			key:       viewOf(created),
		})
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

type updatePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) updatePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := vms.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, vms.ErrUnauthenticated)
		return
	}

	var req updatePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.engine.ChangePassword(r.Context(), id.AccountID, req.OldPassword, req.NewPassword); err != nil {
		middleware.WriteError(w, err)
		return
	}

	// The refresh reference is gone; drop the cookie with it.
	h.clearRefreshCookie(w)
	middleware.WriteJSON(w, http.StatusOK, messageResponse{Message: "Password updated successfully"})
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := vms.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, vms.ErrUnauthenticated)
		return
	}

	var req updateProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.engine.UpdateProfile(r.Context(), id.AccountID, vms.Profile{Name: req.Name, Phone: req.Phone}); err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, messageResponse{Message: "Profile updated successfully"})
}

// decode reads a JSON body into v, answering 400 on malformed input.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		middleware.WriteError(w, vms.ErrValidation)
		return false
	}
	return true
}
