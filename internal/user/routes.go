package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts account endpoints. Signup and login are public;
// /me and the buyer profile require a session.
func RegisterRoutes(r chi.Router, store *Store, tokens *Tokens) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", handleSignup(store, tokens))
		r.Post("/login", handleLogin(store, tokens))
		r.With(RequireAuth(tokens)).Get("/me", handleMe(store))
	})
	r.Route("/api/profile", func(r chi.Router) {
		r.Use(RequireAuth(tokens))
		r.Get("/", handleGetProfile(store))
		r.Put("/", handleSaveProfile(store))
	})
}

type signupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Company  string `json:"company"`
	Role     Role   `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func handleSignup(store *Store, tokens *Tokens) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Role != "" && req.Role != RoleBuyer && req.Role != RoleSupplier {
			writeError(w, http.StatusBadRequest, "role must be buyer or supplier")
			return
		}

		u, err := store.Create(r.Context(), User{Email: req.Email, Name: req.Name, Company: req.Company, Role: req.Role}, req.Password)
		if errors.Is(err, ErrEmailTaken) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		token, err := tokens.Issue(u)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, sessionResponse{Token: token, User: u})
	}
}

func handleLogin(store *Store, tokens *Tokens) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		u, err := store.Authenticate(r.Context(), req.Email, req.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		token, err := tokens.Issue(u)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{Token: token, User: u})
	}
}

func handleMe(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := FromContext(r.Context())
		u, err := store.GetByID(r.Context(), id.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if u == nil {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func handleGetProfile(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := FromContext(r.Context())
		p, err := store.GetProfile(r.Context(), id.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if p == nil {
			p = &BuyerProfile{UserID: id.ID}
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func handleSaveProfile(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := FromContext(r.Context())
		var p BuyerProfile
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		p.UserID = id.ID
		if err := store.SaveProfile(r.Context(), p); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
