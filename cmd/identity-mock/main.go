// identity-mock is a file-backed stand-in for the external identity
// collaborator. It loads a JSON user fixture, hashes every password with
// bcrypt at startup, and serves the login/signup/password/users endpoints the
// service consumes.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type userEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	Role     string `json:"role"`
	StoreID  string `json:"storeId,omitempty"`
	Password string `json:"password"`
}

type userView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Role    string `json:"role"`
	StoreID string `json:"storeId,omitempty"`
}

type directory struct {
	mu     sync.RWMutex
	users  []userEntry
	hashes map[string][]byte // user id -> bcrypt hash
}

func main() {
	var (
		port   = flag.String("port", "9099", "port to listen on")
		data   = flag.String("data", "mock-users.json", "path to mock user fixture")
		apiKey = flag.String("api-key", "", "require this X-API-Key on every request when set")
	)
	flag.Parse()

	file, err := os.ReadFile(*data)
	if err != nil {
		log.Fatalf("read mock data: %v", err)
	}

	var users []userEntry
	if err := json.Unmarshal(file, &users); err != nil {
		log.Fatalf("parse mock data: %v", err)
	}

	dir := &directory{hashes: make(map[string][]byte, len(users))}
	for _, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("hash password for %s: %v", u.Email, err)
		}
		u.Password = ""
		dir.users = append(dir.users, u)
		dir.hashes[u.ID] = hash
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", guard(*apiKey, dir.handleLogin))
	mux.HandleFunc("POST /auth/signup", guard(*apiKey, dir.handleSignup))
	mux.HandleFunc("POST /auth/password", guard(*apiKey, dir.handlePassword))
	mux.HandleFunc("GET /users", guard(*apiKey, dir.handleUsers))

	addr := ":" + *port
	log.Printf("mock identity service listening on %s (%d users)", addr, len(dir.users))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func guard(apiKey string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if apiKey != "" && r.Header.Get("X-API-Key") != apiKey {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

func (d *directory) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if !strings.EqualFold(u.Email, req.Email) {
			continue
		}
		if bcrypt.CompareHashAndPassword(d.hashes[u.ID], []byte(req.Password)) != nil {
			break
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"user": toView(u)})
		return
	}
	http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
}

func (d *directory) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Address  string `json:"address"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if strings.EqualFold(u.Email, req.Email) {
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
			return
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Self-registered accounts are always regular users.
	entry := userEntry{
		ID:      uuid.NewString(),
		Name:    req.Name,
		Email:   req.Email,
		Address: req.Address,
		Role:    "USER",
	}
	d.users = append(d.users, entry)
	d.hashes[entry.ID] = hash

	writeJSON(w, http.StatusCreated, map[string]interface{}{"user": toView(entry)})
}

func (d *directory) handlePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"userId"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.hashes[req.UserID]; !ok {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	d.hashes[req.UserID] = hash
	w.WriteHeader(http.StatusNoContent)
}

func (d *directory) handleUsers(w http.ResponseWriter, r *http.Request) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	views := make([]userView, 0, len(d.users))
	for _, u := range d.users {
		views = append(views, toView(u))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": views})
}

func toView(u userEntry) userView {
	return userView{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Address: u.Address,
		Role:    u.Role,
		StoreID: u.StoreID,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}
