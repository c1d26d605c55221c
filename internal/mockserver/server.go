// Package mockserver is an in-memory stand-in for the catalogue service.
// It speaks the same HTTP/JSON interface under /api and is used by
// integration tests and for running the client locally.
package mockserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/libcat/internal/client/models"
	"github.com/dmitrijs2005/libcat/internal/common"
	"github.com/dmitrijs2005/libcat/internal/logging"
	"github.com/gorilla/mux"
)

// APIPrefix is where every route is mounted.
const APIPrefix = "/api"

// DefaultTokenTTL matches the lifetime of tokens issued by the real service.
const DefaultTokenTTL = 30 * time.Minute

type ctxKey string

const subjectKey ctxKey = "subject"

type Server struct {
	store  *Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	log    logging.Logger
}

type Option func(*Server)

func WithStore(st *Store) Option {
	return func(s *Server) { s.store = st }
}

func WithSecret(k []byte) Option {
	return func(s *Server) { s.secret = k }
}

func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.ttl = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.log = l }
}

// New returns a server. Without WithSecret a random signing key is used,
// so tokens do not survive a restart.
func New(opts ...Option) *Server {
	s := &Server{
		ttl: DefaultTokenTTL,
		now: time.Now,
		log: logging.Discard(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.store == nil {
		s.store = NewStore(0)
	}
	if len(s.secret) == 0 {
		s.secret = common.GenerateRandByteArray(32)
	}
	return s
}

func (s *Server) Store() *Store { return s.store }

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc(APIPrefix+"/users/", s.createUser).Methods(http.MethodPost)
	r.HandleFunc(APIPrefix+"/token", s.issueToken).Methods(http.MethodPost)
	r.HandleFunc(APIPrefix+"/books/", s.listBooks).Methods(http.MethodGet)
	r.HandleFunc(APIPrefix+"/books/", s.requireAuth(s.createBook)).Methods(http.MethodPost)
	r.HandleFunc(APIPrefix+"/books/{id:[0-9]+}", s.getBook).Methods(http.MethodGet)
	r.HandleFunc(APIPrefix+"/books/{id:[0-9]+}", s.requireAuth(s.updateBook)).Methods(http.MethodPut)
	r.HandleFunc(APIPrefix+"/books/{id:[0-9]+}", s.requireAuth(s.deleteBook)).Methods(http.MethodDelete)
	r.HandleFunc(APIPrefix+"/books/{id:[0-9]+}/borrow", s.requireAuth(s.borrowBook)).Methods(http.MethodPost)
	r.HandleFunc(APIPrefix+"/books/{id:[0-9]+}/return", s.requireAuth(s.returnBook)).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.log.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"request_id", r.Header.Get(common.RequestIDHeaderName),
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get(common.AuthorizationHeaderName)
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, common.BearerScheme) || token == "" {
			unauthorized(w, "Not authenticated")
			return
		}

		sub, err := SubjectFromToken(token, s.secret, s.now())
		if err != nil {
			unauthorized(w, "Could not validate credentials")
			return
		}
		if _, ok := s.store.userByName(sub); !ok {
			unauthorized(w, "Could not validate credentials")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), subjectKey, sub)))
	}
}

func subjectFrom(ctx context.Context) string {
	sub, _ := ctx.Value(subjectKey).(string)
	return sub
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var in models.UserCreate
	if !decodeBody(w, r, &in) {
		return
	}
	if v := missing(map[string]string{"username": in.Username, "password": in.Password}); v != nil {
		writeValidation(w, v...)
		return
	}

	u, err := s.store.CreateUser(in.Username, in.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid form body")
		return
	}
	username, password := r.PostForm.Get("username"), r.PostForm.Get("password")
	if v := missing(map[string]string{"username": username, "password": password}); v != nil {
		writeValidation(w, v...)
		return
	}
	if gt := r.PostForm.Get("grant_type"); gt != "" && gt != "password" {
		writeValidation(w, violation{Field: "grant_type", Msg: "String should match pattern 'password'"})
		return
	}

	if err := s.store.Authenticate(username, password); err != nil {
		s.fail(w, r, err)
		return
	}

	tok, err := GenerateToken(username, s.secret, s.ttl, s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: tok, TokenType: "bearer"})
}

func (s *Server) listBooks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.ListBooks())
}

func (s *Server) getBook(w http.ResponseWriter, r *http.Request) {
	b, err := s.store.GetBook(bookID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) createBook(w http.ResponseWriter, r *http.Request) {
	var in models.BookCreate
	if !decodeBody(w, r, &in) {
		return
	}
	if v := missing(map[string]string{"title": in.Title, "author": in.Author, "isbn": in.ISBN}); v != nil {
		writeValidation(w, v...)
		return
	}
	if len(in.ISBN) > 13 {
		writeValidation(w, violation{Field: "isbn", Msg: "String should have at most 13 characters"})
		return
	}

	b, err := s.store.CreateBook(in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) updateBook(w http.ResponseWriter, r *http.Request) {
	var in models.BookUpdate
	if !decodeBody(w, r, &in) {
		return
	}
	b, err := s.store.UpdateBook(bookID(r), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) deleteBook(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteBook(bookID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) borrowBook(w http.ResponseWriter, r *http.Request) {
	in := models.BorrowRequest{BorrowDays: models.DefaultBorrowDays}
	if r.ContentLength != 0 {
		if !decodeBody(w, r, &in) {
			return
		}
	}
	if in.BorrowDays <= 0 {
		writeValidation(w, violation{Field: "borrow_days", Msg: "Input should be greater than 0"})
		return
	}

	b, err := s.store.Borrow(bookID(r), subjectFrom(r.Context()), in.BorrowDays, s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) returnBook(w http.ResponseWriter, r *http.Request) {
	b, err := s.store.Return(bookID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// fail maps store errors to the status and detail text the service uses.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrUserExists):
		writeDetail(w, http.StatusBadRequest, "Username already registered")
	case errors.Is(err, ErrBadCredentials):
		w.Header().Set("WWW-Authenticate", common.BearerScheme)
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
	case errors.Is(err, ErrBookNotFound):
		writeDetail(w, http.StatusNotFound, "Book not found")
	case errors.Is(err, ErrDuplicateISBN):
		writeDetail(w, http.StatusBadRequest, "Book with this ISBN already exists.")
	case errors.Is(err, ErrAlreadyBorrowed):
		writeDetail(w, http.StatusBadRequest, "Book is already borrowed")
	case errors.Is(err, ErrNotBorrowed):
		writeDetail(w, http.StatusBadRequest, "Book is not currently borrowed")
	default:
		s.log.Error(r.Context(), "internal error", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func bookID(r *http.Request) int {
	// the route pattern only admits digits
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", common.BearerScheme)
	writeDetail(w, http.StatusUnauthorized, detail)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

type violation struct {
	Field string
	Msg   string
}

type violationBody struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func writeValidation(w http.ResponseWriter, vs ...violation) {
	out := make([]violationBody, 0, len(vs))
	for _, v := range vs {
		out = append(out, violationBody{Loc: []string{"body", v.Field}, Msg: v.Field + ": " + v.Msg, Type: "value_error"})
	}
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": out})
}

func missing(fields map[string]string) []violation {
	var out []violation
	for _, name := range []string{"username", "password", "title", "author", "isbn"} {
		v, ok := fields[name]
		if ok && strings.TrimSpace(v) == "" {
			out = append(out, violation{Field: name, Msg: "Field required"})
		}
	}
	return out
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeValidation(w, violation{Field: "body", Msg: "JSON decode error"})
		return false
	}
	return true
}
