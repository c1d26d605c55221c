package mockserver

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/libcat/internal/client/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists      = errors.New("user exists")
	ErrBadCredentials  = errors.New("bad credentials")
	ErrBookNotFound    = errors.New("book not found")
	ErrNotBorrowed     = errors.New("book not borrowed")
	ErrDuplicateISBN   = errors.New("duplicate isbn")
	ErrAlreadyBorrowed = errors.New("book already borrowed")
)

type user struct {
	id       int
	username string
	hash     []byte
}

// Store is the in-memory catalogue.
type Store struct {
	mu       sync.Mutex
	users    map[string]*user
	books    map[int]*models.Book
	nextUser int
	nextBook int
	cost     int
}

// NewStore returns an empty store hashing passwords with the given bcrypt
// cost; 0 means bcrypt.DefaultCost.
func NewStore(cost int) *Store {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Store{
		users:    map[string]*user{},
		books:    map[int]*models.Book{},
		nextUser: 1,
		nextBook: 1,
		cost:     cost,
	}
}

func (s *Store) CreateUser(username, password string) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; ok {
		return models.User{}, ErrUserExists
	}
	u := &user{id: s.nextUser, username: username, hash: hash}
	s.nextUser++
	s.users[username] = u
	return models.User{ID: u.id, Username: u.username}, nil
}

func (s *Store) Authenticate(username, password string) error {
	s.mu.Lock()
	u, ok := s.users[username]
	s.mu.Unlock()

	if !ok {
		return ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword(u.hash, []byte(password)) != nil {
		return ErrBadCredentials
	}
	return nil
}

func (s *Store) userByName(username string) (*user, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	return u, ok
}

func (s *Store) ListBooks() []models.Book {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, copyBook(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) GetBook(id int) (models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return models.Book{}, ErrBookNotFound
	}
	return copyBook(b), nil
}

func (s *Store) CreateBook(c models.BookCreate) (models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isbnTaken(c.ISBN, 0) {
		return models.Book{}, ErrDuplicateISBN
	}
	b := &models.Book{ID: s.nextBook, Title: c.Title, Author: c.Author, ISBN: c.ISBN}
	s.nextBook++
	s.books[b.ID] = b
	return copyBook(b), nil
}

func (s *Store) UpdateBook(id int, u models.BookUpdate) (models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return models.Book{}, ErrBookNotFound
	}
	if u.ISBN != nil && *u.ISBN != b.ISBN && s.isbnTaken(*u.ISBN, id) {
		return models.Book{}, ErrDuplicateISBN
	}
	if u.Title != nil {
		b.Title = *u.Title
	}
	if u.Author != nil {
		b.Author = *u.Author
	}
	if u.ISBN != nil {
		b.ISBN = *u.ISBN
	}
	return copyBook(b), nil
}

func (s *Store) DeleteBook(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[id]; !ok {
		return ErrBookNotFound
	}
	delete(s.books, id)
	return nil
}

func (s *Store) Borrow(id int, username string, days int, today time.Time) (models.Book, error) {
	u, ok := s.userByName(username)
	if !ok {
		return models.Book{}, ErrBadCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return models.Book{}, ErrBookNotFound
	}
	if b.IsBorrowed {
		return models.Book{}, ErrAlreadyBorrowed
	}

	y, m, d := today.AddDate(0, 0, days).Date()
	due := models.NewDate(y, m, d)
	uid, name := u.id, u.username
	b.IsBorrowed = true
	b.DueDate = &due
	b.BorrowerID = &uid
	b.BorrowerUsername = &name
	return copyBook(b), nil
}

func (s *Store) Return(id int) (models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return models.Book{}, ErrBookNotFound
	}
	if !b.IsBorrowed {
		return models.Book{}, ErrNotBorrowed
	}
	b.IsBorrowed = false
	b.DueDate = nil
	b.BorrowerID = nil
	b.BorrowerUsername = nil
	return copyBook(b), nil
}

func (s *Store) isbnTaken(isbn string, except int) bool {
	for id, b := range s.books {
		if id != except && b.ISBN == isbn {
			return true
		}
	}
	return false
}

func copyBook(b *models.Book) models.Book {
	c := *b
	if b.DueDate != nil {
		d := *b.DueDate
		c.DueDate = &d
	}
	if b.BorrowerID != nil {
		v := *b.BorrowerID
		c.BorrowerID = &v
	}
	if b.BorrowerUsername != nil {
		v := *b.BorrowerUsername
		c.BorrowerUsername = &v
	}
	return c
}

// Seed adds books, skipping ones whose ISBN is already present.
func (s *Store) Seed(books ...models.BookCreate) {
	for _, b := range books {
		_, _ = s.CreateBook(b)
	}
}

// DemoBooks is the catalogue the development server starts with.
var DemoBooks = []models.BookCreate{
	{Title: "The Hobbit", Author: "J. R. R. Tolkien", ISBN: "9780547928227"},
	{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593"},
	{Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin", ISBN: "9780441478125"},
}
