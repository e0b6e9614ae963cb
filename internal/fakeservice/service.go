// Package fakeservice is an in-memory stand-in for the PetFriends REST API. It mirrors the
// public contract including its quirks: HTML 400 pages for invalid pet data, JSON 403 for bad
// keys and foreign pets, and an empty 200 body on delete.
package fakeservice

import (
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Pet is a stored pet record.
type Pet struct {
	ID         string
	Owner      string
	Name       string
	AnimalType string
	Age        string
	Photo      []byte
	PhotoType  string
	CreatedAt  time.Time
}

// Service holds users, issued keys and pets. It is safe for concurrent use.
type Service struct {
	mu    sync.Mutex
	users map[string]string // email -> password
	keys  map[string]string // key -> email
	pets  []*Pet            // newest first
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithUser registers an account that can authenticate.
func WithUser(email, password string) Option {
	return func(s *Service) {
		s.users[email] = password
	}
}

// WithClock overrides the time source used for created_at.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns an empty service.
func New(opts ...Option) *Service {
	s := &Service{
		users: make(map[string]string),
		keys:  make(map[string]string),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue returns a fresh key for the credentials, or false when they do not match.
func (s *Service) Issue(email, password string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want, ok := s.users[email]
	if !ok || email == "" || password != want {
		return "", false
	}
	key := uuid.NewString() + uuid.NewString()
	s.keys[key] = email
	return key, true
}

// Owner resolves an issued key to its account.
func (s *Service) Owner(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email, ok := s.keys[key]
	return email, ok
}

// Seed stores a pet directly, bypassing the API. It returns the assigned id.
func (s *Service) Seed(owner, name, animalType, age string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertLocked(&Pet{Owner: owner, Name: name, AnimalType: animalType, Age: age})
}

// Pets returns a snapshot of every pet, newest first.
func (s *Service) Pets() []Pet {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Pet, 0, len(s.pets))
	for _, p := range s.pets {
		out = append(out, *p)
	}
	return out
}

func (s *Service) insertLocked(p *Pet) string {
	p.ID = uuid.NewString()
	p.CreatedAt = s.now().UTC()
	s.pets = append([]*Pet{p}, s.pets...)
	return p.ID
}

func (s *Service) list(owner string, mineOnly bool) []Pet {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Pet, 0, len(s.pets))
	for _, p := range s.pets {
		if mineOnly && p.Owner != owner {
			continue
		}
		out = append(out, *p)
	}
	return out
}

func (s *Service) create(p Pet) Pet {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := p
	s.insertLocked(&rec)
	return rec
}

// mutate applies fn to petID when owner owns it.
func (s *Service) mutate(owner, petID string, fn func(*Pet)) (Pet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.pets {
		if p.ID != petID {
			continue
		}
		if p.Owner != owner {
			return Pet{}, errForeignPet
		}
		fn(p)
		return *p, nil
	}
	return Pet{}, errNoPet
}

func (s *Service) remove(owner, petID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.pets {
		if p.ID != petID {
			continue
		}
		if p.Owner != owner {
			return errForeignPet
		}
		s.pets = append(s.pets[:i], s.pets[i+1:]...)
		return nil
	}
	return errNoPet
}

func (p Pet) wire() map[string]any {
	photo := ""
	if len(p.Photo) > 0 {
		photo = fmt.Sprintf("data:%s;base64,%s", p.PhotoType, base64.StdEncoding.EncodeToString(p.Photo))
	}
	return map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"animal_type": p.AnimalType,
		"age":         p.Age,
		"pet_photo":   photo,
		"user_id":     p.Owner,
		"created_at":  fmt.Sprintf("%d.%06d", p.CreatedAt.Unix(), p.CreatedAt.Nanosecond()/1000),
	}
}
