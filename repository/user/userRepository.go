package userrepo

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/drstrox/Decentralised-Book-Rental-System/model"
)

var (
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")
	ErrNotFound      = errors.New("user not found")
)

type Repo interface {
	Create(ctx context.Context, u *model.User) error
	ByEmail(ctx context.Context, email string) (*model.User, error)
	ByUsername(ctx context.Context, username string) (*model.User, error)
}

type repo struct {
	mu         sync.RWMutex
	byEmail    map[string]*model.User
	byUsername map[string]*model.User
	nextID     int64
}

func New() Repo {
	return &repo{
		byEmail:    make(map[string]*model.User),
		byUsername: make(map[string]*model.User),
	}
}

func (r *repo) Create(ctx context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, ok := r.byEmail[email]; ok {
		return ErrEmailTaken
	}
	if _, ok := r.byUsername[u.Username]; ok {
		return ErrUsernameTaken
	}

	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now().UTC()

	cp := *u
	r.byEmail[email] = &cp
	r.byUsername[u.Username] = &cp
	return nil
}

func (r *repo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *repo) ByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byUsername[username]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}
