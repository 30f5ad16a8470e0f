package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/drstrox/Decentralised-Book-Rental-System/model"
	userrepo "github.com/drstrox/Decentralised-Book-Rental-System/repository/user"
	"github.com/drstrox/Decentralised-Book-Rental-System/util/hash"
	jwtutil "github.com/drstrox/Decentralised-Book-Rental-System/util/jwt"
)

type ErrCode string

const (
	ErrBadInput      ErrCode = "BAD_INPUT"
	ErrEmailTaken    ErrCode = "EMAIL_TAKEN"
	ErrUsernameTaken ErrCode = "USERNAME_TAKEN"
	ErrInvalidCreds  ErrCode = "INVALID_CREDENTIALS"
)

type codedError struct {
	code ErrCode
	msg  string
}

func (e codedError) Error() string {
	if e.msg != "" {
		return string(e.code) + ": " + e.msg
	}
	return string(e.code)
}
func (e codedError) Code() ErrCode { return e.code }

func wrap(c ErrCode, msg string) error { return codedError{code: c, msg: msg} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Service interface {
	Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error)
	Login(ctx context.Context, req model.LoginReq) (*model.User, string, error)
}

type service struct {
	ur     userrepo.Repo
	secret string
}

func New(ur userrepo.Repo, secret string) Service { return &service{ur: ur, secret: secret} }

func (s *service) Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)
	if email == "" || username == "" || len(req.Password) < 6 {
		return nil, "", wrap(ErrBadInput, "email, username and a 6+ char password are required")
	}

	if existing, err := s.ur.ByEmail(ctx, email); err == nil && existing != nil {
		return nil, "", wrap(ErrEmailTaken, email)
	}

	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	u := &model.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        email,
		Username:     username,
		Role:         "user",
		PasswordHash: hashed,
	}
	if err := s.ur.Create(ctx, u); err != nil {
		switch {
		case errors.Is(err, userrepo.ErrEmailTaken):
			return nil, "", wrap(ErrEmailTaken, email)
		case errors.Is(err, userrepo.ErrUsernameTaken):
			return nil, "", wrap(ErrUsernameTaken, username)
		}
		return nil, "", err
	}

	token, err := jwtutil.Issue(s.secret, u.Username, u.Role, 24)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) Login(ctx context.Context, req model.LoginReq) (*model.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, "", wrap(ErrBadInput, "email and password are required")
	}

	u, err := s.ur.ByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, "", wrap(ErrInvalidCreds, "")
	}
	if !hash.Check(u.PasswordHash, req.Password) {
		return nil, "", wrap(ErrInvalidCreds, "")
	}

	token, err := jwtutil.Issue(s.secret, u.Username, u.Role, 24)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}
