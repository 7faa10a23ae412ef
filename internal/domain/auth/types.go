package auth

// Package auth contains domain-level types for the client session.
// It is pure and free of framework/adapter concerns.

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Storage keys owned by the session store. Nothing else writes them.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// ErrCorruptUser is returned when a persisted user record does not have the expected shape.
var ErrCorruptUser = errors.New("corrupt user record")

// User is the identity payload the shop API returns alongside a token.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsStaff  bool   `json:"is_staff"`
}

// Session is the in-memory authentication state of one client instance.
// An empty Token means no one is logged in; User is nil in that case.
type Session struct {
	Token string
	User  *User
}

// IsAuthenticated reports whether the session carries a bearer token.
func (s Session) IsAuthenticated() bool { return s.Token != "" }

// Clone returns a copy that shares no memory with s.
func (s Session) Clone() Session {
	out := Session{Token: s.Token}
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	return out
}

// EncodeUser serializes a user into its storage form.
func EncodeUser(u User) (string, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return "", fmt.Errorf("marshal user: %w", err)
	}
	return string(data), nil
}

// wireUser mirrors User with pointer fields so missing keys can be told apart from zero values.
type wireUser struct {
	ID       *int64  `json:"id"`
	Username *string `json:"username"`
	Email    *string `json:"email"`
	IsStaff  *bool   `json:"is_staff"`
}

// DecodeUser parses the storage form of a user. All four fields must be present
// with their JSON types; anything else yields ErrCorruptUser.
func DecodeUser(raw string) (User, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()

	var w wireUser
	if err := dec.Decode(&w); err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrCorruptUser, err)
	}
	// Only whitespace may follow the object.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return User{}, fmt.Errorf("%w: trailing data", ErrCorruptUser)
	}
	if w.ID == nil || w.Username == nil || w.Email == nil || w.IsStaff == nil {
		return User{}, fmt.Errorf("%w: missing field", ErrCorruptUser)
	}

	return User{
		ID:       *w.ID,
		Username: *w.Username,
		Email:    *w.Email,
		IsStaff:  *w.IsStaff,
	}, nil
}
