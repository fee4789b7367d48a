package repo

import (
	"context"
	"errors"

	"github.com/socialnomad/nomadblog/internal/domain/user"
	"github.com/socialnomad/nomadblog/internal/store"
)

var ErrEmailAlreadyUsed = errors.New("email already exists")

// UsersRepo maps user records onto the users collection. The id field is
// populated here, from the store-assigned document id, and never stored
// inside the document body.
type UsersRepo struct {
	store store.Store
}

func NewUsersRepo(s store.Store) *UsersRepo {
	return &UsersRepo{store: s}
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	doc, err := r.store.Get(ctx, store.UsersCollection, id)

	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return userFromDoc(doc), nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	docs, err := r.store.Query(ctx, store.UsersCollection, "email", email)

	if err != nil {
		return user.User{}, err
	}

	if len(docs) == 0 {
		return user.User{}, user.ErrNotFound
	}

	return userFromDoc(docs[0]), nil
}

// Create inserts a new user after an email pre-check query. The check and
// the insert are two separate store calls, so two concurrent registrations
// for the same email can both pass the check; the store enforces no
// uniqueness constraint of its own.
func (r *UsersRepo) Create(ctx context.Context, username, email, passwordHash, role string) (user.User, error) {
	existing, err := r.store.Query(ctx, store.UsersCollection, "email", email)

	if err != nil {
		return user.User{}, err
	}

	if len(existing) > 0 {
		return user.User{}, ErrEmailAlreadyUsed
	}

	u := user.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}

	id, err := r.store.Add(ctx, store.UsersCollection, userBody(u))

	if err != nil {
		return user.User{}, err
	}

	u.ID = id

	return u, nil
}

func userFromDoc(doc store.Doc) user.User {
	return user.User{
		ID:           doc.ID,
		Username:     asString(doc.Body["username"]),
		Email:        asString(doc.Body["email"]),
		PasswordHash: asString(doc.Body["password"]),
		Role:         asString(doc.Body["role"]),
	}
}

func userBody(u user.User) map[string]any {
	return map[string]any{
		"username": u.Username,
		"email":    u.Email,
		"password": u.PasswordHash,
		"role":     u.Role,
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
