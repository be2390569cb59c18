package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type fakeRepo struct {
	byID map[string]*User
	err  error
}

func newFakeRepo(users ...*User) *fakeRepo {
	f := &fakeRepo{byID: map[string]*User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeRepo) Create(_ context.Context, email, passwordHash, name, role string) (*User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if u.Email == email {
			return nil, ErrAlreadyExists
		}
	}
	now := time.Now()
	u := &User{ID: uuid.NewString(), Email: email, PasswordHash: passwordHash, Name: name, Role: role, CreatedAt: now, UpdatedAt: now}
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (f *fakeRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) UpdateProfile(_ context.Context, id string, p Profile) (*User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Bio != nil {
		u.Bio = p.Bio
	}
	if p.AvatarURL != nil {
		u.AvatarURL = p.AvatarURL
	}
	return u, nil
}

func (f *fakeRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := f.byID[id]
	return ok, f.err
}
