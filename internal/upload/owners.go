package upload

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
)

// ErrOwnerNotFound is returned when the resource owning the uploads does not exist.
var ErrOwnerNotFound = errors.New("upload owner not found")

// Owner is the resource a set of uploads belongs to.
type Owner struct {
	// Namespace prefixes every storage key of the owner, e.g. "quests/1".
	Namespace string
	// WriterID, when set, is the only user allowed to create or delete uploads.
	WriterID string
}

// OwnerResolver finds the owner of uploads for one kind of resource.
type OwnerResolver interface {
	// Resource names the resource kind, e.g. "users".
	Resource() string
	// Resolve returns the owner identified by id or ErrOwnerNotFound.
	Resolve(ctx context.Context, id string) (*Owner, error)
}

type userChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type questChecker interface {
	QuestExists(ctx context.Context, id int64) (bool, error)
}

// AvatarOwners resolves user IDs to their avatar namespace. Only the user may write to it.
func AvatarOwners(users userChecker) OwnerResolver {
	return avatarOwners{users: users}
}

type avatarOwners struct {
	users userChecker
}

func (avatarOwners) Resource() string { return "users" }

// Resolve accepts any uuid spelling and keys the namespace by its canonical form,
// the form session tokens carry.
func (a avatarOwners) Resolve(ctx context.Context, id string) (*Owner, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrOwnerNotFound
	}
	id = parsed.String()

	ok, err := a.users.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOwnerNotFound
	}
	return &Owner{Namespace: "avatars/" + id, WriterID: id}, nil
}

// QuestOwners resolves quest IDs to their asset namespace.
func QuestOwners(quests questChecker) OwnerResolver {
	return questOwners{quests: quests}
}

type questOwners struct {
	quests questChecker
}

func (questOwners) Resource() string { return "quests" }

func (q questOwners) Resolve(ctx context.Context, id string) (*Owner, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return nil, ErrOwnerNotFound
	}
	ok, err := q.quests.QuestExists(ctx, n)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOwnerNotFound
	}
	return &Owner{Namespace: "quests/" + strconv.FormatInt(n, 10)}, nil
}
