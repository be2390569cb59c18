package mission

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/questbase/api/internal/user"
)

type repository interface {
	ListMissions(ctx context.Context) ([]Mission, error)
	CreateMission(ctx context.Context, creatorID string, in Input) (*Mission, error)
	GetMission(ctx context.Context, id int64) (*Mission, error)
	UpdateMission(ctx context.Context, id int64, p Patch) (*Mission, error)
	DeleteMission(ctx context.Context, id int64) error

	ListQuests(ctx context.Context, missionID int64) ([]Quest, error)
	CreateQuest(ctx context.Context, missionID int64, creatorID string, in Input) (*Quest, error)
	GetQuest(ctx context.Context, id int64) (*Quest, error)
	UpdateQuest(ctx context.Context, id int64, p Patch) (*Quest, error)
	DeleteQuest(ctx context.Context, id int64) error
	QuestExists(ctx context.Context, id int64) (bool, error)

	AddMentor(ctx context.Context, missionID int64, userID string) error
	RemoveMentor(ctx context.Context, missionID int64, userID string) error
	ListMentors(ctx context.Context, missionID int64) ([]user.User, error)
}

var _ repository = (*Repository)(nil)

// Service contains business logic for missions, quests and mentors.
type Service struct {
	repo repository
}

// NewService creates a new mission Service.
func NewService(repo repository) *Service {
	return &Service{repo: repo}
}

// ListMissions returns all missions, newest first.
func (s *Service) ListMissions(ctx context.Context) ([]Mission, error) {
	return s.repo.ListMissions(ctx)
}

// CreateMission stores a mission owned by creatorID.
func (s *Service) CreateMission(ctx context.Context, creatorID string, in Input) (*Mission, error) {
	return s.repo.CreateMission(ctx, creatorID, trimInput(in))
}

// GetMission returns a mission by id.
func (s *Service) GetMission(ctx context.Context, id int64) (*Mission, error) {
	return s.repo.GetMission(ctx, id)
}

// UpdateMission applies the non-nil fields of p to a mission.
func (s *Service) UpdateMission(ctx context.Context, id int64, p Patch) (*Mission, error) {
	return s.repo.UpdateMission(ctx, id, trimPatch(p))
}

// DeleteMission removes a mission together with its quests and mentor links.
func (s *Service) DeleteMission(ctx context.Context, id int64) error {
	return s.repo.DeleteMission(ctx, id)
}

// ListQuests returns the quests of a mission.
func (s *Service) ListQuests(ctx context.Context, missionID int64) ([]Quest, error) {
	return s.repo.ListQuests(ctx, missionID)
}

// CreateQuest adds a quest to a mission.
func (s *Service) CreateQuest(ctx context.Context, missionID int64, creatorID string, in Input) (*Quest, error) {
	return s.repo.CreateQuest(ctx, missionID, creatorID, trimInput(in))
}

// GetQuest returns a quest by id.
func (s *Service) GetQuest(ctx context.Context, id int64) (*Quest, error) {
	return s.repo.GetQuest(ctx, id)
}

// UpdateQuest applies the non-nil fields of p to a quest.
func (s *Service) UpdateQuest(ctx context.Context, id int64, p Patch) (*Quest, error) {
	return s.repo.UpdateQuest(ctx, id, trimPatch(p))
}

// DeleteQuest removes a quest.
func (s *Service) DeleteQuest(ctx context.Context, id int64) error {
	return s.repo.DeleteQuest(ctx, id)
}

// QuestExists reports whether the quest exists.
func (s *Service) QuestExists(ctx context.Context, id int64) (bool, error) {
	return s.repo.QuestExists(ctx, id)
}

// AddMentor links userID to the mission. Malformed user IDs are ErrMentorNotFound.
func (s *Service) AddMentor(ctx context.Context, missionID int64, userID string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return ErrMentorNotFound
	}
	return s.repo.AddMentor(ctx, missionID, userID)
}

// RemoveMentor unlinks userID from the mission.
func (s *Service) RemoveMentor(ctx context.Context, missionID int64, userID string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return ErrMentorNotFound
	}
	return s.repo.RemoveMentor(ctx, missionID, userID)
}

// ListMentors returns the users linked to a mission as mentors.
func (s *Service) ListMentors(ctx context.Context, missionID int64) ([]user.User, error) {
	return s.repo.ListMentors(ctx, missionID)
}

func trimInput(in Input) Input {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	return in
}

func trimPatch(p Patch) Patch {
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		p.Title = &t
	}
	if p.Description != nil {
		d := strings.TrimSpace(*p.Description)
		p.Description = &d
	}
	return p
}
