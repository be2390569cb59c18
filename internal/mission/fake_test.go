package mission

import (
	"context"
	"sort"
	"time"

	"github.com/questbase/api/internal/user"
)

type fakeRepo struct {
	missions map[int64]*Mission
	quests   map[int64]*Quest
	users    map[string]user.User
	mentors  map[int64]map[string]bool
	nextID   int64
}

func newFakeRepo(users ...user.User) *fakeRepo {
	f := &fakeRepo{
		missions: map[int64]*Mission{},
		quests:   map[int64]*Quest{},
		users:    map[string]user.User{},
		mentors:  map[int64]map[string]bool{},
	}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeRepo) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeRepo) ListMissions(context.Context) ([]Mission, error) {
	out := []Mission{}
	for _, m := range f.missions {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeRepo) CreateMission(_ context.Context, creatorID string, in Input) (*Mission, error) {
	now := time.Now()
	m := &Mission{ID: f.id(), CreatorID: creatorID, Title: in.Title, Description: in.Description, CreatedAt: now, UpdatedAt: now}
	f.missions[m.ID] = m
	return m, nil
}

func (f *fakeRepo) GetMission(_ context.Context, id int64) (*Mission, error) {
	m, ok := f.missions[id]
	if !ok {
		return nil, ErrMissionNotFound
	}
	return m, nil
}

func (f *fakeRepo) UpdateMission(_ context.Context, id int64, p Patch) (*Mission, error) {
	m, ok := f.missions[id]
	if !ok {
		return nil, ErrMissionNotFound
	}
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	return m, nil
}

func (f *fakeRepo) DeleteMission(_ context.Context, id int64) error {
	if _, ok := f.missions[id]; !ok {
		return ErrMissionNotFound
	}
	delete(f.missions, id)
	for qid, q := range f.quests {
		if q.MissionID == id {
			delete(f.quests, qid)
		}
	}
	delete(f.mentors, id)
	return nil
}

func (f *fakeRepo) ListQuests(_ context.Context, missionID int64) ([]Quest, error) {
	if _, ok := f.missions[missionID]; !ok {
		return nil, ErrMissionNotFound
	}
	out := []Quest{}
	for _, q := range f.quests {
		if q.MissionID == missionID {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRepo) CreateQuest(_ context.Context, missionID int64, creatorID string, in Input) (*Quest, error) {
	if _, ok := f.missions[missionID]; !ok {
		return nil, ErrMissionNotFound
	}
	q := &Quest{ID: f.id(), MissionID: missionID, CreatorID: creatorID, Title: in.Title, Description: in.Description}
	f.quests[q.ID] = q
	return q, nil
}

func (f *fakeRepo) GetQuest(_ context.Context, id int64) (*Quest, error) {
	q, ok := f.quests[id]
	if !ok {
		return nil, ErrQuestNotFound
	}
	return q, nil
}

func (f *fakeRepo) UpdateQuest(_ context.Context, id int64, p Patch) (*Quest, error) {
	q, ok := f.quests[id]
	if !ok {
		return nil, ErrQuestNotFound
	}
	if p.Title != nil {
		q.Title = *p.Title
	}
	if p.Description != nil {
		q.Description = *p.Description
	}
	return q, nil
}

func (f *fakeRepo) DeleteQuest(_ context.Context, id int64) error {
	if _, ok := f.quests[id]; !ok {
		return ErrQuestNotFound
	}
	delete(f.quests, id)
	return nil
}

func (f *fakeRepo) QuestExists(_ context.Context, id int64) (bool, error) {
	_, ok := f.quests[id]
	return ok, nil
}

func (f *fakeRepo) AddMentor(_ context.Context, missionID int64, userID string) error {
	if _, ok := f.missions[missionID]; !ok {
		return ErrMissionNotFound
	}
	if _, ok := f.users[userID]; !ok {
		return ErrMentorNotFound
	}
	if f.mentors[missionID] == nil {
		f.mentors[missionID] = map[string]bool{}
	}
	f.mentors[missionID][userID] = true
	return nil
}

func (f *fakeRepo) RemoveMentor(_ context.Context, missionID int64, userID string) error {
	if !f.mentors[missionID][userID] {
		return ErrMentorNotFound
	}
	delete(f.mentors[missionID], userID)
	return nil
}

func (f *fakeRepo) ListMentors(_ context.Context, missionID int64) ([]user.User, error) {
	if _, ok := f.missions[missionID]; !ok {
		return nil, ErrMissionNotFound
	}
	out := []user.User{}
	for id := range f.mentors[missionID] {
		out = append(out, f.users[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
