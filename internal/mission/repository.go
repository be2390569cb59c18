// Package mission manages missions, the quests they are composed of, and the
// mentors linked to them.
package mission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/questbase/api/internal/db"
	"github.com/questbase/api/internal/user"
)

// Mission is an ordered learning goal made of quests.
type Mission struct {
	ID          int64     `json:"id"          example:"1"`
	CreatorID   string    `json:"creator_id"  example:"6f1c2a0e-8d4b-4c8e-9a57-0d6c1a2b3c4d"`
	Title       string    `json:"title"       example:"Intro to optics"`
	Description string    `json:"description" example:"Lenses, mirrors and light."`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Quest is a single task inside a mission.
type Quest struct {
	ID          int64     `json:"id"          example:"1"`
	MissionID   int64     `json:"mission_id"  example:"1"`
	CreatorID   string    `json:"creator_id"  example:"6f1c2a0e-8d4b-4c8e-9a57-0d6c1a2b3c4d"`
	Title       string    `json:"title"       example:"Build a pinhole camera"`
	Description string    `json:"description" example:"Photograph the result."`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Input is the body for creating a mission or quest.
type Input struct {
	Title       string `json:"title"       validate:"required,max=200"   example:"Intro to optics"`
	Description string `json:"description" validate:"omitempty,max=10000" example:"Lenses, mirrors and light."`
}

// Patch is the body for updating a mission or quest; nil fields are unchanged.
type Patch struct {
	Title       *string `json:"title,omitempty"       validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=10000"`
}

var (
	// ErrMissionNotFound is returned when a mission does not exist.
	ErrMissionNotFound = errors.New("mission not found")
	// ErrQuestNotFound is returned when a quest does not exist.
	ErrQuestNotFound = errors.New("quest not found")
	// ErrMentorNotFound is returned when a mentor link or its user does not exist.
	ErrMentorNotFound = errors.New("mentor not found")
)

const (
	missionColumns = `id, creator_id, title, description, created_at, updated_at`
	questColumns   = `id, mission_id, creator_id, title, description, created_at, updated_at`
)

// Repository handles mission, quest and mentor persistence.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListMissions returns all missions, newest first.
func (r *Repository) ListMissions(ctx context.Context) ([]Mission, error) {
	rows, err := r.db.Query(ctx, `SELECT `+missionColumns+` FROM missions ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query missions: %w", err)
	}
	defer rows.Close()

	missions := []Mission{}
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mission: %w", err)
		}
		missions = append(missions, *m)
	}
	return missions, rows.Err()
}

// CreateMission inserts a mission owned by creatorID.
func (r *Repository) CreateMission(ctx context.Context, creatorID string, in Input) (*Mission, error) {
	m, err := scanMission(r.db.QueryRow(ctx,
		`INSERT INTO missions (creator_id, title, description)
		 VALUES ($1, $2, $3)
		 RETURNING `+missionColumns,
		creatorID, in.Title, in.Description,
	))
	if err != nil {
		return nil, fmt.Errorf("create mission: %w", err)
	}
	return m, nil
}

// GetMission fetches a mission by id.
func (r *Repository) GetMission(ctx context.Context, id int64) (*Mission, error) {
	m, err := scanMission(r.db.QueryRow(ctx, `SELECT `+missionColumns+` FROM missions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get mission: %w", err)
	}
	return m, nil
}

// UpdateMission applies the non-nil fields of p.
func (r *Repository) UpdateMission(ctx context.Context, id int64, p Patch) (*Mission, error) {
	m, err := scanMission(r.db.QueryRow(ctx,
		`UPDATE missions SET
		     title       = COALESCE($2, title),
		     description = COALESCE($3, description),
		     updated_at  = NOW()
		 WHERE id = $1
		 RETURNING `+missionColumns,
		id, p.Title, p.Description,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update mission: %w", err)
	}
	return m, nil
}

// DeleteMission removes a mission together with its quests and mentor links.
func (r *Repository) DeleteMission(ctx context.Context, id int64) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM missions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete mission: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrMissionNotFound
	}
	return nil
}

// ListQuests returns the quests of a mission in creation order.
func (r *Repository) ListQuests(ctx context.Context, missionID int64) ([]Quest, error) {
	if err := r.requireMission(ctx, missionID); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+questColumns+` FROM quests WHERE mission_id = $1 ORDER BY id`, missionID)
	if err != nil {
		return nil, fmt.Errorf("query quests: %w", err)
	}
	defer rows.Close()

	quests := []Quest{}
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quest: %w", err)
		}
		quests = append(quests, *q)
	}
	return quests, rows.Err()
}

// CreateQuest inserts a quest into a mission. A missing mission yields ErrMissionNotFound.
func (r *Repository) CreateQuest(ctx context.Context, missionID int64, creatorID string, in Input) (*Quest, error) {
	q, err := scanQuest(r.db.QueryRow(ctx,
		`INSERT INTO quests (mission_id, creator_id, title, description)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+questColumns,
		missionID, creatorID, in.Title, in.Description,
	))
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, ErrMissionNotFound
		}
		return nil, fmt.Errorf("create quest: %w", err)
	}
	return q, nil
}

// GetQuest fetches a quest by id.
func (r *Repository) GetQuest(ctx context.Context, id int64) (*Quest, error) {
	q, err := scanQuest(r.db.QueryRow(ctx, `SELECT `+questColumns+` FROM quests WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrQuestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get quest: %w", err)
	}
	return q, nil
}

// UpdateQuest applies the non-nil fields of p.
func (r *Repository) UpdateQuest(ctx context.Context, id int64, p Patch) (*Quest, error) {
	q, err := scanQuest(r.db.QueryRow(ctx,
		`UPDATE quests SET
		     title       = COALESCE($2, title),
		     description = COALESCE($3, description),
		     updated_at  = NOW()
		 WHERE id = $1
		 RETURNING `+questColumns,
		id, p.Title, p.Description,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrQuestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update quest: %w", err)
	}
	return q, nil
}

// DeleteQuest removes a quest.
func (r *Repository) DeleteQuest(ctx context.Context, id int64) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM quests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete quest: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrQuestNotFound
	}
	return nil
}

// QuestExists reports whether a quest with the given id exists.
func (r *Repository) QuestExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM quests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check quest existence: %w", err)
	}
	return exists, nil
}

// AddMentor links a user to a mission. Linking twice is a no-op.
func (r *Repository) AddMentor(ctx context.Context, missionID int64, userID string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO mission_mentors (mission_id, user_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		missionID, userID,
	)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			if err := r.requireMission(ctx, missionID); err != nil {
				return err
			}
			return ErrMentorNotFound
		}
		return fmt.Errorf("add mentor: %w", err)
	}
	return nil
}

// RemoveMentor unlinks a user from a mission.
func (r *Repository) RemoveMentor(ctx context.Context, missionID int64, userID string) error {
	ct, err := r.db.Exec(ctx,
		`DELETE FROM mission_mentors WHERE mission_id = $1 AND user_id = $2`,
		missionID, userID,
	)
	if err != nil {
		return fmt.Errorf("remove mentor: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrMentorNotFound
	}
	return nil
}

// ListMentors returns the users linked to a mission, ordered by name.
func (r *Repository) ListMentors(ctx context.Context, missionID int64) ([]user.User, error) {
	if err := r.requireMission(ctx, missionID); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT u.id, u.email, u.name, u.role, u.bio, u.avatar_url, u.created_at, u.updated_at
		 FROM mission_mentors mm
		 JOIN users u ON u.id = mm.user_id
		 WHERE mm.mission_id = $1
		 ORDER BY u.name, u.id`,
		missionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query mentors: %w", err)
	}
	defer rows.Close()

	mentors := []user.User{}
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Bio, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan mentor: %w", err)
		}
		mentors = append(mentors, u)
	}
	return mentors, rows.Err()
}

func (r *Repository) requireMission(ctx context.Context, id int64) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM missions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check mission existence: %w", err)
	}
	if !exists {
		return ErrMissionNotFound
	}
	return nil
}

func scanMission(row pgx.Row) (*Mission, error) {
	m := &Mission{}
	if err := row.Scan(&m.ID, &m.CreatorID, &m.Title, &m.Description, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return m, nil
}

func scanQuest(row pgx.Row) (*Quest, error) {
	q := &Quest{}
	if err := row.Scan(&q.ID, &q.MissionID, &q.CreatorID, &q.Title, &q.Description, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	return q, nil
}
