package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"pod-service/internal/models"
)

var ErrPodNotFound = errors.New("pod not found")

// PodRepository abstracts pod persistence.
type PodRepository interface {
	GetPod(ctx context.Context, podID string) (models.Pod, error)
	IsMember(ctx context.Context, podID string, userID string) (bool, error)
	ListPodsForUser(ctx context.Context, userID string) ([]models.Pod, error)
	ListCandidatePods(ctx context.Context, userID string, limit int) ([]models.Pod, error)
}

// PodRepo is a sqlx implementation of PodRepository.
type PodRepo struct {
	db *sqlx.DB
}

// NewPodRepo constructs a PodRepo.
func NewPodRepo(db *sqlx.DB) *PodRepo {
	return &PodRepo{db: db}
}

type podRow struct {
	models.Pod
	GoalsArr        pq.StringArray `db:"goals"`
	AvailabilityArr pq.StringArray `db:"availability"`
}

func (r podRow) toModel() models.Pod {
	pod := r.Pod
	pod.Goals = []string(r.GoalsArr)
	pod.Availability = []string(r.AvailabilityArr)
	return pod
}

func toPods(rows []podRow) []models.Pod {
	pods := make([]models.Pod, 0, len(rows))
	for _, row := range rows {
		pods = append(pods, row.toModel())
	}
	return pods
}

const podSelect = `SELECT p.id, p.name, p.subject, p.description, p.pace, p.goals, p.availability,
        p.max_members, p.owner_id, p.created_at,
        (SELECT COUNT(*) FROM pod_members m WHERE m.pod_id = p.id) AS member_count
        FROM pods p`

// GetPod fetches a single pod.
func (r *PodRepo) GetPod(ctx context.Context, podID string) (models.Pod, error) {
	var row podRow
	err := r.db.GetContext(ctx, &row, podSelect+` WHERE p.id=$1`, podID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Pod{}, ErrPodNotFound
	}
	if err != nil {
		return models.Pod{}, err
	}
	return row.toModel(), nil
}

// IsMember checks membership. Unknown pods yield ErrPodNotFound.
func (r *PodRepo) IsMember(ctx context.Context, podID string, userID string) (bool, error) {
	var row struct {
		PodExists bool `db:"pod_exists"`
		Member    bool `db:"member"`
	}
	err := r.db.GetContext(ctx, &row, `SELECT EXISTS(SELECT 1 FROM pods WHERE id=$1) AS pod_exists,
        EXISTS(SELECT 1 FROM pod_members WHERE pod_id=$1 AND user_id=$2) AS member`, podID, userID)
	if err != nil {
		return false, err
	}
	if !row.PodExists {
		return false, ErrPodNotFound
	}
	return row.Member, nil
}

// ListPodsForUser returns pods that include the user.
func (r *PodRepo) ListPodsForUser(ctx context.Context, userID string) ([]models.Pod, error) {
	var rows []podRow
	err := r.db.SelectContext(ctx, &rows, podSelect+` INNER JOIN pod_members pm ON pm.pod_id = p.id WHERE pm.user_id=$1 ORDER BY p.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return toPods(rows), nil
}

// ListCandidatePods returns open pods the user has not joined.
func (r *PodRepo) ListCandidatePods(ctx context.Context, userID string, limit int) ([]models.Pod, error) {
	var rows []podRow
	err := r.db.SelectContext(ctx, &rows, `SELECT * FROM (`+podSelect+`
        WHERE NOT EXISTS(SELECT 1 FROM pod_members pm WHERE pm.pod_id = p.id AND pm.user_id=$1)) c
        WHERE c.member_count < c.max_members
        ORDER BY c.created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	return toPods(rows), nil
}
