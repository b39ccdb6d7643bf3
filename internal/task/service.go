package task

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("task not found")

type Service struct {
	DB *gorm.DB
}

type Filters struct {
	Status   string
	Priority string
	Category string
	Search   string
}

type CreateInput struct {
	Title       string
	Description string
	Deadline    *time.Time
	Priority    string
	Category    string
	Subtasks    []string
	AIGenerated bool
}

// UpdateInput uses pointers for plain field updates; Deadline and Subtasks
// carry an explicit Set flag so "field absent" and "field cleared" stay
// distinguishable.
type UpdateInput struct {
	Title       *string
	Description *string
	Priority    *string
	Category    *string
	Status      *string

	Deadline    *time.Time
	DeadlineSet bool

	Subtasks    []string
	SubtasksSet bool
}

func (s *Service) Create(ctx context.Context, userID uint64, in CreateInput) (*Task, error) {
	t := Task{
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Deadline:    in.Deadline,
		Priority:    normalize(in.Priority, PriorityMedium),
		Category:    normalize(in.Category, "general"),
		Status:      StatusPending,
		Subtasks:    pq.StringArray(in.Subtasks),
		AIGenerated: in.AIGenerated,
	}
	if t.Subtasks == nil {
		t.Subtasks = pq.StringArray{}
	}
	if err := s.DB.WithContext(ctx).Create(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Service) Get(ctx context.Context, userID, id uint64) (*Task, error) {
	var t Task
	err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// List returns the user's tasks: incomplete before completed, nearest
// deadline first (no deadline last), then newest first.
func (s *Service) List(ctx context.Context, userID uint64, f Filters) ([]Task, error) {
	q := s.DB.WithContext(ctx).Model(&Task{}).Where("user_id = ?", userID)

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("(title ILIKE ? OR description ILIKE ?)", like, like)
	}

	var out []Task
	err := q.Order("(status = 'completed') asc").
		Order("deadline asc nulls last").
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

func (s *Service) Update(ctx context.Context, userID, id uint64, in UpdateInput) (*Task, error) {
	t, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Priority != nil {
		t.Priority = normalize(*in.Priority, t.Priority)
	}
	if in.Category != nil {
		t.Category = normalize(*in.Category, t.Category)
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.DeadlineSet {
		t.Deadline = in.Deadline
	}
	if in.SubtasksSet {
		t.Subtasks = pq.StringArray(in.Subtasks)
		if t.Subtasks == nil {
			t.Subtasks = pq.StringArray{}
		}
	}
	t.UpdatedAt = time.Now()

	if err := s.DB.WithContext(ctx).Save(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, userID, id uint64) error {
	res := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&Task{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type Stats struct {
	TotalTasks      int64 `json:"total_tasks"`
	CompletedTasks  int64 `json:"completed_tasks"`
	PendingTasks    int64 `json:"pending_tasks"`
	InProgressTasks int64 `json:"in_progress_tasks"`
	UrgentTasks     int64 `json:"urgent_tasks"`
	HighPriority    int64 `json:"high_priority_tasks"`
	OverdueTasks    int64 `json:"overdue_tasks"`
}

func (s *Service) Stats(ctx context.Context, userID uint64, now time.Time) (Stats, error) {
	var st Stats
	err := s.DB.WithContext(ctx).Raw(`
select
  count(*)                                                                    as total_tasks,
  count(*) filter (where status = 'completed')                                as completed_tasks,
  count(*) filter (where status = 'pending')                                  as pending_tasks,
  count(*) filter (where status = 'in_progress')                              as in_progress_tasks,
  count(*) filter (where priority = 'urgent')                                 as urgent_tasks,
  count(*) filter (where priority = 'high')                                   as high_priority,
  count(*) filter (where deadline is not null
                     and deadline < ?
                     and status <> 'completed')                               as overdue_tasks
from tasks
where user_id = ?
`, now, userID).Scan(&st).Error
	return st, err
}

// Remindable is one row of the rehydrate/sweep query: a task that still
// deserves a reminder, joined with its owner's contact details.
type Remindable struct {
	TaskID         uint64     `gorm:"column:task_id"`
	Title          string     `gorm:"column:title"`
	Deadline       *time.Time `gorm:"column:deadline"`
	Email          string     `gorm:"column:email"`
	WhatsAppNumber string     `gorm:"column:whatsapp_number"`
}

// ListRemindable returns non-completed tasks whose deadline is after cutoff.
// Callers pass cutoff = now + reminder lead so tasks already inside the
// reminder window are not re-offered every sweep.
func (s *Service) ListRemindable(ctx context.Context, cutoff time.Time) ([]Remindable, error) {
	var out []Remindable
	err := s.DB.WithContext(ctx).Raw(`
select t.id as task_id, t.title, t.deadline, u.email, u.whatsapp_number
from tasks t
join users u on u.id = t.user_id
where t.status <> 'completed'
  and t.deadline is not null
  and t.deadline > ?
order by t.deadline asc
`, cutoff).Scan(&out).Error
	return out, err
}

func normalize(v, def string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return def
	}
	return v
}
