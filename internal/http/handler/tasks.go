package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"taskpilot/internal/auth"
	"taskpilot/internal/notify"
	"taskpilot/internal/reminder"
	"taskpilot/internal/task"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type TaskHandler struct {
	Svc       *task.Service
	DB        *gorm.DB
	Scheduler *reminder.Scheduler
	Email     *notify.SMTPSender
	WhatsApp  *notify.TwilioClient
	Log       zerolog.Logger
}

type createTaskReq struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Deadline    string   `json:"deadline"`
	Priority    string   `json:"priority"`
	Category    string   `json:"category"`
	Subtasks    []string `json:"subtasks"`
	AIGenerated bool     `json:"ai_generated"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createTaskReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	deadline, err := task.ParseDeadline(req.Deadline)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deadline")
		return
	}

	t, err := h.Svc.Create(r.Context(), uid, task.CreateInput{
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Deadline:    deadline,
		Priority:    req.Priority,
		Category:    req.Category,
		Subtasks:    req.Subtasks,
		AIGenerated: req.AIGenerated,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	user := h.user(uid)
	h.scheduleReminder(t, user)
	h.notifyCreated(t, user)

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "task created successfully",
		"task":    t,
	})
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	f := task.Filters{
		Status:   r.URL.Query().Get("status"),
		Priority: r.URL.Query().Get("priority"),
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
	}
	tasks, err := h.Svc.List(r.Context(), uid, f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get tasks")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tasks": tasks,
		"count": len(tasks),
	})
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	t, err := h.Svc.Get(r.Context(), uid, id)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"task": t})
}

type updateTaskReq struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Deadline    *json.RawMessage `json:"deadline"`
	Priority    *string          `json:"priority"`
	Category    *string          `json:"category"`
	Status      *string          `json:"status"`
	Subtasks    *[]string        `json:"subtasks"`
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var req updateTaskReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.Status != nil && !task.ValidStatus(*req.Status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	in := task.UpdateInput{
		Title:       trimmed(req.Title),
		Description: trimmed(req.Description),
		Priority:    req.Priority,
		Category:    req.Category,
		Status:      req.Status,
	}

	// "deadline": null clears the deadline; absent leaves it untouched.
	if req.Deadline != nil {
		in.DeadlineSet = true
		var s *string
		if err := json.Unmarshal(*req.Deadline, &s); err != nil {
			writeError(w, http.StatusBadRequest, "invalid deadline")
			return
		}
		if s != nil {
			d, err := task.ParseDeadline(*s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid deadline")
				return
			}
			in.Deadline = d
		}
	}
	if req.Subtasks != nil {
		in.SubtasksSet = true
		in.Subtasks = *req.Subtasks
	}

	t, err := h.Svc.Update(r.Context(), uid, id, in)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update task")
		return
	}

	// Reminder contract: any deadline mutation re-schedules unconditionally
	// (replace semantics make redundant calls safe); completion or a cleared
	// deadline cancels.
	switch {
	case t.Status == task.StatusCompleted:
		h.Scheduler.Cancel(t.ID)
	case in.DeadlineSet && t.Deadline == nil:
		h.Scheduler.Cancel(t.ID)
	case in.DeadlineSet:
		h.scheduleReminder(t, h.user(uid))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "task updated successfully",
		"task":    t,
	})
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if err := h.Svc.Delete(r.Context(), uid, id); err != nil {
		if errors.Is(err, task.ErrNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}
	h.Scheduler.Cancel(id)

	writeJSON(w, http.StatusOK, map[string]any{"message": "task deleted successfully"})
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	st, err := h.Svc.Stats(r.Context(), uid, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *TaskHandler) user(uid uint64) *auth.User {
	var u auth.User
	if err := h.DB.First(&u, uid).Error; err != nil {
		h.Log.Warn().Uint64("user_id", uid).Err(err).Msg("user lookup failed")
		return nil
	}
	return &u
}

func (h *TaskHandler) scheduleReminder(t *task.Task, u *auth.User) {
	req := reminder.ScheduleRequest{
		TaskID:   t.ID,
		Title:    t.Title,
		Deadline: t.Deadline,
	}
	if u != nil {
		req.Email = u.Email
		req.WhatsApp = u.WhatsAppNumber
	}
	h.Scheduler.Schedule(req)
}

// notifyCreated sends the "task created" email/WhatsApp confirmations.
// Best effort, off the request path, each channel independent.
func (h *TaskHandler) notifyCreated(t *task.Task, u *auth.User) {
	if u == nil {
		return
	}

	due := "No deadline"
	if t.Deadline != nil {
		due = t.Deadline.Format(reminder.DeadlineFormat)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if u.Email != "" && h.Email != nil {
			subject := fmt.Sprintf("New Task Created: %s", t.Title)
			body := fmt.Sprintf(
				"Your task has been created.\n\nTitle: %s\nDescription: %s\nPriority: %s\nCategory: %s\nDeadline: %s\n",
				t.Title, t.Description, t.Priority, t.Category, due,
			)
			if err := h.Email.Send(ctx, u.Email, subject, body); err != nil {
				h.Log.Warn().Err(err).Uint64("task_id", t.ID).Msg("task created email failed")
			}
		}

		if u.WhatsAppNumber != "" && h.WhatsApp != nil {
			msg := fmt.Sprintf(
				"✅ *New Task Created!*\n\n*Title:* %s\n*Category:* %s\n*Priority:* %s\n*Deadline:* %s\n\n🧠 I'll remind you before the deadline!",
				t.Title, capitalize(t.Category), capitalize(t.Priority), due,
			)
			if _, err := h.WhatsApp.Send(ctx, u.WhatsAppNumber, msg); err != nil {
				h.Log.Warn().Err(err).Uint64("task_id", t.ID).Msg("task created whatsapp failed")
			}
		}
	}()
}

func taskID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return 0, false
	}
	return id, true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
