package service

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"tideland.dev/go/slices"

	"github.com/brito101/medicaodigitalx/storage/model"
)

const resourceSchedule = "reading schedule"

// ScheduleTimeLayout is the layout of ScheduleInput.Start and End
const ScheduleTimeLayout = "2006-01-02T15:04"

// ScheduleInput is the submitted form of a reading schedule.
type ScheduleInput struct {
	Title  string `json:"title" form:"title"`
	Start  string `json:"start" form:"start"`
	End    string `json:"end" form:"end"`
	Color  string `json:"color" form:"color"`
	Guests []uint `json:"guests" form:"guests"`
}

func parseScheduleTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse(ScheduleTimeLayout, v)
}

func (in ScheduleInput) validate() (start, end time.Time, err error) {
	fields := map[string]string{}
	if strings.TrimSpace(in.Title) == "" {
		fields["title"] = "must not be empty"
	}
	start, serr := parseScheduleTime(in.Start)
	if serr != nil {
		fields["start"] = "must be a date and time"
	}
	end, eerr := parseScheduleTime(in.End)
	if eerr != nil {
		fields["end"] = "must be a date and time"
	}
	if serr == nil && eerr == nil && !end.After(start) {
		fields["end"] = "must be after start"
	}
	if len(fields) > 0 {
		err = InvalidInputError{Fields: fields}
	}
	return
}

// GuestView is one guest as shown on the schedule page.
type GuestView struct {
	UserID     uint   `json:"user_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Visualized bool   `json:"visualized"`
	Executed   bool   `json:"executed"`
}

// ScheduleView is a schedule as shown on its page.
type ScheduleView struct {
	Schedule  *model.ReadingSchedule `json:"schedule"`
	Creator   string                 `json:"creator"`
	Guests    []GuestView            `json:"guests"`
	CanManage bool                   `json:"can_manage"`
}

// GuestCandidate is a user that can be invited to a schedule.
type GuestCandidate struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ScheduleService mediates access to reading schedules. Changing and
// deleting a schedule is reserved to its owner.
type ScheduleService struct {
	schedules model.ReadingSchedulesStore
	users     model.UsersStore
	opts      Options
}

// NewScheduleService creates a ScheduleService over the passed backends
func NewScheduleService(backends model.Backends, opts Options) *ScheduleService {
	return &ScheduleService{
		schedules: backends.Schedules,
		users:     backends.Users,
		opts:      opts.withDefaults(),
	}
}

func (s *ScheduleService) authorize(ctx context.Context, actor Actor, c model.Capability) error {
	if !s.opts.Authorizer.Allowed(ctx, actor, c) {
		return UnauthorizedError{Capability: c}
	}
	return nil
}

// List returns the schedules the actor owns or is invited to; actors with
// schedules.list_all see every schedule
func (s *ScheduleService) List(ctx context.Context, actor Actor, q model.ListQuery) (
	*model.ListResult[model.ReadingSchedule], error,
) {
	if err := s.authorize(ctx, actor, model.CapSchedulesList); err != nil {
		return nil, err
	}
	q.ParticipantID = actor.ID
	if s.opts.Authorizer.Allowed(ctx, actor, model.CapSchedulesListAll) {
		q.ParticipantID = 0
	}
	res, err := s.schedules.List(ctx, q)
	if err != nil {
		return nil, PersistenceError{
			Op:  "list reading schedules",
			Err: err,
		}
	}
	return &res, nil
}

// CreateForm returns the users that can be invited
func (s *ScheduleService) CreateForm(ctx context.Context, actor Actor) ([]GuestCandidate, error) {
	if err := s.authorize(ctx, actor, model.CapSchedulesCreate); err != nil {
		return nil, err
	}
	return s.candidates(actor)
}

func (s *ScheduleService) candidates(actor Actor) ([]GuestCandidate, error) {
	users, err := s.users.List()
	if err != nil {
		return nil, PersistenceError{
			Op:  "list users",
			Err: err,
		}
	}
	out := make([]GuestCandidate, 0, len(users))
	for _, u := range users {
		if u.ID == actor.ID || u.Disabled {
			continue
		}
		out = append(
			out, GuestCandidate{
				ID:    u.ID,
				Name:  u.Name(),
				Email: u.Email,
			},
		)
	}
	return out, nil
}

// checkGuests dedupes guests and fails unless each of them is one of the
// actor's guest candidates
func (s *ScheduleService) checkGuests(actor Actor, guests []uint) ([]uint, error) {
	guests = slices.Unique(guests)
	missing, err := s.users.Missing(guests)
	if err != nil {
		return nil, PersistenceError{
			Op:  "look up guests",
			Err: err,
		}
	}
	if len(missing) > 0 {
		return nil, InvalidReferenceError{
			Field: "guests",
			IDs:   missing,
		}
	}
	candidates, err := s.candidates(actor)
	if err != nil {
		return nil, err
	}
	eligible := make(map[uint]bool, len(candidates))
	for _, c := range candidates {
		eligible[c.ID] = true
	}
	var excluded []uint
	for _, g := range guests {
		if !eligible[g] {
			excluded = append(excluded, g)
		}
	}
	if len(excluded) > 0 {
		return nil, InvalidReferenceError{
			Field: "guests",
			IDs:   excluded,
		}
	}
	return guests, nil
}

// Create stores a new schedule owned by the actor
func (s *ScheduleService) Create(ctx context.Context, actor Actor, in ScheduleInput) (*model.ReadingSchedule, error) {
	if err := s.authorize(ctx, actor, model.CapSchedulesCreate); err != nil {
		return nil, err
	}
	start, end, err := in.validate()
	if err != nil {
		return nil, err
	}
	guests, err := s.checkGuests(actor, in.Guests)
	if err != nil {
		return nil, err
	}
	schedule := &model.ReadingSchedule{
		Title:  strings.TrimSpace(in.Title),
		Start:  start,
		End:    end,
		Color:  in.Color,
		UserID: actor.ID,
	}
	if err = s.schedules.Create(ctx, schedule, guests); err != nil {
		log.WithError(err).WithField("actor", actor.Username).Error("failed to create reading schedule")
		return nil, PersistenceError{
			Op:  "create reading schedule",
			Err: err,
		}
	}
	log.WithFields(
		log.Fields{
			"actor":  actor.Username,
			"id":     schedule.ID,
			"guests": len(guests),
		},
	).Info("created reading schedule")
	return schedule, nil
}

// Show returns the schedule with its guests. Like List, it is limited to
// the owner and the guests unless the actor holds schedules.list_all.
func (s *ScheduleService) Show(ctx context.Context, actor Actor, id uint) (*ScheduleView, error) {
	if err := s.authorize(ctx, actor, model.CapSchedulesList); err != nil {
		return nil, err
	}
	schedule, err := s.schedules.Get(ctx, id)
	if err != nil {
		return nil, translate(err, "load reading schedule", resourceSchedule, id)
	}
	if !s.opts.Authorizer.Allowed(ctx, actor, model.CapSchedulesListAll) && !participates(actor, schedule) {
		return nil, UnauthorizedError{Reason: "only the creator and the guests may view a reading schedule"}
	}
	view := &ScheduleView{
		Schedule:  schedule,
		Guests:    make([]GuestView, 0, len(schedule.Guests)),
		CanManage: actor.ID == schedule.UserID,
	}
	if schedule.User != nil {
		view.Creator = schedule.User.Name()
	}
	for _, g := range schedule.Guests {
		gv := GuestView{
			UserID:     g.UserID,
			Visualized: g.Visualized,
			Executed:   g.Executed,
		}
		if g.User != nil {
			gv.Name = g.User.Name()
			gv.Email = g.User.Email
		}
		view.Guests = append(view.Guests, gv)
	}
	return view, nil
}

func participates(actor Actor, schedule *model.ReadingSchedule) bool {
	if schedule.UserID == actor.ID {
		return true
	}
	for _, g := range schedule.Guests {
		if g.UserID == actor.ID {
			return true
		}
	}
	return false
}

// owned loads the schedule and fails unless the actor owns it
func (s *ScheduleService) owned(ctx context.Context, actor Actor, id uint) (*model.ReadingSchedule, error) {
	schedule, err := s.schedules.Get(ctx, id)
	if err != nil {
		return nil, translate(err, "load reading schedule", resourceSchedule, id)
	}
	if schedule.UserID != actor.ID {
		return nil, UnauthorizedError{Reason: "only the creator may change a reading schedule"}
	}
	return schedule, nil
}

// ScheduleEditView is everything the schedule edit page shows.
type ScheduleEditView struct {
	Schedule   *model.ReadingSchedule `json:"schedule"`
	Candidates []GuestCandidate       `json:"candidates"`
}

// Edit returns the schedule and the guest candidates to its owner
func (s *ScheduleService) Edit(ctx context.Context, actor Actor, id uint) (*ScheduleEditView, error) {
	schedule, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	candidates, err := s.candidates(actor)
	if err != nil {
		return nil, err
	}
	return &ScheduleEditView{
		Schedule:   schedule,
		Candidates: candidates,
	}, nil
}

// Update overwrites the schedule and its guest set
func (s *ScheduleService) Update(ctx context.Context, actor Actor, id uint, in ScheduleInput) (
	*model.ReadingSchedule, error,
) {
	schedule, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	start, end, err := in.validate()
	if err != nil {
		return nil, err
	}
	guests, err := s.checkGuests(actor, in.Guests)
	if err != nil {
		return nil, err
	}
	schedule.Title = strings.TrimSpace(in.Title)
	schedule.Start = start
	schedule.End = end
	schedule.Color = in.Color
	if err = s.schedules.Update(ctx, schedule, guests); err != nil {
		return nil, translate(err, "update reading schedule", resourceSchedule, id)
	}
	log.WithFields(
		log.Fields{
			"actor": actor.Username,
			"id":    id,
		},
	).Info("updated reading schedule")
	return schedule, nil
}

// Destroy deletes the schedule and its guests
func (s *ScheduleService) Destroy(ctx context.Context, actor Actor, id uint) (*model.DeleteResult, error) {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return nil, err
	}
	removed, err := s.schedules.Delete(ctx, id, s.opts.Cascade)
	if err != nil {
		return nil, translate(err, "delete reading schedule", resourceSchedule, id)
	}
	log.WithFields(
		log.Fields{
			"actor": actor.Username,
			"id":    id,
		},
	).Info("deleted reading schedule")
	return &removed, nil
}

// Acknowledge marks the schedule as seen by the acting guest
func (s *ScheduleService) Acknowledge(ctx context.Context, actor Actor, id uint) (*model.ScheduleGuest, error) {
	yes := true
	return s.setFlags(ctx, actor, id, model.GuestFlags{Visualized: &yes})
}

// Execute marks the schedule as carried out by the acting guest; this also
// marks it as seen
func (s *ScheduleService) Execute(ctx context.Context, actor Actor, id uint) (*model.ScheduleGuest, error) {
	yes := true
	return s.setFlags(
		ctx, actor, id, model.GuestFlags{
			Visualized: &yes,
			Executed:   &yes,
		},
	)
}

func (s *ScheduleService) setFlags(ctx context.Context, actor Actor, id uint, flags model.GuestFlags) (
	*model.ScheduleGuest, error,
) {
	if _, err := s.schedules.Get(ctx, id); err != nil {
		return nil, translate(err, "load reading schedule", resourceSchedule, id)
	}
	guest, err := s.schedules.SetGuestFlags(ctx, id, actor.ID, flags)
	if err != nil {
		var notGuest model.NotFoundError
		if errors.As(err, &notGuest) {
			return nil, UnauthorizedError{Reason: "only guests may acknowledge or execute a reading schedule"}
		}
		return nil, PersistenceError{
			Op:  "update guest",
			Err: err,
		}
	}
	log.WithFields(
		log.Fields{
			"actor":      actor.Username,
			"id":         id,
			"visualized": guest.Visualized,
			"executed":   guest.Executed,
		},
	).Info("updated reading schedule guest")
	return guest, nil
}
