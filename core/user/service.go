package user

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")

	errMonitorNotStudent = "only students can be class monitors"
	errMonitorNoCohort   = "a class monitor must belong to a cohort"
	errMonitorTaken      = "this cohort already has a class monitor"
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		// GetUser returns ErrNotFound when no User matches.
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name or User.Email.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUsersByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkUniqueness(email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(context.Background(), email, exclUsers...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// checkMonitor enforces that only students of a cohort can be monitors, and that a cohort has at most one.
func (svc *Service) checkMonitor(ctx context.Context, usr User) error {
	if !usr.IsMonitor {
		return nil
	}
	if !usr.IsStudent() {
		return core.NewValidationError(nil, core.FieldError{Field: "is_monitor", Error: errMonitorNotStudent})
	}
	if usr.CohortID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "is_monitor", Error: errMonitorNoCohort})
	}

	isMonitor := true
	monitors, err := svc.repo.QueryUsers(ctx, &QueryFilter{CohortID: usr.CohortID, IsMonitor: &isMonitor})
	if err != nil {
		return err
	}
	for _, m := range monitors {
		if m.ID != usr.ID {
			return core.NewValidationError(nil, core.FieldError{Field: "is_monitor", Error: errMonitorTaken})
		}
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := core.NowFunc().UTC()
	usr := User{
		ID:        uuid.New().String(),
		Name:      nu.Name,
		Email:     nu.Email,
		IsActive:  true,
		Roles:     nu.Roles,
		CohortID:  nu.CohortID,
		IsMonitor: nu.IsMonitor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := svc.checkMonitor(ctx, usr); err != nil {
		return User{}, err
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering...)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

// Update applies a validated UpdateUser to usr.
func (svc *Service) Update(ctx context.Context, usr User, uu UpdateUser) (User, error) {
	usr = uu.apply(usr)
	if !usr.IsStudent() {
		usr.IsMonitor = false
	}
	if err := svc.checkMonitor(ctx, usr); err != nil {
		return User{}, err
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	usr.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = core.NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteUsersByID(ctx, ids...)
}

// CohortStudents returns the active students of a cohort.
func (svc *Service) CohortStudents(ctx context.Context, cohortID string) ([]User, error) {
	active := true
	return svc.repo.QueryUsers(
		ctx,
		&QueryFilter{CohortID: cohortID, Roles: []string{RoleStudent}, IsActive: &active},
		core.DBOrdering{Field: "name", Ascending: true},
	)
}
