package monitor

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/cohort"
	"github.com/trezcool/darasa/core/user"
)

// Stage of a write authorization.
//
//	Unauthenticated -> Authenticated -> AuthorizedMonitor
//	                                 -> Rejected
type Stage int

const (
	StageUnauthenticated Stage = iota
	StageAuthenticated
	StageAuthorizedMonitor
	StageRejected
)

func (s Stage) String() string {
	switch s {
	case StageUnauthenticated:
		return "unauthenticated"
	case StageAuthenticated:
		return "authenticated"
	case StageAuthorizedMonitor:
		return "authorized_monitor"
	case StageRejected:
		return "rejected"
	}
	return "unknown"
}

// rejection reasons
var (
	ReasonUnauthenticated = "authentication required"
	ReasonInactive        = "account deactivated"
	ReasonNotStudent      = "only students can act as class monitor"
	ReasonNotMonitor      = "only the class monitor can record attendance or assign duty"
	ReasonNoCohort        = "you are not assigned to any cohort"
	ReasonForeignCourse   = "this course does not belong to your cohort"
)

// Authorization is the outcome of the gate for one request. It grants nothing unless Stage is StageAuthorizedMonitor.
type Authorization struct {
	Stage    Stage
	UserID   string
	CohortID string // set once authorized
	Reason   string // set once rejected
}

func (a Authorization) Authorized() bool {
	return a.Stage == StageAuthorizedMonitor
}

// Err returns a *core.PermissionError unless authorized.
func (a Authorization) Err() error {
	if a.Authorized() {
		return nil
	}
	reason := a.Reason
	if reason == "" {
		reason = ReasonUnauthenticated
	}
	return core.NewPermissionError(reason)
}

func (a Authorization) reject(reason string) Authorization {
	return Authorization{Stage: StageRejected, UserID: a.UserID, Reason: reason}
}

// ForCourse narrows the authorization to a course: it is rejected unless the course belongs to the monitor's cohort.
func (a Authorization) ForCourse(course cohort.Course) Authorization {
	if !a.Authorized() {
		return a
	}
	if course.CohortID != a.CohortID {
		return a.reject(ReasonForeignCourse)
	}
	return a
}

// Identity is the part of the user service the gate relies on.
type Identity interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// Gate decides whether a user may write attendance & duty records, and for which cohort.
type Gate struct {
	identity Identity
}

func NewGate(identity Identity) *Gate {
	return &Gate{identity: identity}
}

// Authorize runs userID through the gate. The returned error is only set on lookup failures;
// rejections are reported through the Authorization.
func (g *Gate) Authorize(ctx context.Context, userID string) (Authorization, error) {
	auth := Authorization{Stage: StageUnauthenticated}
	userID = core.CleanString(userID)
	if userID == "" {
		return auth.reject(ReasonUnauthenticated), nil
	}

	usr, err := g.identity.GetByID(ctx, userID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return auth.reject(ReasonUnauthenticated), nil
		}
		return auth, errors.Wrap(err, "finding user by ID")
	}
	return Promote(usr), nil
}

// Promote moves an authenticated user to AuthorizedMonitor when they are an active student monitor of a cohort,
// or to Rejected otherwise.
func Promote(usr user.User) Authorization {
	auth := Authorization{Stage: StageAuthenticated, UserID: usr.ID}
	switch {
	case !usr.IsActive:
		return auth.reject(ReasonInactive)
	case !usr.IsStudent():
		return auth.reject(ReasonNotStudent)
	case !usr.IsMonitor:
		return auth.reject(ReasonNotMonitor)
	case usr.CohortID == "":
		return auth.reject(ReasonNoCohort)
	}
	auth.Stage = StageAuthorizedMonitor
	auth.CohortID = usr.CohortID
	return auth
}
