// Package groups manages which group this device belongs to: creating,
// joining and leaving groups and routing the entry screen.
package groups

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukerupert/basket/internal/model"
	"github.com/dukerupert/basket/internal/remote"
)

var (
	ErrEmptyName     = errors.New("group name is required")
	ErrGroupNotFound = errors.New("group not found")
	ErrCodeTaken     = errors.New("could not allocate an unused group code")
	ErrNotConfirmed  = errors.New("action not confirmed")
	ErrNoGroup       = errors.New("no active group")
)

const maxCodeAttempts = 5

// Directory is the remote group registry.
type Directory interface {
	CreateGroup(ctx context.Context, code, name, deviceID string) (*model.Group, error)
	GetGroup(ctx context.Context, code string) (*model.Group, error)
	AddMember(ctx context.Context, code, deviceID string) (*model.Group, error)
	RemoveMember(ctx context.Context, code, deviceID string) (*model.Group, error)
}

// Session is the local state the controller reads and writes.
type Session interface {
	DeviceID() (string, error)
	GroupCode() string
	SetGroupCode(code string) error
	ClearGroupCode() error
	HasSeenIntro() bool
	MarkIntroSeen() error
}

// Confirm gates destructive actions. It returns true to proceed.
type Confirm func(prompt string) bool

// Route names the screen a device should land on.
type Route string

const (
	RouteIntro      Route = "intro"
	RouteGroupSetup Route = "group-setup"
	RouteList       Route = "list"
)

type Status struct {
	DeviceID     string
	GroupCode    string
	HasSeenIntro bool
	Route        Route
}

type Controller struct {
	dir     Directory
	session Session
	logger  *slog.Logger
	newCode func() (string, error)
}

func NewController(dir Directory, session Session, logger *slog.Logger) *Controller {
	return &Controller{
		dir:     dir,
		session: session,
		logger:  logger.With("component", "groups"),
		newCode: NewCode,
	}
}

// NormalizeCode trims and uppercases a user-entered code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Create registers a new group with this device as its only member, makes it
// the active group and returns its share code.
func (c *Controller) Create(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}

	deviceID, err := c.session.DeviceID()
	if err != nil {
		return "", fmt.Errorf("device id: %w", err)
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := c.newCode()
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}

		_, err = c.dir.CreateGroup(ctx, code, name, deviceID)
		if errors.Is(err, remote.ErrConflict) {
			c.logger.Warn("group code collision", "code", code, "attempt", attempt)
			continue
		}
		if err != nil {
			c.logger.Error("create group", "error", err)
			return "", fmt.Errorf("create group: %w", err)
		}

		if err := c.session.SetGroupCode(code); err != nil {
			return "", fmt.Errorf("save group code: %w", err)
		}
		c.logger.Info("group created", "code", code)
		return code, nil
	}
	return "", ErrCodeTaken
}

// Join adds this device to an existing group and makes it active. The
// session is untouched when the group does not exist.
func (c *Controller) Join(ctx context.Context, code string) (*model.Group, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrGroupNotFound
	}

	deviceID, err := c.session.DeviceID()
	if err != nil {
		return nil, fmt.Errorf("device id: %w", err)
	}

	if _, err := c.dir.GetGroup(ctx, code); err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		c.logger.Error("look up group", "code", code, "error", err)
		return nil, fmt.Errorf("look up group: %w", err)
	}

	g, err := c.dir.AddMember(ctx, code, deviceID)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		c.logger.Error("join group", "code", code, "error", err)
		return nil, fmt.Errorf("join group: %w", err)
	}

	if err := c.session.SetGroupCode(code); err != nil {
		return nil, fmt.Errorf("save group code: %w", err)
	}
	c.logger.Info("joined group", "code", code, "members", len(g.Members))
	return g, nil
}

// Leave removes this device from the active group and clears the local
// group code. The local code is cleared even when the remote removal fails;
// that failure is still returned.
func (c *Controller) Leave(ctx context.Context, confirm Confirm) error {
	code := c.session.GroupCode()
	if code == "" {
		return ErrNoGroup
	}
	if confirm == nil || !confirm(fmt.Sprintf("Leave group %s?", code)) {
		return ErrNotConfirmed
	}

	deviceID, err := c.session.DeviceID()
	if err != nil {
		return fmt.Errorf("device id: %w", err)
	}

	_, remoteErr := c.dir.RemoveMember(ctx, code, deviceID)
	if remoteErr != nil {
		c.logger.Error("remove member", "code", code, "error", remoteErr)
	}

	if err := c.session.ClearGroupCode(); err != nil {
		return fmt.Errorf("clear group code: %w", err)
	}
	if remoteErr != nil {
		return fmt.Errorf("remove member from %s: %w", code, remoteErr)
	}
	c.logger.Info("left group", "code", code)
	return nil
}

// MemberCount reads the active group's record once. Failures are logged,
// not returned; ok is false when the count is unknown.
func (c *Controller) MemberCount(ctx context.Context) (n int, ok bool) {
	code := c.session.GroupCode()
	if code == "" {
		return 0, false
	}

	g, err := c.dir.GetGroup(ctx, code)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			c.logger.Warn("active group missing", "code", code)
			return 0, false
		}
		c.logger.Error("get group", "code", code, "error", err)
		return 0, false
	}
	return len(g.Members), true
}

// Status reports local session state and where the entry screen should
// route. An active group wins over the intro.
func (c *Controller) Status() (Status, error) {
	deviceID, err := c.session.DeviceID()
	if err != nil {
		return Status{}, fmt.Errorf("device id: %w", err)
	}

	st := Status{
		DeviceID:     deviceID,
		GroupCode:    c.session.GroupCode(),
		HasSeenIntro: c.session.HasSeenIntro(),
	}
	switch {
	case st.GroupCode != "":
		st.Route = RouteList
	case st.HasSeenIntro:
		st.Route = RouteGroupSetup
	default:
		st.Route = RouteIntro
	}
	return st, nil
}

func (c *Controller) MarkIntroSeen() error {
	return c.session.MarkIntroSeen()
}
