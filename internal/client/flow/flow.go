// Package flow drives the "request code, type code, submit" deletion dialog.
package flow

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/voucher-console/internal/domain"
)

// ResendCooldown is how long after a send the code cannot be requested again.
const ResendCooldown = 60 * time.Second

type State int

const (
	Idle State = iota
	Sending
	Sent
	Submitting
	Succeeded
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sending:
		return "sending"
	case Sent:
		return "sent"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

var (
	ErrBusy         = errors.New("an operation is already in flight")
	ErrIllegalState = errors.New("operation not allowed in the current state")
	ErrInvalidEmail = errors.New("please enter a valid email address")
	ErrInvalidCode  = errors.New("please enter a valid 6-digit OTP")
	ErrCooldown     = errors.New("wait before requesting another code")
)

var codePattern = regexp.MustCompile(`^[0-9]{6}$`)

// API is the server side of the dialog.
type API interface {
	RequestCode(ctx context.Context, req domain.IssueRequest) (string, error)
	ConfirmDelete(ctx context.Context, req domain.DeletionRequest) error
}

// Item is the record the dialog wants to delete.
type Item struct {
	Type domain.ItemType
	ID   string
	Name string
}

// Controller is safe for concurrent use; only one network call runs at a time
// and calls made while one is running fail with ErrBusy.
type Controller struct {
	mu      sync.Mutex
	api     API
	item    Item
	refresh func()
	now     func() time.Time

	state  State
	email  string
	code   string
	sentAt time.Time
	err    error
}

type Option func(*Controller)

// WithClock replaces time.Now, which drives the resend cooldown.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New returns a controller in Idle. refresh runs once after a successful delete
// and may be nil.
func New(api API, item Item, refresh func(), opts ...Option) *Controller {
	c := &Controller{api: api, item: item, refresh: refresh, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// RequestCode sends (or resends) a code to email. It is allowed from Idle, and
// from Sent once the cooldown has run out. A failed send lands in Idle.
func (c *Controller) RequestCode(ctx context.Context, email string) error {
	c.mu.Lock()
	switch c.state {
	case Sending, Submitting:
		c.mu.Unlock()
		return ErrBusy
	case Sent:
		if c.cooldownLocked() > 0 {
			c.mu.Unlock()
			return ErrCooldown
		}
	case Idle:
	default:
		c.mu.Unlock()
		return ErrIllegalState
	}
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		c.mu.Unlock()
		return ErrInvalidEmail
	}
	c.state = Sending
	c.email = email
	c.err = nil
	c.mu.Unlock()

	_, err := c.api.RequestCode(ctx, domain.IssueRequest{
		Email:    email,
		Action:   "delete",
		ItemType: string(c.item.Type),
		ItemName: c.item.Name,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = Idle
		c.err = err
		return err
	}
	c.state = Sent
	c.sentAt = c.now()
	c.code = ""
	return nil
}

// SetCode records what the user typed. It only takes effect in Sent.
func (c *Controller) SetCode(code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Sent {
		return ErrIllegalState
	}
	c.code = strings.TrimSpace(code)
	return nil
}

// Submit sends the typed code. A malformed code is refused without a network
// call. On failure the controller returns to Sent and keeps the code.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case Sending, Submitting:
		c.mu.Unlock()
		return ErrBusy
	case Sent:
	default:
		c.mu.Unlock()
		return ErrIllegalState
	}
	if !codePattern.MatchString(c.code) {
		c.mu.Unlock()
		return ErrInvalidCode
	}
	c.state = Submitting
	c.err = nil
	req := domain.DeletionRequest{
		OTP:      c.code,
		Email:    c.email,
		ItemType: string(c.item.Type),
		ItemID:   c.item.ID,
	}
	c.mu.Unlock()

	err := c.api.ConfirmDelete(ctx, req)

	c.mu.Lock()
	if err != nil {
		c.state = Sent
		c.err = err
		c.mu.Unlock()
		return err
	}
	c.state = Succeeded
	c.mu.Unlock()

	if c.refresh != nil {
		c.refresh()
	}
	return nil
}

// Cancel closes the dialog. It is refused while a call is in flight.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Sending || c.state == Submitting {
		return ErrBusy
	}
	c.state = Cancelled
	return nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err is the error of the last failed call, cleared when a new call starts.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Cooldown is the time left before a resend is allowed; zero outside Sent.
func (c *Controller) Cooldown() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Sent {
		return 0
	}
	return c.cooldownLocked()
}

func (c *Controller) cooldownLocked() time.Duration {
	left := ResendCooldown - c.now().Sub(c.sentAt)
	if left < 0 {
		return 0
	}
	return left
}
