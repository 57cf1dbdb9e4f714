package session

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/looplab/fsm"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/censo/core"
)

// Session states
const (
	StateUnauthenticated = "unauthenticated"
	StateAuthenticated   = "authenticated"
)

const (
	eventLogin  = "login"
	eventLogout = "logout"
)

var (
	// errors
	ErrInvalidCredentials = errors.New("usuário ou senha inválidos")
)

// Credentials holds the admin account allowed to log in.
type Credentials struct {
	Username     string
	passwordHash []byte
}

// NewCredentials uses the configured bcrypt hash, or hashes the plain text password
// when no hash is configured.
func NewCredentials(conf core.AdminConfig) (Credentials, error) {
	creds := Credentials{Username: core.CleanString(conf.Username, true /* lower */)}
	if conf.PasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(conf.PasswordHash)); err != nil {
			return Credentials{}, pkgerrors.Wrap(err, "parsing admin password hash")
		}
		creds.passwordHash = []byte(conf.PasswordHash)
		return creds, nil
	}
	hash, err := HashPassword(conf.Password)
	if err != nil {
		return Credentials{}, err
	}
	creds.passwordHash = []byte(hash)
	return creds, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", pkgerrors.Wrap(err, "hashing password")
	}
	return string(hash), nil
}

// Check compares both the username and the password, always running bcrypt.
func (c Credentials) Check(username, password string) bool {
	pwdOK := bcrypt.CompareHashAndPassword(c.passwordHash, []byte(password)) == nil
	return pwdOK && core.CleanString(username, true /* lower */) == c.Username
}

// Guard is the admin session state machine. Its state is mirrored in the
// persisted core.KeyAdminAuthenticated flag, which is re-read on every check so that
// instances sharing a store agree on the session.
type Guard struct {
	creds  Credentials
	kv     core.KVStore
	logger core.Logger

	mu      sync.Mutex
	machine *fsm.FSM
}

// NewGuard restores the state from the persisted flag; anything but "true" is unauthenticated.
func NewGuard(ctx context.Context, creds Credentials, kv core.KVStore, logger core.Logger) *Guard {
	g := &Guard{creds: creds, kv: kv, logger: logger}
	initial, ok := g.load(ctx)
	if !ok {
		initial = StateUnauthenticated
	}
	g.machine = fsm.NewFSM(
		initial,
		fsm.Events{
			{Name: eventLogin, Src: []string{StateUnauthenticated}, Dst: StateAuthenticated},
			{Name: eventLogout, Src: []string{StateAuthenticated}, Dst: StateUnauthenticated},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				logger.Info("admin session " + e.Src + " -> " + e.Dst)
			},
		},
	)
	return g
}

// Login checks the credentials and moves to the authenticated state.
// Logging in again while authenticated succeeds without a transition.
func (g *Guard) Login(ctx context.Context, username, password string) error {
	if !g.creds.Check(username, password) {
		return ErrInvalidCredentials
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.sync(ctx)
	if g.machine.Is(StateAuthenticated) {
		return nil
	}
	if err := g.fire(ctx, eventLogin); err != nil {
		return err
	}
	return g.persist(ctx)
}

// Logout moves to the unauthenticated state. It is a no-op when already logged out.
func (g *Guard) Logout(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sync(ctx)
	if g.machine.Is(StateUnauthenticated) {
		return nil
	}
	if err := g.fire(ctx, eventLogout); err != nil {
		return err
	}
	return g.persist(ctx)
}

func (g *Guard) IsAuthenticated(ctx context.Context) bool {
	return g.State(ctx) == StateAuthenticated
}

// State returns the current session state, as persisted by any instance.
func (g *Guard) State(ctx context.Context) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sync(ctx)
	return g.machine.Current()
}

func (g *Guard) Username() string { return g.creds.Username }

// load reads the persisted state. ok is false when the flag could not be read.
func (g *Guard) load(ctx context.Context) (state string, ok bool) {
	raw, err := g.kv.Get(ctx, core.KeyAdminAuthenticated)
	switch {
	case err == nil:
		if authed, _ := strconv.ParseBool(string(raw)); authed {
			return StateAuthenticated, true
		}
		return StateUnauthenticated, true
	case pkgerrors.Cause(err) == core.ErrKeyNotFound:
		return StateUnauthenticated, true
	}
	g.logger.Warn("loading admin session flag", err)
	return "", false
}

// sync aligns the machine with the persisted flag, which another instance may have
// changed. The current state is kept when the flag cannot be read.
func (g *Guard) sync(ctx context.Context) {
	state, ok := g.load(ctx)
	if !ok || g.machine.Is(state) {
		return
	}
	g.logger.Info("admin session " + g.machine.Current() + " -> " + state + " (shared)")
	g.machine.SetState(state)
}

func (g *Guard) fire(ctx context.Context, event string) error {
	return pkgerrors.Wrap(g.machine.Event(ctx, event), "admin session")
}

func (g *Guard) persist(ctx context.Context) error {
	flag := strconv.FormatBool(g.machine.Is(StateAuthenticated))
	if err := g.kv.Set(ctx, core.KeyAdminAuthenticated, []byte(flag)); err != nil {
		return pkgerrors.Wrap(err, "saving admin session flag")
	}
	return nil
}
