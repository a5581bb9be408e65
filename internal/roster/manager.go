// Package roster keeps the list of addresses that receive tender notifications.
// The backend owns the list; the Manager only mirrors it and never edits its
// copy optimistically.
package roster

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"

	"github.com/david/licitaciones-radar/internal/models"
)

// Source is the external roster collaborator.
type Source interface {
	ListEmails(ctx context.Context) ([]models.EmailEntry, error)
	CreateEmail(ctx context.Context, address string) error
	DeleteEmail(ctx context.Context, address string) error
}

// Error is returned by every failed roster operation.
type Error struct {
	Op      string // "list", "add" or "remove"
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var opMessages = map[string]string{
	"list":   "failed to load notification emails",
	"add":    "failed to add notification email",
	"remove": "failed to remove notification email",
}

type Manager struct {
	mu      sync.Mutex
	src     Source
	emails  []models.EmailEntry
	lastErr string
}

func NewManager(src Source) *Manager {
	return &Manager{src: src}
}

// Refresh reloads the roster from the source.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshLocked(ctx)
}

// Add submits the trimmed address and reloads the roster. Validation,
// including of the empty string, is left to the source.
func (m *Manager) Add(ctx context.Context, address string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	address = strings.TrimSpace(address)
	if err := m.src.CreateEmail(ctx, address); err != nil {
		return m.fail("add", err)
	}
	log.Printf("[roster] added %q", address)
	return m.refreshLocked(ctx)
}

// Remove deletes the address by exact match and reloads the roster.
func (m *Manager) Remove(ctx context.Context, address string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.src.DeleteEmail(ctx, address); err != nil {
		return m.fail("remove", err)
	}
	log.Printf("[roster] removed %q", address)
	return m.refreshLocked(ctx)
}

// Emails returns a copy of the last roster loaded.
func (m *Manager) Emails() []models.EmailEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.emails)
}

// Contains reports whether address is on the roster. Matching is exact and
// case-sensitive.
func (m *Manager) Contains(address string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.ContainsFunc(m.emails, func(e models.EmailEntry) bool {
		return e.Address == address
	})
}

// LastError is the message of the last failed operation, or "" once an
// operation succeeds.
func (m *Manager) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) refreshLocked(ctx context.Context) error {
	emails, err := m.src.ListEmails(ctx)
	if err != nil {
		return m.fail("list", err)
	}
	if emails == nil {
		emails = []models.EmailEntry{}
	}
	m.emails = emails
	m.lastErr = ""
	return nil
}

func (m *Manager) fail(op string, err error) error {
	rerr := &Error{Op: op, Message: opMessages[op], Err: err}
	m.lastErr = rerr.Error()
	log.Printf("[roster] %s failed: %v", op, err)
	return rerr
}
