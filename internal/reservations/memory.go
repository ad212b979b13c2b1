package reservations

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wolfman30/reservation-dialogue/internal/slots"
)

// MemoryStore is an in-process Repository and Directory used when no database
// is configured.
type MemoryStore struct {
	mu           sync.RWMutex
	reservations map[string]*Reservation
	doctors      []Doctor
}

// NewMemoryStore creates a store seeded with doctors.
func NewMemoryStore(doctors []Doctor) *MemoryStore {
	return &MemoryStore{
		reservations: make(map[string]*Reservation),
		doctors:      append([]Doctor(nil), doctors...),
	}
}

// SeedDoctors is the roster used for local development.
func SeedDoctors() []Doctor {
	return []Doctor{
		{ID: "d-100", Name: "김민수", Department: "내과", Title: "교수", Specialty: "소화기내과", Active: true},
		{ID: "d-101", Name: "이서연", Department: "내과", Title: "전문의", Specialty: "호흡기내과", Active: true},
		{ID: "d-200", Name: "박지훈", Department: "정형외과", Title: "교수", Specialty: "척추", Active: true},
		{ID: "d-300", Name: "최유진", Department: "피부과", Title: "전문의", Specialty: "피부질환", Active: true},
		{ID: "d-400", Name: "정하늘", Department: "이비인후과", Title: "과장", Specialty: "비염", Active: true},
		{ID: "d-500", Name: "한지우", Department: "소아청소년과", Title: "전문의", Active: true},
	}
}

func (m *MemoryStore) Create(ctx context.Context, r *Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.reservations[r.Number] = &cp
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, r *Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.reservations[r.Number]
	if !ok || existing.Status != StatusActive {
		return ErrNotFound
	}
	cp := *r
	m.reservations[r.Number] = &cp
	return nil
}

func (m *MemoryStore) ListActive(ctx context.Context, userID string) ([]Reservation, error) {
	out := m.filter(func(r *Reservation) bool {
		return r.UserID == userID && r.Status == StatusActive
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) ListUpcoming(ctx context.Context, userID string, from time.Time) ([]Reservation, error) {
	out := m.filter(func(r *Reservation) bool {
		if r.UserID != userID || r.Status != StatusActive {
			return false
		}
		return r.ScheduledFor == nil || !r.ScheduledFor.Before(from)
	})
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].ScheduledFor, out[j].ScheduledFor
		switch {
		case a == nil && b == nil:
			return out[i].CreatedAt.After(out[j].CreatedAt)
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	return out, nil
}

func (m *MemoryStore) Latest(ctx context.Context, userID string) (*Reservation, error) {
	active, _ := m.ListActive(ctx, userID)
	if len(active) == 0 {
		return nil, ErrNotFound
	}
	return &active[0], nil
}

func (m *MemoryStore) GetByNumber(ctx context.Context, userID, number string) (*Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reservations[number]
	if !ok || r.UserID != userID {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) Cancel(ctx context.Context, userID string, numbers ...string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := map[string]bool{}
	for _, n := range numbers {
		want[n] = true
	}
	count := 0
	for number, r := range m.reservations {
		if r.UserID != userID || r.Status != StatusActive {
			continue
		}
		if len(want) > 0 && !want[number] {
			continue
		}
		r.Status = StatusCancelled
		r.UpdatedAt = time.Now().UTC()
		count++
	}
	return count, nil
}

func (m *MemoryStore) filter(keep func(*Reservation) bool) []Reservation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Reservation
	for _, r := range m.reservations {
		if keep(r) {
			out = append(out, *r)
		}
	}
	return out
}

func (m *MemoryStore) Departments(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, d := range m.doctors {
		if d.Active && !seen[d.Department] {
			seen[d.Department] = true
			out = append(out, d.Department)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) ListDoctors(ctx context.Context, department string) ([]Doctor, error) {
	var out []Doctor
	for _, d := range m.doctors {
		if d.Active && (department == "" || d.Department == department) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MemoryStore) FindDoctor(ctx context.Context, department, name string) (*Doctor, error) {
	for _, d := range m.doctors {
		if d.Active && d.Name == name && (department == "" || d.Department == department) {
			doc := d
			return &doc, nil
		}
	}
	return nil, ErrNotFound
}

// FallbackDepartments is the built-in department list used when the directory
// is unavailable.
func FallbackDepartments() []string {
	return append([]string(nil), slots.Departments...)
}
