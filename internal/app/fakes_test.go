package app

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"asset_lifecycle_scheduler/internal/domain/alert"
	"asset_lifecycle_scheduler/internal/domain/maintenance"
	"asset_lifecycle_scheduler/internal/domain/report"
	"asset_lifecycle_scheduler/internal/domain/user"
	"asset_lifecycle_scheduler/internal/infra/notify"
)

var errBoom = errors.New("boom")

// memMaintenance mimics the guarded insert of the postgres repository.
type memMaintenance struct {
	mu          sync.Mutex
	records     map[int64]*maintenance.Record
	nextID      int64
	listCalls   int
	failCreates map[int64]bool
}

func newMemMaintenance(recs ...*maintenance.Record) *memMaintenance {
	m := &memMaintenance{records: make(map[int64]*maintenance.Record), nextID: 1000}
	for _, r := range recs {
		m.records[r.ID] = r
	}
	return m
}

func (m *memMaintenance) GetByID(_ context.Context, id int64) (*maintenance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, maintenance.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memMaintenance) ListDueRecurring(_ context.Context, now time.Time, afterID int64, limit int) ([]*maintenance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	var out []*maintenance.Record
	for _, r := range m.records {
		if r.ID <= afterID || !r.IsRecurring || !r.NextScheduledFor.Valid || r.NextScheduledFor.Time.After(now) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memMaintenance) CreateOccurrence(_ context.Context, source, occurrence *maintenance.Record, next time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreates[source.ID] {
		return false, errBoom
	}
	stored := m.records[source.ID]
	if !stored.NextScheduledFor.Time.Equal(source.NextScheduledFor.Time) {
		return false, nil
	}
	m.nextID++
	occurrence.ID = m.nextID
	m.records[occurrence.ID] = occurrence
	stored.NextScheduledFor = sql.NullTime{Time: next, Valid: true}
	return true, nil
}

func (m *memMaintenance) occurrencesOf(parentID int64) []*maintenance.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*maintenance.Record
	for _, r := range m.records {
		if r.ParentID.Valid && r.ParentID.Int64 == parentID {
			out = append(out, r)
		}
	}
	return out
}

// memAlerts keeps one unsent alert per (type, subject type, subject id) and never
// re-raises a sent alert for the same due date.
type memAlerts struct {
	mu       sync.Mutex
	alerts   []*alert.Alert
	nextID   int64
	clock    func() time.Time
	markErrs int
}

func newMemAlerts(now time.Time) *memAlerts {
	return &memAlerts{clock: func() time.Time { return now }}
}

func (m *memAlerts) EnsureOpen(_ context.Context, a *alert.Alert) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.alerts {
		if x.Type != a.Type || x.SubjectType != a.SubjectType || x.SubjectID != a.SubjectID {
			continue
		}
		if !x.Sent || x.DueDate.Equal(a.DueDate) {
			return false, nil
		}
	}
	m.nextID++
	cp := *a
	cp.ID = m.nextID
	cp.CreatedAt = m.clock()
	m.alerts = append(m.alerts, &cp)
	return true, nil
}

func (m *memAlerts) ListPending(_ context.Context, q alert.PendingQuery) ([]*alert.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*alert.Alert
	for _, a := range m.alerts {
		if a.Sent || !hasType(q.Types, a.Type) || a.CreatedAt.Before(q.CreatedSince) || a.CreatedAt.After(q.Until) {
			continue
		}
		if a.DueDate.Before(q.AfterDue) || (a.DueDate.Equal(q.AfterDue) && a.ID <= q.AfterID) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *memAlerts) MarkSent(_ context.Context, id int64, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markErrs > 0 {
		m.markErrs--
		return false, errBoom
	}
	for _, a := range m.alerts {
		if a.ID == id && !a.Sent {
			a.Sent = true
			a.SentAt = sql.NullTime{Time: at, Valid: true}
			return true, nil
		}
	}
	return false, nil
}

func (m *memAlerts) add(a *alert.Alert) *alert.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	a.ID = m.nextID
	if a.CreatedAt.IsZero() {
		a.CreatedAt = m.clock()
	}
	m.alerts = append(m.alerts, a)
	return a
}

func hasType(types []alert.Type, t alert.Type) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

// memSources serves fixed candidates per alert type.
type memSources struct {
	byType map[alert.Type][]alert.Candidate
	fail   map[alert.Type]bool
}

func (s *memSources) ListCandidates(_ context.Context, q alert.CandidateQuery) ([]alert.Candidate, error) {
	if s.fail[q.Rule.Type] {
		return nil, errBoom
	}
	var out []alert.Candidate
	for _, c := range s.byType[q.Rule.Type] {
		if c.SubjectID > q.AfterID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubjectID < out[j].SubjectID })
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// memUsers matches users on role names or permission names.
type memUsers struct {
	users       []*user.User
	roles       map[int64][]string
	permissions map[int64][]string
	calls       int
	err         error
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*user.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (m *memUsers) ListByAudience(_ context.Context, aud user.Audience) ([]*user.User, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	var out []*user.User
	for _, u := range m.users {
		if !u.IsActive {
			continue
		}
		if overlaps(m.roles[u.ID], aud.Roles) || overlaps(m.permissions[u.ID], aud.Permissions) {
			out = append(out, u)
		}
	}
	return out, nil
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

type sentMessage struct {
	channel string
	userID  int64
	msg     notify.Message
}

// recordingChannel captures sends and fails for chosen users.
type recordingChannel struct {
	name   string
	sent   []sentMessage
	failTo map[int64]bool
}

func (c *recordingChannel) Name() string { return c.name }

func (c *recordingChannel) Accepts(u *user.User) bool { return u.Email != "" }

func (c *recordingChannel) Send(_ context.Context, u *user.User, msg notify.Message) error {
	if c.failTo[u.ID] {
		return errBoom
	}
	c.sent = append(c.sent, sentMessage{channel: c.name, userID: u.ID, msg: msg})
	return nil
}

// stubTemplates handles every type except the ones listed in unmapped.
type stubTemplates struct {
	unmapped map[alert.Type]bool
}

func (s stubTemplates) Handles(t alert.Type) bool { return !s.unmapped[t] }

func (s stubTemplates) ForAlert(a *alert.Alert, u *user.User, _ time.Time) (notify.Message, bool, error) {
	if s.unmapped[a.Type] {
		return notify.Message{}, false, nil
	}
	return notify.Message{Kind: string(a.Type), Subject: string(a.Type) + ": " + a.Title, Text: "Hello " + u.Name}, true, nil
}

func (s stubTemplates) ForReport(r *report.SavedReport, res *report.Result, _ time.Time) (notify.Message, error) {
	lines := []string{r.Name}
	for _, row := range res.Preview(report.PreviewRows) {
		lines = append(lines, strings.Join(row, ","))
	}
	return notify.Message{Kind: "report", Subject: "Scheduled report: " + r.Name, Text: strings.Join(lines, "\n")}, nil
}

// memReports stores saved reports by id.
type memReports struct {
	reports   []*report.SavedReport
	updates   map[int64]time.Time
	updateErr error
}

func (m *memReports) GetByID(_ context.Context, id int64) (*report.SavedReport, error) {
	for _, r := range m.reports {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, report.ErrReportNotFound
}

func (m *memReports) ListScheduled(_ context.Context, afterID int64, limit int) ([]*report.SavedReport, error) {
	var out []*report.SavedReport
	for _, r := range m.reports {
		if r.ID > afterID && r.Scheduled() {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memReports) UpdateLastRunAt(_ context.Context, id int64, at time.Time) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if m.updates == nil {
		m.updates = make(map[int64]time.Time)
	}
	m.updates[id] = at
	for _, r := range m.reports {
		if r.ID == id {
			r.LastRunAt = sql.NullTime{Time: at, Valid: true}
		}
	}
	return nil
}

// stubExecutor returns rows rows per call or fails for listed families.
type stubExecutor struct {
	rows  int
	fail  map[report.Family]bool
	calls int
}

func (e *stubExecutor) Execute(_ context.Context, def report.Definition, _ map[string]any) (*report.Result, error) {
	e.calls++
	if e.fail[def.Family] {
		return nil, errBoom
	}
	res := &report.Result{Columns: def.Labels()}
	for i := 0; i < e.rows; i++ {
		row := make([]string, len(res.Columns))
		for j := range row {
			row[j] = "v"
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}
