package app

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"asset_lifecycle_scheduler/internal/domain/report"
	"asset_lifecycle_scheduler/internal/infra/cronexpr"
	"asset_lifecycle_scheduler/internal/infra/logger"
)

func savedReport(id int64, family report.Family, cron, tz string) *report.SavedReport {
	return &report.SavedReport{
		ID:             id,
		Name:           "Weekly assets",
		Family:         family,
		DefinitionJSON: []byte(`{"filters":{"status":"Active"}}`),
		ScheduleCron:   sql.NullString{String: cron, Valid: cron != ""},
		Owner: report.Owner{
			ID:       42,
			Name:     "Ada Admin",
			Email:    "ada@example.com",
			Timezone: sql.NullString{String: tz, Valid: tz != ""},
		},
	}
}

func newRunner(reports *memReports, exec *stubExecutor, ch *recordingChannel) *ReportRunner {
	return NewReportRunner(reports, exec, cronexpr.NewMatcher(logger.Discard()), stubTemplates{}, ch, "UTC", logger.Discard())
}

func TestRunScheduledOncePerMinute(t *testing.T) {
	now := time.Date(2025, 6, 2, 8, 0, 10, 0, time.UTC)
	reports := &memReports{reports: []*report.SavedReport{savedReport(1, report.FamilyAssets, "* * * * *", "")}}
	exec := &stubExecutor{rows: 12}
	ch := &recordingChannel{name: "mail"}
	r := newRunner(reports, exec, ch)

	sum, err := r.RunScheduled(context.Background(), now)
	if err != nil {
		t.Fatalf("RunScheduled() error = %v", err)
	}
	if sum.Sent != 1 || len(ch.sent) != 1 {
		t.Fatalf("summary = %+v, messages = %d", sum, len(ch.sent))
	}
	msg := ch.sent[0].msg
	if msg.Subject != "Scheduled report: Weekly assets" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if lines := strings.Count(msg.Text, "\n"); lines != report.PreviewRows {
		t.Errorf("preview has %d rows, want %d", lines, report.PreviewRows)
	}
	if len(msg.Attachments) != 1 || !strings.HasSuffix(msg.Attachments[0].Filename, ".xlsx") {
		t.Errorf("attachments = %+v", msg.Attachments)
	}
	if got := reports.updates[1]; !got.Equal(now) {
		t.Errorf("last_run_at = %v, want %v", got, now)
	}

	sum, err = r.RunScheduled(context.Background(), now.Add(30*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if sum.Due != 0 || len(ch.sent) != 1 {
		t.Errorf("same minute rerun: summary = %+v, messages = %d", sum, len(ch.sent))
	}

	sum, err = r.RunScheduled(context.Background(), now.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if sum.Sent != 1 || len(ch.sent) != 2 {
		t.Errorf("next minute: summary = %+v, messages = %d", sum, len(ch.sent))
	}
}

func TestIsDueUsesOwnerTimezone(t *testing.T) {
	// 07:00 UTC is 09:00 in Berlin during summer time.
	now := time.Date(2025, 6, 2, 7, 0, 0, 0, time.UTC)
	r := newRunner(&memReports{}, &stubExecutor{}, &recordingChannel{name: "mail"})

	tests := []struct {
		name string
		sr   *report.SavedReport
		want bool
	}{
		{"owner zone", savedReport(1, report.FamilyAssets, "0 9 * * *", "Europe/Berlin"), true},
		{"unknown zone falls back to default", savedReport(2, report.FamilyAssets, "0 9 * * *", "Mars/Olympus"), false},
		{"no zone uses default", savedReport(3, report.FamilyAssets, "0 7 * * *", ""), true},
		{"unscheduled", savedReport(4, report.FamilyAssets, "", ""), false},
		{"invalid cron", savedReport(5, report.FamilyAssets, "not a cron", ""), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.IsDue(tt.sr, now); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunScheduledSkipsUnknownFamily(t *testing.T) {
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	reports := &memReports{reports: []*report.SavedReport{
		savedReport(1, "spaceships", "* * * * *", ""),
		savedReport(2, report.FamilyLeases, "* * * * *", ""),
	}}
	exec := &stubExecutor{rows: 1}
	ch := &recordingChannel{name: "mail"}

	sum, err := newRunner(reports, exec, ch).RunScheduled(context.Background(), now)
	if err != nil {
		t.Fatalf("RunScheduled() error = %v", err)
	}
	if sum.Skipped != 1 || sum.Sent != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if _, ok := reports.updates[1]; ok {
		t.Error("last_run_at recorded for the skipped report")
	}
}

func TestRunScheduledSkipsNonScalarFilter(t *testing.T) {
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	bad := savedReport(1, report.FamilyAssets, "* * * * *", "")
	bad.DefinitionJSON = []byte(`{"filters":{"status":{"not":"Retired"}}}`)
	reports := &memReports{reports: []*report.SavedReport{bad}}
	exec := &stubExecutor{rows: 1}
	ch := &recordingChannel{name: "mail"}

	sum, err := newRunner(reports, exec, ch).RunScheduled(context.Background(), now)
	if err != nil {
		t.Fatalf("RunScheduled() error = %v, want the report skipped", err)
	}
	if sum.Skipped != 1 || sum.Failed != 0 || exec.calls != 0 || len(ch.sent) != 0 {
		t.Errorf("summary = %+v, executor calls = %d, messages = %d", sum, exec.calls, len(ch.sent))
	}
}

func TestRunScheduledFailureKeepsLastRunAt(t *testing.T) {
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	reports := &memReports{reports: []*report.SavedReport{
		savedReport(1, report.FamilyContracts, "* * * * *", ""),
		savedReport(2, report.FamilyAssets, "* * * * *", ""),
	}}
	exec := &stubExecutor{rows: 2, fail: map[report.Family]bool{report.FamilyContracts: true}}
	ch := &recordingChannel{name: "mail"}

	sum, err := newRunner(reports, exec, ch).RunScheduled(context.Background(), now)
	if err == nil {
		t.Fatal("RunScheduled() error = nil, want the failed report reported")
	}
	if sum.Failed != 1 || sum.Sent != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if _, ok := reports.updates[1]; ok {
		t.Error("last_run_at recorded for a failed report")
	}
	if _, ok := reports.updates[2]; !ok {
		t.Error("last_run_at missing for the delivered report")
	}
}

func TestRunReportRequiresOwnerEmail(t *testing.T) {
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	sr := savedReport(1, report.FamilyAssets, "* * * * *", "")
	sr.Owner.Email = ""
	reports := &memReports{reports: []*report.SavedReport{sr}}

	if err := newRunner(reports, &stubExecutor{}, &recordingChannel{name: "mail"}).RunReport(context.Background(), sr, now); err == nil {
		t.Error("RunReport() error = nil for an owner without email")
	}
	if sr.LastRunAt.Valid {
		t.Error("last_run_at set after a failed delivery")
	}
}

func TestAttachmentName(t *testing.T) {
	at := time.Date(2025, 6, 2, 8, 5, 0, 0, time.UTC)
	tests := []struct{ in, want string }{
		{"Weekly Assets", "weekly-assets-20250602-0805.xlsx"},
		{"  ", "report-20250602-0805.xlsx"},
		{"Q3/Leases!", "q3-leases-20250602-0805.xlsx"},
	}
	for _, tt := range tests {
		if got := attachmentName(tt.in, at); got != tt.want {
			t.Errorf("attachmentName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
