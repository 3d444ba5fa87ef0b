package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io"
	"strings"
	"text/template"
	"time"

	"asset_lifecycle_scheduler/internal/domain/alert"
	"asset_lifecycle_scheduler/internal/domain/report"
	"asset_lifecycle_scheduler/internal/domain/user"
)

//go:embed templates/*
var templateFS embed.FS

// alertCopy is the wording and deep link used for one alert type.
type alertCopy struct {
	Subject  string
	Headline string
	Action   string
	Path     string
}

// copyFor is the closed mapping from alert type to notification content.
// A type missing here is reported by Templates.Missing and blocks startup.
func copyFor(t alert.Type) (alertCopy, bool) {
	switch t {
	case alert.TypeOverdueCheckout:
		return alertCopy{"Overdue checkout", "An asset has not been checked in by its expected date.", "Review the checkout", "checkouts"}, true
	case alert.TypeLeaseExpiring:
		return alertCopy{"Lease expiring", "A lease is coming to an end.", "Review the lease", "leases"}, true
	case alert.TypeMaintenanceDue:
		return alertCopy{"Maintenance due", "Scheduled maintenance is coming up.", "Open the maintenance record", "maintenance"}, true
	case alert.TypeMaintenanceOverdue:
		return alertCopy{"Maintenance overdue", "Scheduled maintenance has not been completed.", "Open the maintenance record", "maintenance"}, true
	case alert.TypeWarrantyExpiring:
		return alertCopy{"Warranty expiring", "A warranty is about to expire.", "Review the warranty", "warranties"}, true
	case alert.TypeAssetDue:
		return alertCopy{"Asset audit due", "An asset is due for its audit.", "Open the asset", "assets"}, true
	case alert.TypeAssetPastDue:
		return alertCopy{"Asset audit past due", "An asset has missed its audit date.", "Open the asset", "assets"}, true
	case alert.TypeRefreshDue:
		return alertCopy{"Asset refresh due", "An asset is approaching end of life.", "Plan the replacement", "assets"}, true
	case alert.TypeContractExpiring:
		return alertCopy{"Contract expiring", "A contract is about to expire.", "Review the contract", "contracts"}, true
	case alert.TypePurchaseOrderDue:
		return alertCopy{"Purchase order due", "A purchase order delivery is expected soon.", "Open the purchase order", "purchase-orders"}, true
	case alert.TypeClearanceDue:
		return alertCopy{"Clearance due", "A clearance is waiting for sign-off.", "Open the clearance", "clearances"}, true
	case alert.TypeStaffExit:
		return alertCopy{"Staff exit", "A staff member is leaving soon.", "Open the user", "users"}, true
	}
	return alertCopy{}, false
}

// Templates renders alert and report messages.
type Templates struct {
	appURL     string
	defaultLoc *time.Location
	alertText  *template.Template
	alertHTML  *htmltemplate.Template
	reportText *template.Template
	reportHTML *htmltemplate.Template
}

// LoadTemplates parses the embedded templates. Links are built under appURL and
// dates are shown in the recipient's zone, falling back to defaultLoc.
func LoadTemplates(appURL string, defaultLoc *time.Location) (*Templates, error) {
	if defaultLoc == nil {
		defaultLoc = time.Local
	}
	funcs := template.FuncMap{
		"join": func(cells []string) string { return strings.Join(cells, " | ") },
	}
	t := &Templates{appURL: strings.TrimRight(appURL, "/"), defaultLoc: defaultLoc}
	var err error
	if t.alertText, err = template.New("alert.txt").ParseFS(templateFS, "templates/alert.txt"); err != nil {
		return nil, err
	}
	if t.alertHTML, err = htmltemplate.New("alert.html").ParseFS(templateFS, "templates/alert.html"); err != nil {
		return nil, err
	}
	if t.reportText, err = template.New("report.txt").Funcs(funcs).ParseFS(templateFS, "templates/report.txt"); err != nil {
		return nil, err
	}
	if t.reportHTML, err = htmltemplate.New("report.html").ParseFS(templateFS, "templates/report.html"); err != nil {
		return nil, err
	}
	return t, nil
}

// Missing returns the types in types that have no notification content.
func (t *Templates) Missing(types []alert.Type) []alert.Type {
	var missing []alert.Type
	for _, typ := range types {
		if _, ok := copyFor(typ); !ok {
			missing = append(missing, typ)
		}
	}
	return missing
}

// Handles reports whether typ has notification content.
func (t *Templates) Handles(typ alert.Type) bool {
	_, ok := copyFor(typ)
	return ok
}

type alertView struct {
	RecipientName string
	Headline      string
	Title         string
	DueDate       string
	Days          int
	Overdue       bool
	Action        string
	Link          string
}

// ForAlert builds the message for one alert and recipient. ok is false for unmapped types.
func (t *Templates) ForAlert(a *alert.Alert, recipient *user.User, now time.Time) (msg Message, ok bool, err error) {
	c, ok := copyFor(a.Type)
	if !ok {
		return Message{}, false, nil
	}
	loc := t.location(recipient.Timezone.String)
	days := a.DaysUntilDue(now, loc)
	overdue := a.DueDate.Before(now)
	if overdue {
		days = -days
	}
	link := t.link(c.Path, a.SubjectID)

	view := alertView{
		RecipientName: recipient.Name,
		Headline:      c.Headline,
		Title:         a.Title,
		DueDate:       a.DueDate.In(loc).Format("Mon 2 Jan 2006"),
		Days:          days,
		Overdue:       overdue,
		Action:        c.Action,
		Link:          link,
	}
	text, err := render(t.alertText, view)
	if err != nil {
		return Message{}, true, fmt.Errorf("render alert text: %w", err)
	}
	html, err := render(t.alertHTML, view)
	if err != nil {
		return Message{}, true, fmt.Errorf("render alert html: %w", err)
	}
	return Message{
		Kind:    string(a.Type),
		Subject: fmt.Sprintf("%s: %s", c.Subject, a.Title),
		Text:    text,
		HTML:    html,
		Data: map[string]any{
			"alert_id":     a.ID,
			"type":         string(a.Type),
			"subject_type": string(a.SubjectType),
			"subject_id":   a.SubjectID,
			"title":        a.Title,
			"due_date":     a.DueDate.UTC().Format(time.RFC3339),
			"url":          link,
		},
	}, true, nil
}

type reportView struct {
	OwnerName   string
	Name        string
	GeneratedAt string
	RowCount    int
	Truncated   bool
	Columns     []string
	Preview     [][]string
	More        bool
	Link        string
}

// ForReport builds the scheduled report email with an inline preview.
func (t *Templates) ForReport(r *report.SavedReport, res *report.Result, now time.Time) (Message, error) {
	loc := t.location(r.Owner.Timezone.String)
	preview := res.Preview(report.PreviewRows)
	link := t.link("reports", r.ID)
	view := reportView{
		OwnerName:   r.Owner.Name,
		Name:        r.Name,
		GeneratedAt: now.In(loc).Format("2006-01-02 15:04 MST"),
		RowCount:    res.Len(),
		Truncated:   res.Truncated,
		Columns:     res.Columns,
		Preview:     preview,
		More:        res.Len() > len(preview),
		Link:        link,
	}
	text, err := render(t.reportText, view)
	if err != nil {
		return Message{}, fmt.Errorf("render report text: %w", err)
	}
	html, err := render(t.reportHTML, view)
	if err != nil {
		return Message{}, fmt.Errorf("render report html: %w", err)
	}
	return Message{
		Kind:    "report",
		Subject: "Scheduled report: " + r.Name,
		Text:    text,
		HTML:    html,
		Data: map[string]any{
			"report_id": r.ID,
			"rows":      res.Len(),
			"url":       link,
		},
	}, nil
}

func (t *Templates) link(path string, id int64) string {
	return fmt.Sprintf("%s/%s/%d", t.appURL, path, id)
}

func (t *Templates) location(name string) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return t.defaultLoc
}

type executor interface {
	Execute(w io.Writer, data any) error
}

func render(tmpl executor, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
