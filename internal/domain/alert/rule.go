package alert

import "time"

// Mode selects how a rule compares a subject's due date with now.
type Mode int

const (
	// ModeUpcoming matches due dates in [now, now+Lookahead].
	ModeUpcoming Mode = iota
	// ModeOverdue matches due dates strictly before now.
	ModeOverdue
)

// Rule raises one alert type from one source table.
type Rule struct {
	Type        Type
	SubjectType SubjectType
	Mode        Mode
	Lookahead   time.Duration
}

// Window returns the [from, to) due-date range the rule selects at now.
// Overdue rules have a zero from.
func (r Rule) Window(now time.Time) (from, to time.Time) {
	if r.Mode == ModeOverdue {
		return time.Time{}, now
	}
	return now, now.Add(r.Lookahead)
}

const day = 24 * time.Hour

// DefaultRules returns one rule per alert type.
func DefaultRules() []Rule {
	return []Rule{
		{Type: TypeOverdueCheckout, SubjectType: SubjectCheckout, Mode: ModeOverdue},
		{Type: TypeLeaseExpiring, SubjectType: SubjectLease, Mode: ModeUpcoming, Lookahead: 30 * day},
		{Type: TypeMaintenanceDue, SubjectType: SubjectMaintenance, Mode: ModeUpcoming, Lookahead: 7 * day},
		{Type: TypeMaintenanceOverdue, SubjectType: SubjectMaintenance, Mode: ModeOverdue},
		{Type: TypeWarrantyExpiring, SubjectType: SubjectWarranty, Mode: ModeUpcoming, Lookahead: 30 * day},
		{Type: TypeAssetDue, SubjectType: SubjectAsset, Mode: ModeUpcoming, Lookahead: 14 * day},
		{Type: TypeAssetPastDue, SubjectType: SubjectAsset, Mode: ModeOverdue},
		{Type: TypeRefreshDue, SubjectType: SubjectAsset, Mode: ModeUpcoming, Lookahead: 90 * day},
		{Type: TypeContractExpiring, SubjectType: SubjectContract, Mode: ModeUpcoming, Lookahead: 30 * day},
		{Type: TypePurchaseOrderDue, SubjectType: SubjectPurchaseOrder, Mode: ModeUpcoming, Lookahead: 7 * day},
		{Type: TypeClearanceDue, SubjectType: SubjectClearance, Mode: ModeUpcoming, Lookahead: 3 * day},
		{Type: TypeStaffExit, SubjectType: SubjectUser, Mode: ModeUpcoming, Lookahead: 7 * day},
	}
}
