// internal/domain/alert/types.go
package alert

// Type is the alert category. Values are stored verbatim in alerts.type.
type Type string

const (
	TypeOverdueCheckout    Type = "Overdue Checkout"
	TypeLeaseExpiring      Type = "Lease Expiring"
	TypeMaintenanceDue     Type = "Maintenance Due"
	TypeMaintenanceOverdue Type = "Maintenance Overdue"
	TypeWarrantyExpiring   Type = "Warranty Expiring"
	TypeAssetDue           Type = "Asset Due"
	TypeAssetPastDue       Type = "Asset Past Due"
	TypeRefreshDue         Type = "Refresh Due"
	TypeContractExpiring   Type = "Contract Expiring"
	TypePurchaseOrderDue   Type = "Purchase Order Due"
	TypeClearanceDue       Type = "Clearance Due"
	TypeStaffExit          Type = "Staff Exit"
)

// SubjectType names the table an alert's subject lives in.
type SubjectType string

const (
	SubjectCheckout      SubjectType = "checkout"
	SubjectLease         SubjectType = "lease"
	SubjectMaintenance   SubjectType = "maintenance"
	SubjectWarranty      SubjectType = "warranty"
	SubjectAsset         SubjectType = "asset"
	SubjectContract      SubjectType = "contract"
	SubjectPurchaseOrder SubjectType = "purchase_order"
	SubjectClearance     SubjectType = "clearance"
	SubjectUser          SubjectType = "user"
)

var allTypes = []Type{
	TypeOverdueCheckout,
	TypeLeaseExpiring,
	TypeMaintenanceDue,
	TypeMaintenanceOverdue,
	TypeWarrantyExpiring,
	TypeAssetDue,
	TypeAssetPastDue,
	TypeRefreshDue,
	TypeContractExpiring,
	TypePurchaseOrderDue,
	TypeClearanceDue,
	TypeStaffExit,
}

// AllTypes returns every known alert type.
func AllTypes() []Type {
	out := make([]Type, len(allTypes))
	copy(out, allTypes)
	return out
}

// AssetTypes returns the types routed to asset administrators.
func AssetTypes() []Type {
	return []Type{
		TypeOverdueCheckout,
		TypeLeaseExpiring,
		TypeMaintenanceDue,
		TypeMaintenanceOverdue,
		TypeWarrantyExpiring,
		TypeAssetDue,
		TypeAssetPastDue,
		TypeRefreshDue,
		TypeContractExpiring,
		TypePurchaseOrderDue,
	}
}

func (t Type) Valid() bool {
	for _, known := range allTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t Type) String() string { return string(t) }
