package domain

// DropReason is the first cleaning rule a removed row violated.
type DropReason string

const (
	DropInvalidTimestamp DropReason = "invalid_timestamp"
	DropInvalidAmount    DropReason = "invalid_amount"
	DropCancelled        DropReason = "cancelled"
	DropDuplicate        DropReason = "duplicate"
	DropOutlier          DropReason = "outlier"
)

// DropReasons lists reasons in the order the cleaner applies them.
var DropReasons = []DropReason{
	DropInvalidTimestamp,
	DropInvalidAmount,
	DropCancelled,
	DropDuplicate,
	DropOutlier,
}

// OutlierFilterStatus records whether the IQR filter ran.
type OutlierFilterStatus string

const (
	OutlierFilterApplied            OutlierFilterStatus = "applied"
	OutlierFilterSkippedSmallSample OutlierFilterStatus = "skipped_insufficient_sample"
	OutlierFilterDisabled           OutlierFilterStatus = "disabled"
)

// OutlierBounds are the amount bounds of the last IQR pass.
type OutlierBounds struct {
	Q1         float64 `json:"q1"`
	Q3         float64 `json:"q3"`
	IQR        float64 `json:"iqr"`
	Multiplier float64 `json:"multiplier"`
	Lower      float64 `json:"lower"`
	Upper      float64 `json:"upper"`
	Passes     int     `json:"passes"`
}

// AuditStep is one line of the cleaning log.
type AuditStep struct {
	Step      string `json:"step"`
	Removed   int    `json:"removed"`
	Remaining int    `json:"remaining"`
}

// CleaningAudit accounts for every input row of a cleaning run.
type CleaningAudit struct {
	InputRows        int                 `json:"input_rows"`
	OutputRows       int                 `json:"output_rows"`
	Dropped          map[DropReason]int  `json:"dropped"`
	OutlierFiltering OutlierFilterStatus `json:"outlier_filtering"`
	OutlierBounds    *OutlierBounds      `json:"outlier_bounds,omitempty"`
	FilledOptional   int                 `json:"filled_optional"`
	Steps            []AuditStep         `json:"steps"`
}

// TotalDropped sums the per-reason counts.
func (a CleaningAudit) TotalDropped() int {
	total := 0
	for _, n := range a.Dropped {
		total += n
	}
	return total
}

// Balanced reports whether every input row is accounted for exactly once.
func (a CleaningAudit) Balanced() bool {
	return a.TotalDropped()+a.OutputRows == a.InputRows
}
