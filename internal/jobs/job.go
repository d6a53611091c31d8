// Package jobs holds the canonical job entity shared by the ingestion
// pipeline and the jobs API. A job row carries its scalar columns plus a
// payload document with the full record, so nothing is lost when a
// spreadsheet export contains more than the schema models.
package jobs

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bodyshop-platform/api/internal/store"
)

const (
	JobTypeInsurance = "Insurance"
	JobTypeCash      = "Cash"
	JobTypeWarranty  = "Warranty"

	DefaultStatus = "Service"
	InitialStage  = "Job Created"
)

// Record is the canonical job entity. Billing amounts stay nil until a source
// value is known; Profit is derived, never stored independently of the
// billing fields that produced it.
type Record struct {
	ID             string  `json:"id"`
	JobCardNumber  *string `json:"jobCardNumber"`
	RegNo          *string `json:"regNo"`
	Model          *string `json:"model"`
	Color          *string `json:"color"`
	Chassis        *string `json:"chassis"`
	EngineNum      *string `json:"engineNum"`
	CustomerName   *string `json:"customerName"`
	CustomerMobile *string `json:"customerMobile"`

	JobType      string  `json:"jobType"`
	Advisor      *string `json:"advisor"`
	Technician   *string `json:"technician"`
	Status       string  `json:"status"`
	CurrentStage string  `json:"currentStage"`

	LabourAmt  *float64 `json:"labourAmt"`
	PartAmt    *float64 `json:"partAmt"`
	BillAmount *float64 `json:"billAmount"`
	Profit     *float64 `json:"profit"`

	GroupName    *string `json:"groupName"`
	CallbackDate *string `json:"callbackDate"`
	ArrivalDate  *string `json:"arrivalDate"`
	Location     *string `json:"location"`
	DealerName   *string `json:"dealerName"`
	DealerCity   *string `json:"dealerCity"`

	// Descriptive dealer-export attributes. These ride in the payload
	// document rather than dedicated columns; nothing filters on them.
	Variant        *string `json:"variant"`
	SaleDate       *string `json:"saleDate"`
	CircularNo     *string `json:"circularNo"`
	Mileage        *string `json:"mileage"`
	PromisedDt     *string `json:"promisedDt"`
	ReadyDateTime  *string `json:"readyDateTime"`
	JcSource       *string `json:"jcSource"`
	ApprovalStatus *string `json:"approvalStatus"`
	CustRemarks    *string `json:"custRemarks"`
	DlrRemarks     *string `json:"dlrRemarks"`
	PickupRequired *string `json:"pickupRequired"`
	PickupDate     *string `json:"pickupDate"`
	PickupLocation *string `json:"pickupLocation"`
	Address1       *string `json:"address1"`
	Address2       *string `json:"address2"`
	Address3       *string `json:"address3"`
	City           *string `json:"city"`
	Pin            *string `json:"pin"`
	Dob            *string `json:"dob"`
	Doa            *string `json:"doa"`
	Email          *string `json:"email"`
	ChkinDt        *string `json:"chkinDt"`

	CompletedStages []string         `json:"completedStages"`
	Notes           []map[string]any `json:"notes"`
	CallLogs        []map[string]any `json:"callLogs"`
	Services        []map[string]any `json:"services"`
	Photos          []map[string]any `json:"photos"`
	ActivityLog     []map[string]any `json:"activityLog"`

	CreatedBy string  `json:"createdBy"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
	RawID     *string `json:"rawId,omitempty"`
}

// NormalizeJobType maps a source value onto the closed job-type set, falling
// back to Cash for anything unrecognized.
func NormalizeJobType(value string) string {
	switch strings.TrimSpace(value) {
	case JobTypeInsurance, JobTypeCash, JobTypeWarranty:
		return strings.TrimSpace(value)
	default:
		return JobTypeCash
	}
}

// RecomputeProfit reapplies profit = bill - (labour + part), treating nil
// labour/part as zero. An unknown bill amount leaves profit unknown, never
// zero.
func (r *Record) RecomputeProfit() {
	if r.BillAmount == nil {
		r.Profit = nil
		return
	}
	profit := *r.BillAmount - (amountOrZero(r.LabourAmt) + amountOrZero(r.PartAmt))
	r.Profit = &profit
}

// Touch refreshes the update timestamp.
func (r *Record) Touch(now time.Time) {
	r.UpdatedAt = now.UTC().Format(time.RFC3339)
}

func amountOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

var nonAmount = regexp.MustCompile(`[^0-9.\-]`)

// ParseAmount coerces a free-text money value ("₹1,200", "Rs 300.50") to a
// number. Empty or unparsable input yields nil, not zero.
func ParseAmount(value *string) *float64 {
	if value == nil {
		return nil
	}
	cleaned := nonAmount.ReplaceAllString(*value, "")
	if cleaned == "" || cleaned == "-" || cleaned == "." {
		return nil
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &parsed
}

// CoerceAmount is ParseAmount for import rows: an amount that is present but
// unreadable persists as 0, so a garbled figure stays distinguishable from a
// missing one.
func CoerceAmount(value *string) *float64 {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	if parsed := ParseAmount(value); parsed != nil {
		return parsed
	}
	zero := 0.0
	return &zero
}

// ColumnFor maps the record's attribute names onto persistence columns. The
// ingestion writer and the jobs update handler both consult this table, so
// the two paths cannot drift apart.
var ColumnFor = map[string]string{
	"jobCardNumber":  "job_card_number",
	"regNo":          "reg_no",
	"model":          "model",
	"color":          "color",
	"chassis":        "chassis",
	"engineNum":      "engine_num",
	"customerName":   "customer_name",
	"customerMobile": "customer_mobile",
	"jobType":        "job_type",
	"advisor":        "advisor",
	"technician":     "technician",
	"status":         "status",
	"currentStage":   "current_stage",
	"labourAmt":      "labour_amt",
	"partAmt":        "part_amt",
	"billAmount":     "bill_amount",
	"profit":         "profit",
	"groupName":      "group_name",
	"callbackDate":   "callback_date",
	"location":       "location",
	"createdBy":      "created_by",
	"createdAt":      "created_at",
	"updatedAt":      "updated_at",
	"rawId":          "raw_id",
}

// ToRow projects the record onto its snake_case persistence shape. The whole
// record also travels in the payload column for a lossless round trip.
func (r Record) ToRow() store.Row {
	row := store.Row{
		"id":                    r.ID,
		ColumnFor["jobCardNumber"]:  ptrValue(r.JobCardNumber),
		ColumnFor["regNo"]:          ptrValue(r.RegNo),
		ColumnFor["model"]:          ptrValue(r.Model),
		ColumnFor["color"]:          ptrValue(r.Color),
		ColumnFor["chassis"]:        ptrValue(r.Chassis),
		ColumnFor["engineNum"]:      ptrValue(r.EngineNum),
		ColumnFor["customerName"]:   ptrValue(r.CustomerName),
		ColumnFor["customerMobile"]: ptrValue(r.CustomerMobile),
		ColumnFor["jobType"]:        r.JobType,
		ColumnFor["advisor"]:        ptrValue(r.Advisor),
		ColumnFor["technician"]:     ptrValue(r.Technician),
		ColumnFor["status"]:         r.Status,
		ColumnFor["currentStage"]:   r.CurrentStage,
		ColumnFor["labourAmt"]:      floatValue(r.LabourAmt),
		ColumnFor["partAmt"]:        floatValue(r.PartAmt),
		ColumnFor["billAmount"]:     floatValue(r.BillAmount),
		ColumnFor["profit"]:         floatValue(r.Profit),
		ColumnFor["groupName"]:      ptrValue(r.GroupName),
		ColumnFor["callbackDate"]:   ptrValue(r.CallbackDate),
		ColumnFor["location"]:       ptrValue(r.Location),
		ColumnFor["createdBy"]:      r.CreatedBy,
		ColumnFor["createdAt"]:      r.CreatedAt,
		ColumnFor["updatedAt"]:      r.UpdatedAt,
		ColumnFor["rawId"]:          ptrValue(r.RawID),
	}

	if payload, err := json.Marshal(r); err == nil {
		row["payload"] = payload
	}
	return row
}

// FromRow rebuilds a record from its persisted shape. The payload column is
// authoritative; rows written by this module always carry one.
func FromRow(row store.Row) (Record, error) {
	var payload []byte
	switch v := row["payload"].(type) {
	case []byte:
		payload = v
	case string:
		payload = []byte(v)
	case map[string]any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return Record{}, fmt.Errorf("re-encode payload: %w", err)
		}
		payload = encoded
	default:
		return Record{}, fmt.Errorf("job row has no payload document")
	}

	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return Record{}, fmt.Errorf("decode job payload: %w", err)
	}
	if rec.ID == "" {
		if id, ok := row["id"].(string); ok {
			rec.ID = id
		}
	}
	return rec, nil
}

func ptrValue(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func floatValue(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
