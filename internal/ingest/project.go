package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bodyshop-platform/api/internal/jobs"
)

// jobAliases is the explicit alias policy: each job attribute lists, in
// priority order, the canonical keys it may be sourced from. Keeping this in
// one table makes the fallback behavior auditable instead of being scattered
// through the projection.
var jobAliases = map[string][]string{
	"jobCardNumber":  {"job_card_no", "bill_no"},
	"regNo":          {"registration_no"},
	"model":          {"model"},
	"color":          {"color"},
	"chassis":        {"chassis"},
	"engineNum":      {"engine_num"},
	"customerName":   {"customer_name", "customer"},
	"customerMobile": {"mobile_no", "phone"},
	"jobType":        {"service_type"},
	"advisor":        {"sa", "advisor"},
	"technician":     {"technician"},
	"status":         {"status"},
	"labourAmt":      {"labour_amt", "est_lab_amt", "labouramt"},
	"partAmt":        {"part_amt", "est_part_amt", "partamt"},
	"billAmount":     {"bill_amount", "bill"},
	"groupName":      {"group", "group_name"},
	"callbackDate":   {"callback_date", "follow_up_date"},
	"arrivalDate":    {"jc_date_time"},
	"createdAt":      {"jc_date_time", "created_at"},
	"location":       {"location"},
	"dealerName":     {"dealer_name"},
	"dealerCity":     {"dealer_city"},
	"variant":        {"variant"},
	"saleDate":       {"sale_date"},
	"circularNo":     {"circular_no"},
	"mileage":        {"mileage"},
	"promisedDt":     {"promised_dt"},
	"readyDateTime":  {"ready_date_time"},
	"jcSource":       {"jc_source"},
	"approvalStatus": {"approval_status"},
	"custRemarks":    {"cust_remarks"},
	"dlrRemarks":     {"dlr_remarks"},
	"pickupRequired": {"pickup_required"},
	"pickupDate":     {"pickup_date"},
	"pickupLocation": {"pickup_location"},
	"address1":       {"address1"},
	"address2":       {"address2"},
	"address3":       {"address3"},
	"city":           {"city"},
	"pin":            {"pin"},
	"dob":            {"dob"},
	"doa":            {"doa"},
	"email":          {"email"},
	"chkinDt":        {"chkin_dt"},
}

// ProjectJob derives the canonical job entity from a raw record. Field
// derivation never fails: every lookup degrades to nil on missing data.
// Workflow state is reset on ingestion — the stage is always "Job Created"
// regardless of any stage hint in the source.
func ProjectJob(rec RawRecord, res *Resolver, userID string, now time.Time) jobs.Record {
	alias := func(attr string) *string {
		return res.First(rec, jobAliases[attr]...)
	}

	job := jobs.Record{
		ID:             jobIdentifier(rec, res, now),
		JobCardNumber:  alias("jobCardNumber"),
		RegNo:          alias("regNo"),
		Model:          alias("model"),
		Color:          alias("color"),
		Chassis:        alias("chassis"),
		EngineNum:      alias("engineNum"),
		CustomerName:   alias("customerName"),
		CustomerMobile: alias("customerMobile"),
		Advisor:        alias("advisor"),
		Technician:     alias("technician"),
		GroupName:      alias("groupName"),
		CallbackDate:   alias("callbackDate"),
		ArrivalDate:    alias("arrivalDate"),
		Location:       alias("location"),
		DealerName:     alias("dealerName"),
		DealerCity:     alias("dealerCity"),
		Variant:        alias("variant"),
		SaleDate:       alias("saleDate"),
		CircularNo:     alias("circularNo"),
		Mileage:        alias("mileage"),
		PromisedDt:     alias("promisedDt"),
		ReadyDateTime:  alias("readyDateTime"),
		JcSource:       alias("jcSource"),
		ApprovalStatus: alias("approvalStatus"),
		CustRemarks:    alias("custRemarks"),
		DlrRemarks:     alias("dlrRemarks"),
		PickupRequired: alias("pickupRequired"),
		PickupDate:     alias("pickupDate"),
		PickupLocation: alias("pickupLocation"),
		Address1:       alias("address1"),
		Address2:       alias("address2"),
		Address3:       alias("address3"),
		City:           alias("city"),
		Pin:            alias("pin"),
		Dob:            alias("dob"),
		Doa:            alias("doa"),
		Email:          alias("email"),
		ChkinDt:        alias("chkinDt"),

		JobType:      jobs.JobTypeCash,
		Status:       jobs.DefaultStatus,
		CurrentStage: jobs.InitialStage,

		CompletedStages: []string{},
		Notes:           []map[string]any{},
		CallLogs:        []map[string]any{},
		Services:        []map[string]any{},
		Photos:          []map[string]any{},
		ActivityLog:     []map[string]any{},

		CreatedBy: userID,
		UpdatedAt: now.UTC().Format(time.RFC3339),
	}

	if job.JobCardNumber == nil {
		id := job.ID
		job.JobCardNumber = &id
	}
	if st := alias("jobType"); st != nil {
		job.JobType = jobs.NormalizeJobType(*st)
	}
	if status := alias("status"); status != nil {
		job.Status = *status
	}

	job.LabourAmt = jobs.CoerceAmount(alias("labourAmt"))
	job.PartAmt = jobs.CoerceAmount(alias("partAmt"))
	job.BillAmount = jobs.CoerceAmount(alias("billAmount"))
	job.RecomputeProfit()

	if created := alias("createdAt"); created != nil {
		job.CreatedAt = *created
	} else {
		job.CreatedAt = now.UTC().Format(time.RFC3339)
	}

	if rec.SourceHash != "" {
		hash := rec.SourceHash
		job.RawID = &hash
	}

	return job
}

// jobIdentifier picks the persistence key: job card number, then bill number,
// then a generated fallback id.
func jobIdentifier(rec RawRecord, res *Resolver, now time.Time) string {
	if v := res.Value(rec, "job_card_no"); v != nil {
		return *v
	}
	if v := res.Value(rec, "bill_no"); v != nil {
		return *v
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("job-%d-%s", now.UnixMilli(), suffix)
}
