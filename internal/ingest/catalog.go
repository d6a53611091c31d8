package ingest

// Field is one canonical target attribute a raw record can be mapped onto.
type Field struct {
	Key   string
	Label string
}

// Catalog is the fixed, ordered set of canonical fields. Keys are stable:
// renaming one breaks every saved mapping preset that references it. Order
// matters — auto-matching and ambiguous-mapping resolution take the first
// match in this order.
var Catalog = []Field{
	{Key: "srl_no", Label: "Srl No"},
	{Key: "dealer_name", Label: "Dealer Name"},
	{Key: "dealer_city", Label: "Dealer City"},
	{Key: "location", Label: "Location"},
	{Key: "registration_no", Label: "Registration No"},
	{Key: "bill_no", Label: "Bill No"},
	{Key: "job_card_no", Label: "Job Card No"},
	{Key: "jc_date_time", Label: "JC Date & Time"},
	{Key: "service_type", Label: "Service Type"},
	{Key: "repeat_revisit", Label: "Repeat/Revisit"},
	{Key: "customer_name", Label: "Customer Name"},
	{Key: "mobile_no", Label: "Mobile No"},
	{Key: "customer_catg", Label: "Customer Catg"},
	{Key: "psf_status", Label: "PSF Status"},
	{Key: "chassis", Label: "Chassis"},
	{Key: "engine_num", Label: "Engine Num"},
	{Key: "color", Label: "Color"},
	{Key: "variant", Label: "Variant"},
	{Key: "model", Label: "Model"},
	{Key: "mi_yn", Label: "MI_YN"},
	{Key: "sale_date", Label: "Sale Date"},
	{Key: "group", Label: "Group"},
	{Key: "sa", Label: "S.A"},
	{Key: "technician", Label: "Technician"},
	{Key: "circular_no", Label: "Circular No"},
	{Key: "mileage", Label: "Mileage"},
	{Key: "est_lab_amt", Label: "Est. Lab Amt"},
	{Key: "est_part_amt", Label: "Est. Part Amt"},
	{Key: "promised_dt", Label: "Promised Dt"},
	{Key: "ready_date_time", Label: "Ready Date & Time"},
	{Key: "rev_est_part_amt", Label: "Rev. Est. Part Amt"},
	{Key: "rev_est_lab_amt", Label: "Rev Est Lab Amt"},
	{Key: "jc_source", Label: "JC Source"},
	{Key: "app_sent_date", Label: "App Sent Date"},
	{Key: "app_rej_date", Label: "App REJ Date"},
	{Key: "approval_status", Label: "Approval Status"},
	{Key: "cust_remarks", Label: "Cust Remarks"},
	{Key: "dlr_remarks", Label: "Dlr Remarks"},
	{Key: "status", Label: "Status"},
	{Key: "bill_date", Label: "Bill Date"},
	{Key: "labour_amt", Label: "Labour Amt"},
	{Key: "part_amt", Label: "Part Amt"},
	{Key: "pickup_required", Label: "Pickup Required"},
	{Key: "pickup_date", Label: "Pickup Date"},
	{Key: "pickup_location", Label: "Pickup Location"},
	{Key: "bill_amount", Label: "Bill Amount"},
	{Key: "address1", Label: "Address1"},
	{Key: "address2", Label: "Address2"},
	{Key: "address3", Label: "Address3"},
	{Key: "city", Label: "City"},
	{Key: "pin", Label: "Pin"},
	{Key: "dob", Label: "DOB"},
	{Key: "doa", Label: "DOA"},
	{Key: "email", Label: "Email"},
	{Key: "chkin_dt", Label: "CHKIN_DT"},
	{Key: "group_name", Label: "Group Name"},
	{Key: "callback_date", Label: "Callback Date"},
}
