package domain

import (
	"strconv"
	"strings"
)

// LeadFields is the partial checklist of a lead. A nil field means "not collected yet".
type LeadFields struct {
	Service *string
	Variant *string
	Zone    *string
	Goal    *string
	Comment *string

	VehicleBrand   *string
	VehicleModel   *string
	VehicleYear    *int
	VehicleSkipped *bool

	ScheduledWhen *string
	Phone         *string

	IsUrgent  *bool
	IsRedFlag *bool
}

func Ptr[T any](v T) *T { return &v }

// Merge returns f with every present field of other applied on top.
// Absent fields of other never clear anything in f.
func (f LeadFields) Merge(other LeadFields) LeadFields {
	merge(&f.Service, other.Service)
	merge(&f.Variant, other.Variant)
	merge(&f.Zone, other.Zone)
	merge(&f.Goal, other.Goal)
	merge(&f.Comment, other.Comment)
	merge(&f.VehicleBrand, other.VehicleBrand)
	merge(&f.VehicleModel, other.VehicleModel)
	merge(&f.VehicleYear, other.VehicleYear)
	merge(&f.VehicleSkipped, other.VehicleSkipped)
	merge(&f.ScheduledWhen, other.ScheduledWhen)
	merge(&f.Phone, other.Phone)
	merge(&f.IsUrgent, other.IsUrgent)
	merge(&f.IsRedFlag, other.IsRedFlag)
	return f
}

func merge[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

func (f LeadFields) IsEmpty() bool {
	return f == LeadFields{}
}

func (f LeadFields) HasVehicle() bool {
	return f.VehicleBrand != nil || (f.VehicleSkipped != nil && *f.VehicleSkipped)
}

// Complete reports whether the lead can be handed off: service, vehicle or explicit skip,
// preferred time and phone.
func (f LeadFields) Complete() bool {
	return f.Service != nil && f.HasVehicle() && f.ScheduledWhen != nil && f.Phone != nil
}

func (f LeadFields) Urgent() bool  { return f.IsUrgent != nil && *f.IsUrgent }
func (f LeadFields) RedFlag() bool { return f.IsRedFlag != nil && *f.IsRedFlag }

// VehicleLine renders "Toyota Camry 2020" from whatever vehicle parts are present.
func (f LeadFields) VehicleLine() string {
	parts := make([]string, 0, 3)
	if f.VehicleBrand != nil && *f.VehicleBrand != "" {
		parts = append(parts, *f.VehicleBrand)
	}
	if f.VehicleModel != nil && *f.VehicleModel != "" {
		parts = append(parts, *f.VehicleModel)
	}
	if f.VehicleYear != nil {
		parts = append(parts, strconv.Itoa(*f.VehicleYear))
	}
	return strings.Join(parts, " ")
}

// Map flattens the present fields into field-name → value pairs.
func (f LeadFields) Map() map[string]string {
	out := make(map[string]string)
	putStr := func(k string, v *string) {
		if v != nil {
			out[k] = *v
		}
	}
	putStr("service", f.Service)
	putStr("variant", f.Variant)
	putStr("zone", f.Zone)
	putStr("goal", f.Goal)
	putStr("comment", f.Comment)
	putStr("vehicle_brand", f.VehicleBrand)
	putStr("vehicle_model", f.VehicleModel)
	if f.VehicleYear != nil {
		out["vehicle_year"] = strconv.Itoa(*f.VehicleYear)
	}
	if f.VehicleSkipped != nil {
		out["vehicle_skipped"] = strconv.FormatBool(*f.VehicleSkipped)
	}
	putStr("scheduled_when", f.ScheduledWhen)
	putStr("phone", f.Phone)
	if f.IsUrgent != nil {
		out["is_urgent"] = strconv.FormatBool(*f.IsUrgent)
	}
	if f.IsRedFlag != nil {
		out["is_red_flag"] = strconv.FormatBool(*f.IsRedFlag)
	}
	return out
}
