// Package extract turns free-form customer messages into candidate lead fields.
// Every function here is pure: the same text always gives the same result.
package extract

// Result holds everything found in one message. Callers decide which fields
// matter for the current dialogue step.
type Result struct {
	Phone         *string
	Vehicle       *Vehicle
	ScheduledWhen *string
	IsUrgent      bool
	IsRedFlag     bool
}

// Parse runs all extractors unconditionally.
func Parse(text string) Result {
	var r Result
	if phone, ok := ExtractPhone(text); ok {
		r.Phone = &phone
	}
	if v, ok := ExtractVehicle(text); ok {
		r.Vehicle = &v
	}
	if when, ok := ExtractScheduledTime(text); ok {
		r.ScheduledWhen = &when
	}
	r.IsUrgent = IsUrgentRequest(text)
	r.IsRedFlag = IsRedFlag(text)
	return r
}
