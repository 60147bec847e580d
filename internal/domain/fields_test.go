package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeadFields_MergeNeverClears(t *testing.T) {
	base := LeadFields{Phone: Ptr("+79991234567"), Service: Ptr("ppf")}

	got := base.Merge(LeadFields{ScheduledWhen: Ptr("завтра")})

	assert.Equal(t, "+79991234567", *got.Phone)
	assert.Equal(t, "ppf", *got.Service)
	assert.Equal(t, "завтра", *got.ScheduledWhen)
}

func TestLeadFields_MergeOverridesPresent(t *testing.T) {
	base := LeadFields{ScheduledWhen: Ptr("завтра")}
	got := base.Merge(LeadFields{ScheduledWhen: Ptr("в пятницу")})
	assert.Equal(t, "в пятницу", *got.ScheduledWhen)
}

func TestLeadFields_Complete(t *testing.T) {
	f := LeadFields{Service: Ptr("ppf"), ScheduledWhen: Ptr("завтра"), Phone: Ptr("+79991234567")}
	assert.False(t, f.Complete(), "vehicle missing")

	assert.True(t, f.Merge(LeadFields{VehicleSkipped: Ptr(true)}).Complete())
	assert.True(t, f.Merge(LeadFields{VehicleBrand: Ptr("Toyota")}).Complete())
}

func TestLeadFields_VehicleLineAndMap(t *testing.T) {
	f := LeadFields{VehicleBrand: Ptr("Toyota"), VehicleModel: Ptr(""), VehicleYear: Ptr(2020), IsUrgent: Ptr(true)}

	assert.Equal(t, "Toyota 2020", f.VehicleLine())
	m := f.Map()
	assert.Equal(t, "2020", m["vehicle_year"])
	assert.Equal(t, "true", m["is_urgent"])
	_, ok := m["phone"]
	assert.False(t, ok)
	assert.True(t, LeadFields{}.IsEmpty())
	assert.False(t, f.IsEmpty())
}

func TestLeadStatus_Active(t *testing.T) {
	assert.True(t, LeadNew.Active())
	assert.True(t, LeadInWork.Active())
	assert.False(t, LeadCompleted.Active())
	assert.False(t, LeadRejected.Active())
}
