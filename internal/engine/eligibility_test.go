package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfield/crewmarket/internal/engine"
	"github.com/openfield/crewmarket/pkg/models"
)

func TestJobVisibleTo(t *testing.T) {
	job := func(wt models.WorkType, st models.ServiceType) models.JobRequest {
		return models.JobRequest{WorkType: wt, ServiceType: st, Status: models.JobOpen}
	}

	tests := []struct {
		name    string
		job     models.JobRequest
		profile models.WorkerProfile
		want    bool
	}{
		{
			name:    "matching work type, owner sees operator_with_equipment",
			job:     job(models.WorkTypeBackhoe, models.OperatorWithEquipment),
			profile: models.WorkerProfile{WorkType: models.WorkTypeBackhoe, OwnsEquipment: true},
			want:    true,
		},
		{
			name:    "owner does not see operator_only work",
			job:     job(models.WorkTypeBackhoe, models.OperatorOnly),
			profile: models.WorkerProfile{WorkType: models.WorkTypeBackhoe, OwnsEquipment: true},
			want:    false,
		},
		{
			name:    "owner does not see equipment_only work",
			job:     job(models.WorkTypeBackhoe, models.EquipmentOnly),
			profile: models.WorkerProfile{WorkType: models.WorkTypeBackhoe, OwnsEquipment: true},
			want:    false,
		},
		{
			name:    "non-owner sees operator_only work",
			job:     job(models.WorkTypeCrane, models.OperatorOnly),
			profile: models.WorkerProfile{WorkType: models.WorkTypeCrane, OwnsEquipment: false},
			want:    true,
		},
		{
			name:    "non-owner sees operator_with_equipment work",
			job:     job(models.WorkTypeCrane, models.OperatorWithEquipment),
			profile: models.WorkerProfile{WorkType: models.WorkTypeCrane, OwnsEquipment: false},
			want:    true,
		},
		{
			name:    "non-owner does not see equipment_only work",
			job:     job(models.WorkTypeCrane, models.EquipmentOnly),
			profile: models.WorkerProfile{WorkType: models.WorkTypeCrane, OwnsEquipment: false},
			want:    false,
		},
		{
			name:    "work type mismatch hides the job",
			job:     job(models.WorkTypeExcavator, models.OperatorOnly),
			profile: models.WorkerProfile{WorkType: models.WorkTypeCrane, OwnsEquipment: false},
			want:    false,
		},
		{
			name:    "general-labor is visible to any declared type",
			job:     job(models.WorkTypeGeneralLabor, models.OperatorOnly),
			profile: models.WorkerProfile{WorkType: models.WorkTypeMason, OwnsEquipment: false},
			want:    true,
		},
		{
			name:    "general-labor still honors the equipment rule",
			job:     job(models.WorkTypeGeneralLabor, models.OperatorOnly),
			profile: models.WorkerProfile{WorkType: models.WorkTypeMason, OwnsEquipment: true},
			want:    false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, engine.JobVisibleTo(tc.job, tc.profile))
		})
	}
}

func TestEligibleJobs(t *testing.T) {
	profile := models.WorkerProfile{WorkType: models.WorkTypeBackhoe, OwnsEquipment: false}

	jobs := []models.JobRequest{
		{ID: 1, WorkType: models.WorkTypeBackhoe, ServiceType: models.OperatorOnly, Status: models.JobOpen},
		{ID: 2, WorkType: models.WorkTypeCrane, ServiceType: models.OperatorOnly, Status: models.JobOpen},
		{ID: 3, WorkType: models.WorkTypeGeneralLabor, ServiceType: models.OperatorWithEquipment, Status: models.JobOpen},
		{ID: 4, WorkType: models.WorkTypeBackhoe, ServiceType: models.OperatorOnly, Status: models.JobAssigned},
	}

	got := engine.EligibleJobs(profile, jobs)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)
}

func TestEligibleServiceRequests(t *testing.T) {
	reqs := []models.ServiceRequest{
		{ID: 1, Status: models.RequestOpen},
		{ID: 2, Status: models.RequestClosed},
		{ID: 3, Status: models.RequestOpen},
		{ID: 4, Status: models.RequestCancelled},
	}

	got := engine.EligibleServiceRequests(reqs)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)
}
