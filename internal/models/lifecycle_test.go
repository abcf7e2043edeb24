package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGarageRequestTransitions(t *testing.T) {
	assert.True(t, GarageRequestRequested.CanTransition(GarageRequestAccepted))
	assert.True(t, GarageRequestAccepted.CanTransition(GarageRequestEnRoute))
	assert.True(t, GarageRequestEnRoute.CanTransition(GarageRequestCompleted))

	// cancellable until completed
	assert.True(t, GarageRequestRequested.CanTransition(GarageRequestCancelled))
	assert.True(t, GarageRequestAccepted.CanTransition(GarageRequestCancelled))
	assert.True(t, GarageRequestEnRoute.CanTransition(GarageRequestCancelled))

	assert.False(t, GarageRequestRequested.CanTransition(GarageRequestCompleted))
	assert.False(t, GarageRequestCompleted.CanTransition(GarageRequestCancelled))
	assert.False(t, GarageRequestCancelled.CanTransition(GarageRequestAccepted))
}

func TestEmergencyTransitions(t *testing.T) {
	assert.True(t, EmergencyRequested.CanTransition(EmergencyAmbulanceAssigned))
	assert.True(t, EmergencyAmbulanceAssigned.CanTransition(EmergencyEnRoute))
	assert.True(t, EmergencyEnRoute.CanTransition(EmergencyAdmitted))
	assert.True(t, EmergencyAdmitted.CanTransition(EmergencyClosed))

	// no cancellation once the patient is admitted
	assert.False(t, EmergencyAdmitted.CanTransition(EmergencyCancelled))
	assert.False(t, EmergencyRequested.CanTransition(EmergencyAdmitted))
	assert.False(t, EmergencyClosed.CanTransition(EmergencyEnRoute))
}

func TestAppointmentTransitions(t *testing.T) {
	assert.True(t, AppointmentBooked.CanTransition(AppointmentConfirmed))
	assert.True(t, AppointmentConfirmed.CanTransition(AppointmentCompleted))
	assert.True(t, AppointmentBooked.CanTransition(AppointmentCancelled))
	assert.True(t, AppointmentConfirmed.CanTransition(AppointmentCancelled))

	assert.False(t, AppointmentBooked.CanTransition(AppointmentCompleted))
	assert.False(t, AppointmentCompleted.CanTransition(AppointmentCancelled))
	assert.False(t, AppointmentCancelled.CanTransition(AppointmentBooked))
}
