package services

import (
	"context"
	"testing"

	"pathgo/internal/models"
	"pathgo/internal/repositories/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeApptRepo struct {
	interfaces.AppointmentRepository
	appts map[primitive.ObjectID]*models.Appointment
}

func newFakeApptRepo() *fakeApptRepo {
	return &fakeApptRepo{appts: make(map[primitive.ObjectID]*models.Appointment)}
}

func (f *fakeApptRepo) Create(ctx context.Context, appt *models.Appointment) error {
	for _, existing := range f.appts {
		if existing.DoctorID == appt.DoctorID && existing.Date == appt.Date &&
			existing.Slot == appt.Slot && existing.Status != models.AppointmentCancelled {
			return interfaces.ErrSlotTaken
		}
	}
	appt.ID = primitive.NewObjectID()
	appt.Status = models.AppointmentBooked
	f.appts[appt.ID] = appt
	return nil
}

func (f *fakeApptRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	appt, ok := f.appts[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	copied := *appt
	return &copied, nil
}

func (f *fakeApptRepo) GetByDoctor(ctx context.Context, doctorID primitive.ObjectID, date string) ([]*models.Appointment, error) {
	var out []*models.Appointment
	for _, appt := range f.appts {
		if appt.DoctorID == doctorID && appt.Date == date && appt.Status != models.AppointmentCancelled {
			copied := *appt
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeApptRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.AppointmentStatus) (*models.Appointment, error) {
	appt, ok := f.appts[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	if appt.Status != from {
		return nil, interfaces.ErrStaleWrite
	}
	appt.Status = to
	copied := *appt
	return &copied, nil
}

type fakeDoctorRepo struct {
	interfaces.DoctorRepository
	doctors map[primitive.ObjectID]*models.Doctor
}

func (f *fakeDoctorRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Doctor, error) {
	doctor, ok := f.doctors[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return doctor, nil
}

type fakeCurePartnerRepo struct {
	interfaces.CurePartnerRepository
	partners map[primitive.ObjectID]*models.CurePartner
}

func (f *fakeCurePartnerRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.CurePartner, error) {
	for _, p := range f.partners {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (f *fakeCurePartnerRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.CurePartner, error) {
	p, ok := f.partners[userID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return p, nil
}

type recordingTxnRepo struct {
	interfaces.TransactionRepository
	created []*models.Transaction
}

func (f *recordingTxnRepo) Create(ctx context.Context, txn *models.Transaction) error {
	txn.ID = primitive.NewObjectID()
	f.created = append(f.created, txn)
	return nil
}

type apptFixture struct {
	svc      AppointmentService
	appts    *fakeApptRepo
	txns     *recordingTxnRepo
	doctor   *models.Doctor
	hospital *models.CurePartner
	userID   primitive.ObjectID
}

func newApptFixture(t *testing.T) *apptFixture {
	t.Helper()

	hospital := &models.CurePartner{
		ID:     primitive.NewObjectID(),
		UserID: primitive.NewObjectID(),
		Name:   "City Care Hospital",
	}
	doctor := &models.Doctor{
		ID:             primitive.NewObjectID(),
		PartnerID:      hospital.ID,
		Name:           "Dr. Rao",
		Specialization: "Cardiology",
		Fee:            500,
		Slots:          []string{"10:00", "10:30", "11:00"},
		Active:         true,
	}

	appts := newFakeApptRepo()
	txns := &recordingTxnRepo{}
	svc := NewAppointmentService(
		appts,
		&fakeDoctorRepo{doctors: map[primitive.ObjectID]*models.Doctor{doctor.ID: doctor}},
		&fakeCurePartnerRepo{partners: map[primitive.ObjectID]*models.CurePartner{hospital.UserID: hospital}},
		&fakeUserRepo{users: map[primitive.ObjectID]*models.User{}},
		txns,
		noopNotify{},
		testLogger(t),
	)

	return &apptFixture{svc: svc, appts: appts, txns: txns, doctor: doctor, hospital: hospital, userID: primitive.NewObjectID()}
}

func (fx *apptFixture) book(t *testing.T, slot string) *models.Appointment {
	t.Helper()
	appt, err := fx.svc.Book(context.Background(), fx.userID, &BookAppointmentInput{
		DoctorID:     fx.doctor.ID,
		PatientName:  "Meera",
		PatientPhone: "+919876543210",
		Date:         "2026-09-01",
		Slot:         slot,
	})
	require.NoError(t, err)
	return appt
}

func TestAvailableSlotsExcludesBooked(t *testing.T) {
	fx := newApptFixture(t)

	free, err := fx.svc.AvailableSlots(context.Background(), fx.doctor.ID, "2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00", "10:30", "11:00"}, free)

	fx.book(t, "10:30")

	free, err = fx.svc.AvailableSlots(context.Background(), fx.doctor.ID, "2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00", "11:00"}, free)
}

func TestAvailableSlotsRejectsBadDate(t *testing.T) {
	fx := newApptFixture(t)

	_, err := fx.svc.AvailableSlots(context.Background(), fx.doctor.ID, "01-09-2026")
	assert.Error(t, err)
}

func TestBookCopiesDoctorDetails(t *testing.T) {
	fx := newApptFixture(t)
	appt := fx.book(t, "10:00")

	assert.Equal(t, models.AppointmentBooked, appt.Status)
	assert.Equal(t, fx.hospital.ID, appt.PartnerID)
	assert.Equal(t, "Dr. Rao", appt.DoctorName)
	assert.Equal(t, "Cardiology", appt.Specialization)
	assert.Equal(t, 500.0, appt.Fee)
}

func TestBookSameSlotTwice(t *testing.T) {
	fx := newApptFixture(t)
	fx.book(t, "10:00")

	_, err := fx.svc.Book(context.Background(), primitive.NewObjectID(), &BookAppointmentInput{
		DoctorID:     fx.doctor.ID,
		PatientName:  "Arjun",
		PatientPhone: "+919812345678",
		Date:         "2026-09-01",
		Slot:         "10:00",
	})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestBookUnofferedSlot(t *testing.T) {
	fx := newApptFixture(t)

	_, err := fx.svc.Book(context.Background(), fx.userID, &BookAppointmentInput{
		DoctorID:     fx.doctor.ID,
		PatientName:  "Meera",
		PatientPhone: "+919876543210",
		Date:         "2026-09-01",
		Slot:         "23:00",
	})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestBookInactiveDoctor(t *testing.T) {
	fx := newApptFixture(t)
	fx.doctor.Active = false

	_, err := fx.svc.Book(context.Background(), fx.userID, &BookAppointmentInput{
		DoctorID:     fx.doctor.ID,
		PatientName:  "Meera",
		PatientPhone: "+919876543210",
		Date:         "2026-09-01",
		Slot:         "10:00",
	})
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestCancelFreesSlot(t *testing.T) {
	fx := newApptFixture(t)
	appt := fx.book(t, "10:00")

	cancelled, err := fx.svc.Cancel(context.Background(), appt.ID, fx.userID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentCancelled, cancelled.Status)

	// the slot opens back up
	free, err := fx.svc.AvailableSlots(context.Background(), fx.doctor.ID, "2026-09-01")
	require.NoError(t, err)
	assert.Contains(t, free, "10:00")

	// and may be booked again
	fx.book(t, "10:00")
}

func TestCancelByStranger(t *testing.T) {
	fx := newApptFixture(t)
	appt := fx.book(t, "10:00")

	_, err := fx.svc.Cancel(context.Background(), appt.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotRideOwner)
}

func TestConfirmThenCompleteRecordsFee(t *testing.T) {
	fx := newApptFixture(t)
	appt := fx.book(t, "11:00")

	confirmed, err := fx.svc.Confirm(context.Background(), appt.ID, fx.hospital.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentConfirmed, confirmed.Status)

	completed, err := fx.svc.Complete(context.Background(), appt.ID, fx.hospital.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentCompleted, completed.Status)

	require.Len(t, fx.txns.created, 1)
	txn := fx.txns.created[0]
	assert.Equal(t, models.TransactionKindConsultation, txn.Kind)
	assert.Equal(t, 500.0, txn.Amount)
	assert.Equal(t, 476.19, txn.BaseFare)
	assert.Equal(t, 23.81, txn.GST)
}

func TestCompleteWithoutConfirm(t *testing.T) {
	fx := newApptFixture(t)
	appt := fx.book(t, "11:00")

	_, err := fx.svc.Complete(context.Background(), appt.ID, fx.hospital.UserID)
	assert.ErrorIs(t, err, ErrRideConflict)
	assert.Empty(t, fx.txns.created)
}
