package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"gauge-erp-backend/internal/model"
	"gauge-erp-backend/internal/status"
	"gauge-erp-backend/internal/store"
)

func TestCheckout_UnsealsOnFirstUse(t *testing.T) {
	env := newTestEnv(t)
	g := env.createGauge(t, model.Gauge{Ident: "GB0100", SealStatus: status.Sealed})

	require.NoError(t, env.svc.Checkout(context.Background(), g.ID, 9))

	got := env.gauge(t, g.ID)
	assert.Equal(t, status.CheckedOut, got.Status)
	assert.Equal(t, status.Unsealed, got.SealStatus)
	require.NotNil(t, got.CheckedOutTo)
	assert.Equal(t, int64(9), *got.CheckedOutTo)
}

func TestCheckout_RejectsIneligible(t *testing.T) {
	env := newTestEnv(t)
	g := env.createGauge(t, model.Gauge{Ident: "GB0101", Status: status.CalibrationDue})

	err := env.svc.Checkout(context.Background(), g.ID, 9)
	var notEligible *NotEligibleError
	require.ErrorAs(t, err, &notEligible)
	assert.Equal(t, "Calibration overdue", notEligible.Reason)

	got := env.gauge(t, g.ID)
	assert.Nil(t, got.CheckedOutTo)
	assert.Equal(t, status.CalibrationDue, got.Status)
}

func TestCheckout_SecondCheckoutConflicts(t *testing.T) {
	env := newTestEnv(t)
	g := env.createGauge(t, model.Gauge{Ident: "GB0102"})

	require.NoError(t, env.svc.Checkout(context.Background(), g.ID, 1))

	err := env.svc.Checkout(context.Background(), g.ID, 2)
	var notEligible *NotEligibleError
	require.ErrorAs(t, err, &notEligible)
	assert.Equal(t, "Already checked out", notEligible.Reason)

	// Still held by the first user.
	got := env.gauge(t, g.ID)
	require.NotNil(t, got.CheckedOutTo)
	assert.Equal(t, int64(1), *got.CheckedOutTo)
}

func TestCheckout_SetGoesOutTogether(t *testing.T) {
	env := newTestEnv(t)
	set := model.GaugeSet{Code: "TG-0012"}
	require.NoError(t, env.db.Create(&set).Error)

	goSide := env.createGauge(t, model.Gauge{Ident: "TG-0012-GO", SetID: &set.ID, SetRole: "GO"})
	noGoSide := env.createGauge(t, model.Gauge{Ident: "TG-0012-NOGO", SetID: &set.ID, SetRole: "NOGO"})

	require.NoError(t, env.svc.Checkout(context.Background(), goSide.ID, 4))

	for _, id := range []int64{goSide.ID, noGoSide.ID} {
		got := env.gauge(t, id)
		assert.Equal(t, status.CheckedOut, got.Status)
		require.NotNil(t, got.CheckedOutTo)
		assert.Equal(t, int64(4), *got.CheckedOutTo)
	}
}

func TestCheckout_IneligibleCompanionBlocksSet(t *testing.T) {
	env := newTestEnv(t)
	set := model.GaugeSet{Code: "TG-0013"}
	require.NoError(t, env.db.Create(&set).Error)

	goSide := env.createGauge(t, model.Gauge{Ident: "TG-0013-GO", SetID: &set.ID, SetRole: "GO"})
	env.createGauge(t, model.Gauge{
		Ident:   "TG-0013-NOGO",
		SetID:   &set.ID,
		SetRole: "NOGO",
		Status:  status.OutOfService,
	})

	err := env.svc.Checkout(context.Background(), goSide.ID, 4)
	var notEligible *NotEligibleError
	require.ErrorAs(t, err, &notEligible)

	// Neither half moved.
	got := env.gauge(t, goSide.ID)
	assert.Equal(t, status.Available, got.Status)
	assert.Nil(t, got.CheckedOutTo)
}

// faultyStore fails the status write for one specific gauge, letting tests
// break a multi-gauge transaction partway through.
type faultyStore struct {
	store.Store
	failID int64
}

func (f *faultyStore) SetGaugeStatus(ctx context.Context, tx *gorm.DB, id int64, from, to status.Status, at time.Time) error {
	if id == f.failID {
		return errors.New("write failed")
	}
	return f.Store.SetGaugeStatus(ctx, tx, id, from, to, at)
}

// When a later set member's write fails, the whole checkout rolls back and
// no event for the earlier member may escape.
func TestCheckout_FailedSetMemberEmitsNothing(t *testing.T) {
	env := newTestEnv(t)
	set := model.GaugeSet{Code: "TG-0015"}
	require.NoError(t, env.db.Create(&set).Error)

	goSide := env.createGauge(t, model.Gauge{Ident: "TG-0015-GO", SetID: &set.ID, SetRole: "GO"})
	noGoSide := env.createGauge(t, model.Gauge{Ident: "TG-0015-NOGO", SetID: &set.ID, SetRole: "NOGO"})

	svc := NewService(&faultyStore{Store: env.store, failID: noGoSide.ID}, env.publisher, testLogger())
	require.Error(t, svc.Checkout(context.Background(), goSide.ID, 4))

	for _, id := range []int64{goSide.ID, noGoSide.ID} {
		got := env.gauge(t, id)
		assert.Equal(t, status.Available, got.Status)
		assert.Nil(t, got.CheckedOutTo)
		assert.Equal(t, int64(0), env.changeCount(t, id))
	}
	assert.Empty(t, env.publisher.published, "rolled-back transitions must not be announced")
}

func TestCheckin_LandsInReturned(t *testing.T) {
	env := newTestEnv(t)
	g := env.createGauge(t, model.Gauge{Ident: "GB0110"})
	require.NoError(t, env.svc.Checkout(context.Background(), g.ID, 6))

	require.NoError(t, env.svc.Checkin(context.Background(), g.ID))

	got := env.gauge(t, g.ID)
	assert.Equal(t, status.Returned, got.Status)
	assert.Nil(t, got.CheckedOutTo)
}

func TestCheckin_RequiresCheckedOut(t *testing.T) {
	env := newTestEnv(t)
	g := env.createGauge(t, model.Gauge{Ident: "GB0111"})

	err := env.svc.Checkin(context.Background(), g.ID)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, status.Available, invalid.From)
}

func TestCheckin_SetComesBackTogether(t *testing.T) {
	env := newTestEnv(t)
	set := model.GaugeSet{Code: "TG-0014"}
	require.NoError(t, env.db.Create(&set).Error)

	goSide := env.createGauge(t, model.Gauge{Ident: "TG-0014-GO", SetID: &set.ID, SetRole: "GO"})
	noGoSide := env.createGauge(t, model.Gauge{Ident: "TG-0014-NOGO", SetID: &set.ID, SetRole: "NOGO"})
	require.NoError(t, env.svc.Checkout(context.Background(), goSide.ID, 4))

	require.NoError(t, env.svc.Checkin(context.Background(), noGoSide.ID))

	for _, id := range []int64{goSide.ID, noGoSide.ID} {
		got := env.gauge(t, id)
		assert.Equal(t, status.Returned, got.Status)
		assert.Nil(t, got.CheckedOutTo)
	}
}

func TestQCReview_ApproveRecomputesBaseStatus(t *testing.T) {
	env := newTestEnv(t)
	due := env.now.AddDate(0, 1, 0)
	g := env.createGauge(t, model.Gauge{Ident: "GB0120", Status: status.Returned, CalibrationDueDate: &due})

	require.NoError(t, env.svc.QCReview(context.Background(), g.ID, true))
	assert.Equal(t, status.Available, env.gauge(t, g.ID).Status)
}

func TestQCReview_ApproveOverdueGaugeStaysDue(t *testing.T) {
	env := newTestEnv(t)
	due := env.now.AddDate(0, 0, -5)
	g := env.createGauge(t, model.Gauge{Ident: "GB0121", Status: status.Returned, CalibrationDueDate: &due})

	require.NoError(t, env.svc.QCReview(context.Background(), g.ID, true))
	assert.Equal(t, status.CalibrationDue, env.gauge(t, g.ID).Status)
}

func TestQCReview_RejectQuarantines(t *testing.T) {
	env := newTestEnv(t)
	g := env.createGauge(t, model.Gauge{Ident: "GB0122", Status: status.Returned})

	require.NoError(t, env.svc.QCReview(context.Background(), g.ID, false))

	got := env.gauge(t, g.ID)
	assert.Equal(t, status.OutOfService, got.Status)
	assert.Equal(t, status.ConditionQuarantined, got.Condition)
}

func TestQCReview_RequiresReviewableStatus(t *testing.T) {
	env := newTestEnv(t)
	g := env.createGauge(t, model.Gauge{Ident: "GB0123"})

	err := env.svc.QCReview(context.Background(), g.ID, true)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
}

func TestCalibrationRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	oldDue := env.now.AddDate(0, 0, -10)
	g := env.createGauge(t, model.Gauge{
		Ident:              "GB0130",
		Status:             status.CalibrationDue,
		SealStatus:         status.Unsealed,
		CalibrationDueDate: &oldDue,
	})

	require.NoError(t, env.svc.SendForCalibration(context.Background(), g.ID))
	assert.Equal(t, status.OutForCalibration, env.gauge(t, g.ID).Status)

	require.NoError(t, env.svc.ReceiveFromCalibration(context.Background(), g.ID))
	got := env.gauge(t, g.ID)
	assert.Equal(t, status.PendingCertificate, got.Status)
	assert.Equal(t, status.Sealed, got.SealStatus, "gauge comes back from the lab under a fresh seal")

	newDue := env.now.AddDate(1, 0, 0)
	require.NoError(t, env.svc.AttachCertificate(context.Background(), g.ID, newDue))
	got = env.gauge(t, g.ID)
	assert.Equal(t, status.PendingRelease, got.Status)
	require.NotNil(t, got.CalibrationDueDate)
	assert.Equal(t, newDue.Unix(), got.CalibrationDueDate.Unix())

	require.NoError(t, env.svc.QCReview(context.Background(), g.ID, true))
	assert.Equal(t, status.Available, env.gauge(t, g.ID).Status)
}

func TestCalibrationOrderEnforced(t *testing.T) {
	env := newTestEnv(t)
	g := env.createGauge(t, model.Gauge{Ident: "GB0131"})

	var invalid *InvalidTransitionError
	require.ErrorAs(t, env.svc.ReceiveFromCalibration(context.Background(), g.ID), &invalid)
	require.ErrorAs(t, env.svc.AttachCertificate(context.Background(), g.ID, time.Now()), &invalid)

	// Cannot send a checked-out gauge to the lab.
	require.NoError(t, env.svc.Checkout(context.Background(), g.ID, 2))
	require.ErrorAs(t, env.svc.SendForCalibration(context.Background(), g.ID), &invalid)
}

func TestUnsealFlow(t *testing.T) {
	env := newTestEnv(t)
	g := env.createGauge(t, model.Gauge{Ident: "GB0140", SealStatus: status.Sealed})

	require.NoError(t, env.svc.RequestUnseal(context.Background(), g.ID))
	assert.Equal(t, status.PendingUnseal, env.gauge(t, g.ID).Status)

	require.NoError(t, env.svc.ApproveUnseal(context.Background(), g.ID))
	got := env.gauge(t, g.ID)
	assert.Equal(t, status.Available, got.Status)
	assert.Equal(t, status.Unsealed, got.SealStatus)
}

func TestRequestUnseal_RequiresSealedAvailable(t *testing.T) {
	env := newTestEnv(t)
	unsealed := env.createGauge(t, model.Gauge{Ident: "GB0141", SealStatus: status.Unsealed})
	var invalid *InvalidTransitionError
	require.ErrorAs(t, env.svc.RequestUnseal(context.Background(), unsealed.ID), &invalid)
}
