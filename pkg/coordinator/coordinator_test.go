package coordinator

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/staynest/booking-coordinator/pkg/chain"
	"github.com/staynest/booking-coordinator/pkg/models"
	"github.com/staynest/booking-coordinator/pkg/storage"
	"github.com/staynest/booking-coordinator/pkg/tx"
	"github.com/staynest/booking-coordinator/pkg/websockets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testGuest = "ST2GUEST00000000000000000000000000000000"
	testHost  = "ST3HOST000000000000000000000000000000000"
)

type fakeChain struct {
	properties      map[uint64]*models.Property
	bookings        map[uint64]*models.Booking
	guestIDs        []uint64
	propertyCounter uint64
	bookingCounter  uint64
	counterErr      error
	height          uint64
	statuses        map[string]*chain.TxStatus
}

func (f *fakeChain) GetProperty(ctx context.Context, id uint64) (*models.Property, error) {
	if p, ok := f.properties[id]; ok {
		return p, nil
	}
	return nil, chain.ErrNotFound
}

func (f *fakeChain) GetBooking(ctx context.Context, id uint64) (*models.Booking, error) {
	if b, ok := f.bookings[id]; ok {
		return b, nil
	}
	return nil, chain.ErrNotFound
}

func (f *fakeChain) GetDispute(ctx context.Context, bookingID uint64) (*models.Dispute, error) {
	return nil, chain.ErrNotFound
}

func (f *fakeChain) GetUserStats(ctx context.Context, address string) (*models.UserStats, error) {
	return nil, chain.ErrNotFound
}

func (f *fakeChain) GetPropertyCounter(ctx context.Context) (uint64, error) {
	return f.propertyCounter, f.counterErr
}

func (f *fakeChain) GetBookingCounter(ctx context.Context) (uint64, error) {
	return f.bookingCounter, f.counterErr
}

func (f *fakeChain) GetGuestBookingIDs(ctx context.Context, guest string) ([]uint64, error) {
	return f.guestIDs, nil
}

func (f *fakeChain) GetCurrentHeight(ctx context.Context) (uint64, error) {
	return f.height, nil
}

func (f *fakeChain) GetTransactionStatus(ctx context.Context, txID string) (*chain.TxStatus, error) {
	if s, ok := f.statuses[txID]; ok {
		return s, nil
	}
	return &chain.TxStatus{TxID: txID, State: "pending"}, nil
}

type fakeConfirmer struct {
	mu       sync.Mutex
	outcomes map[string]*chain.Outcome
	calls    int
}

func (f *fakeConfirmer) Confirm(ctx context.Context, txID string) (*chain.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls += 1
	if out, ok := f.outcomes[txID]; ok {
		return out, nil
	}
	return &chain.Outcome{TxID: txID, State: chain.StateTimeout}, nil
}

type fakeBroadcaster struct {
	result  *tx.BroadcastResult
	payload *tx.Payload
}

func (f *fakeBroadcaster) Broadcast(ctx context.Context, payload *tx.Payload) (*tx.BroadcastResult, error) {
	f.payload = payload
	return f.result, nil
}

// memStore is an in-memory PendingStore for exercising the orchestration
// flow without a real backend.
type memStore struct {
	mu  sync.Mutex
	ops map[string]models.PendingOperation
}

var _ storage.PendingStore = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{ops: make(map[string]models.PendingOperation)}
}

func (m *memStore) GetPending(ctx context.Context, txID string) (*models.PendingOperation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if op, ok := m.ops[txID]; ok {
		return &op, nil
	}
	return nil, storage.ErrPendingNotFound
}

func (m *memStore) ListPending(ctx context.Context) ([]models.PendingOperation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.PendingOperation, 0, len(m.ops))
	for _, op := range m.ops {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

func (m *memStore) ListStalePending(ctx context.Context, maxAge time.Duration) ([]models.PendingOperation, error) {
	all, _ := m.ListPending(ctx)
	cutoff := time.Now().Add(-maxAge)
	stale := make([]models.PendingOperation, 0, len(all))
	for _, op := range all {
		if op.SubmittedAt.Before(cutoff) {
			stale = append(stale, op)
		}
	}
	return stale, nil
}

func (m *memStore) AddPending(ctx context.Context, op *models.PendingOperation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ops[op.TxID]; ok {
		return nil
	}
	m.ops[op.TxID] = *op
	return nil
}

func (m *memStore) UpdatePending(ctx context.Context, op *models.PendingOperation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ops[op.TxID]; !ok {
		return storage.ErrPendingNotFound
	}
	m.ops[op.TxID] = *op
	return nil
}

func (m *memStore) RemovePending(ctx context.Context, txID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ops, txID)
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ops)
}

type capturePublisher struct {
	mu       sync.Mutex
	messages []websockets.Message
}

func (p *capturePublisher) Publish(ctx context.Context, message websockets.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, message)
	return nil
}

func (p *capturePublisher) byType(t websockets.MessageType) []websockets.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []websockets.Message
	for _, m := range p.messages {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

func uintPtr(v uint64) *uint64 { return &v }

func testCoordinator(fc *fakeChain, confirmer Confirmer, broadcaster tx.Broadcaster) (*Coordinator, *memStore, *capturePublisher) {
	store := newMemStore()
	publisher := &capturePublisher{}
	c := New(fc, confirmer, broadcaster, store, publisher, slog.New(slog.NewTextHandler(testWriter{}, nil)))
	return c, store, publisher
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestSubmitBooking_CancelledBroadcastLeavesNoTrace(t *testing.T) {
	fc := &fakeChain{
		properties:     map[uint64]*models.Property{7: {ID: 7, Owner: testHost, PricePerNight: 100}},
		bookingCounter: 4,
	}
	broadcaster := &fakeBroadcaster{result: &tx.BroadcastResult{Cancelled: true}}
	c, store, publisher := testCoordinator(fc, &fakeConfirmer{}, broadcaster)

	result, err := c.SubmitBooking(context.Background(), testGuest, 7, 1000, 1288)
	require.NoError(t, err)
	c.Wait()

	assert.True(t, result.Cancelled)
	assert.Empty(t, result.TxID)
	assert.Equal(t, 0, store.count())
	assert.Empty(t, publisher.messages)
}

func TestSubmitBooking_ConfirmedWithExtractedIDRetiresPending(t *testing.T) {
	fc := &fakeChain{
		properties:     map[uint64]*models.Property{7: {ID: 7, Owner: testHost, PricePerNight: 100}},
		bookings:       map[uint64]*models.Booking{9: {ID: 9, PropertyID: 7, Guest: testGuest, CheckInHeight: 1000}},
		bookingCounter: 9,
	}
	confirmer := &fakeConfirmer{outcomes: map[string]*chain.Outcome{
		"0xaaa": {TxID: "0xaaa", State: chain.StateSuccess, Value: uintPtr(9)},
	}}
	broadcaster := &fakeBroadcaster{result: &tx.BroadcastResult{TxID: "0xaaa"}}
	c, store, publisher := testCoordinator(fc, confirmer, broadcaster)

	result, err := c.SubmitBooking(context.Background(), testGuest, 7, 1000, 1288)
	require.NoError(t, err)
	c.Wait()

	assert.Equal(t, "0xaaa", result.TxID)
	assert.Equal(t, uint64(9), result.ExpectedID)
	assert.Equal(t, 0, store.count())

	confirmed := publisher.byType(websockets.MessageTypeOperationConfirmed)
	require.Len(t, confirmed, 1)
	payload := confirmed[0].Payload.(websockets.OperationEventPayload)
	assert.Equal(t, uint64(9), payload.EntityID)
	assert.False(t, payload.Provisional)
}

func TestSubmitBooking_FallbackIDStaysProvisionalUntilVerified(t *testing.T) {
	fc := &fakeChain{
		properties:     map[uint64]*models.Property{7: {ID: 7, Owner: testHost, PricePerNight: 100}},
		bookings:       map[uint64]*models.Booking{}, // expected id not visible yet
		bookingCounter: 9,
	}
	// Receipt repr the extractor cannot parse: no id, fall back to the
	// pre-read counter.
	confirmer := &fakeConfirmer{outcomes: map[string]*chain.Outcome{
		"0xbbb": {TxID: "0xbbb", State: chain.StateSuccess, Value: nil},
	}}
	broadcaster := &fakeBroadcaster{result: &tx.BroadcastResult{TxID: "0xbbb"}}
	c, store, _ := testCoordinator(fc, confirmer, broadcaster)

	_, err := c.SubmitBooking(context.Background(), testGuest, 7, 1000, 1288)
	require.NoError(t, err)
	c.Wait()

	op, err := store.GetPending(context.Background(), "0xbbb")
	require.NoError(t, err)
	assert.True(t, op.Provisional)
	assert.Equal(t, uint64(9), op.ExpectedID)
	// Status stays live so status-keyed listings and the stale sweep still
	// find the entry; only the flag marks it unverified.
	assert.Equal(t, models.PendingStatusPending, op.Status)
}

func TestSubmitBooking_FallbackIDVerifiedAgainstLedger(t *testing.T) {
	fc := &fakeChain{
		properties: map[uint64]*models.Property{7: {ID: 7, Owner: testHost, PricePerNight: 100}},
		bookings: map[uint64]*models.Booking{
			9: {ID: 9, PropertyID: 7, Guest: testGuest, CheckInHeight: 1000},
		},
		bookingCounter: 9,
	}
	confirmer := &fakeConfirmer{outcomes: map[string]*chain.Outcome{
		"0xccc": {TxID: "0xccc", State: chain.StateSuccess, Value: nil},
	}}
	broadcaster := &fakeBroadcaster{result: &tx.BroadcastResult{TxID: "0xccc"}}
	c, store, publisher := testCoordinator(fc, confirmer, broadcaster)

	_, err := c.SubmitBooking(context.Background(), testGuest, 7, 1000, 1288)
	require.NoError(t, err)
	c.Wait()

	// The booking under the expected id matches the submitted tuple, so the
	// fallback id is authoritative and the entry is retired.
	assert.Equal(t, 0, store.count())
	confirmed := publisher.byType(websockets.MessageTypeOperationConfirmed)
	require.Len(t, confirmed, 1)
	assert.False(t, confirmed[0].Payload.(websockets.OperationEventPayload).Provisional)
}

func TestSubmitBooking_AbortRetiresPendingWithReason(t *testing.T) {
	fc := &fakeChain{
		properties:     map[uint64]*models.Property{7: {ID: 7, Owner: testHost, PricePerNight: 100}},
		bookingCounter: 9,
	}
	confirmer := &fakeConfirmer{outcomes: map[string]*chain.Outcome{
		"0xddd": {TxID: "0xddd", State: chain.StateAbortedByResponse, Reason: "requested dates are not available"},
	}}
	broadcaster := &fakeBroadcaster{result: &tx.BroadcastResult{TxID: "0xddd"}}
	c, store, publisher := testCoordinator(fc, confirmer, broadcaster)

	_, err := c.SubmitBooking(context.Background(), testGuest, 7, 1000, 1288)
	require.NoError(t, err)
	c.Wait()

	assert.Equal(t, 0, store.count())
	failed := publisher.byType(websockets.MessageTypeOperationFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, "requested dates are not available", failed[0].Payload.(websockets.OperationEventPayload).Reason)
}

func TestSubmitBooking_PollTimeoutKeepsEntry(t *testing.T) {
	fc := &fakeChain{
		properties:     map[uint64]*models.Property{7: {ID: 7, Owner: testHost, PricePerNight: 100}},
		bookingCounter: 9,
	}
	// No scripted outcome: the confirmer reports a poll timeout.
	c, store, publisher := testCoordinator(fc, &fakeConfirmer{}, &fakeBroadcaster{result: &tx.BroadcastResult{TxID: "0xeee"}})

	_, err := c.SubmitBooking(context.Background(), testGuest, 7, 1000, 1288)
	require.NoError(t, err)
	c.Wait()

	assert.Equal(t, 1, store.count())
	assert.Len(t, publisher.byType(websockets.MessageTypeOperationStillPending), 1)
}

func TestConfirm_CachesTerminalOutcomes(t *testing.T) {
	confirmer := &fakeConfirmer{outcomes: map[string]*chain.Outcome{
		"0xfff": {TxID: "0xfff", State: chain.StateSuccess, Value: uintPtr(3)},
	}}
	c, _, _ := testCoordinator(&fakeChain{}, confirmer, &fakeBroadcaster{})

	first, err := c.confirm(context.Background(), "0xfff")
	require.NoError(t, err)
	second, err := c.confirm(context.Background(), "0xfff")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, confirmer.calls)

	out, ok := c.Outcome("0xfff")
	require.True(t, ok)
	assert.Equal(t, chain.StateSuccess, out.State)
}

func TestConfirm_TimeoutIsNotCached(t *testing.T) {
	confirmer := &fakeConfirmer{}
	c, _, _ := testCoordinator(&fakeChain{}, confirmer, &fakeBroadcaster{})

	_, err := c.confirm(context.Background(), "0x123")
	require.NoError(t, err)
	_, err = c.confirm(context.Background(), "0x123")
	require.NoError(t, err)

	assert.Equal(t, 2, confirmer.calls)
	_, ok := c.Outcome("0x123")
	assert.False(t, ok)
}

func TestSubmitListing_RecordsPendingForOwner(t *testing.T) {
	fc := &fakeChain{propertyCounter: 12}
	confirmer := &fakeConfirmer{outcomes: map[string]*chain.Outcome{
		"0xlst": {TxID: "0xlst", State: chain.StateSuccess, Value: uintPtr(12)},
	}}
	fc.properties = map[uint64]*models.Property{12: {ID: 12, Owner: testHost}}
	c, store, _ := testCoordinator(fc, confirmer, &fakeBroadcaster{result: &tx.BroadcastResult{TxID: "0xlst"}})

	result, err := c.SubmitListing(context.Background(), testHost, 250, 44, "QmMeta")
	require.NoError(t, err)
	c.Wait()

	assert.Equal(t, uint64(12), result.ExpectedID)
	assert.Equal(t, 0, store.count())
}

func TestReleasePayment_TracksWithoutPendingEntry(t *testing.T) {
	confirmer := &fakeConfirmer{outcomes: map[string]*chain.Outcome{
		"0xrel": {TxID: "0xrel", State: chain.StateSuccess},
	}}
	c, store, publisher := testCoordinator(&fakeChain{}, confirmer, &fakeBroadcaster{result: &tx.BroadcastResult{TxID: "0xrel"}})

	result, err := c.ReleasePayment(context.Background(), 5)
	require.NoError(t, err)
	c.Wait()

	assert.Equal(t, "0xrel", result.TxID)
	assert.Equal(t, 0, store.count())
	confirmed := publisher.byType(websockets.MessageTypeOperationConfirmed)
	require.Len(t, confirmed, 1)
	payload := confirmed[0].Payload.(websockets.OperationEventPayload)
	assert.Equal(t, uint64(5), payload.EntityID)
	assert.Equal(t, models.KindRelease, payload.Kind)
}

func TestRaiseDispute_EventCarriesDisputeKind(t *testing.T) {
	confirmer := &fakeConfirmer{outcomes: map[string]*chain.Outcome{
		"0xdsp": {TxID: "0xdsp", State: chain.StateSuccess},
	}}
	c, _, publisher := testCoordinator(&fakeChain{}, confirmer, &fakeBroadcaster{result: &tx.BroadcastResult{TxID: "0xdsp"}})

	_, err := c.RaiseDispute(context.Background(), 5, "property not as described", "QmEvidence")
	require.NoError(t, err)
	c.Wait()

	confirmed := publisher.byType(websockets.MessageTypeOperationConfirmed)
	require.Len(t, confirmed, 1)
	payload := confirmed[0].Payload.(websockets.OperationEventPayload)
	assert.Equal(t, models.KindDispute, payload.Kind)
	assert.Equal(t, uint64(5), payload.EntityID)
}

func TestMyBookings_MergesPendingWithAuthoritative(t *testing.T) {
	fc := &fakeChain{
		bookings: map[uint64]*models.Booking{
			3: {ID: 3, PropertyID: 7, Guest: testGuest, CheckInHeight: 1000},
		},
		guestIDs: []uint64{3},
	}
	c, store, _ := testCoordinator(fc, &fakeConfirmer{}, &fakeBroadcaster{})

	// A matched operation: same (property, guest, check-in) tuple as
	// booking 3; it must collapse into the authoritative row.
	require.NoError(t, store.AddPending(context.Background(), &models.PendingOperation{
		TxID: "0xmatched", Kind: models.KindBooking, PropertyID: 7,
		Guest: testGuest, CheckInHeight: 1000, SubmittedAt: time.Now().Add(-time.Minute),
	}))
	// An unmatched in-flight booking for a different property.
	require.NoError(t, store.AddPending(context.Background(), &models.PendingOperation{
		TxID: "0xinflight", Kind: models.KindBooking, PropertyID: 8,
		Guest: testGuest, CheckInHeight: 2000, SubmittedAt: time.Now(),
	}))

	views, err := c.MyBookings(context.Background(), testGuest)
	require.NoError(t, err)

	require.Len(t, views, 2)
	require.NotNil(t, views[0].Pending)
	assert.Equal(t, "0xinflight", views[0].Pending.TxID)
	require.NotNil(t, views[1].Booking)
	assert.Equal(t, uint64(3), views[1].Booking.ID)

	// The matched entry was retired as a side effect.
	assert.Equal(t, 1, store.count())
	_, err = store.GetPending(context.Background(), "0xmatched")
	assert.ErrorIs(t, err, storage.ErrPendingNotFound)
}

func TestMyBookings_SkipsOtherGuestsPending(t *testing.T) {
	c, store, _ := testCoordinator(&fakeChain{}, &fakeConfirmer{}, &fakeBroadcaster{})
	require.NoError(t, store.AddPending(context.Background(), &models.PendingOperation{
		TxID: "0xother", Kind: models.KindBooking, PropertyID: 1,
		Guest: "ST4SOMEBODYELSE", CheckInHeight: 100, SubmittedAt: time.Now(),
	}))

	views, err := c.MyBookings(context.Background(), testGuest)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestRecheckPending_FinalizesLateSuccess(t *testing.T) {
	fc := &fakeChain{
		bookings: map[uint64]*models.Booking{21: {ID: 21, PropertyID: 7, Guest: testGuest, CheckInHeight: 1000}},
		statuses: map[string]*chain.TxStatus{
			"0xlate": {TxID: "0xlate", State: "success", ResultRepr: "(ok u21)"},
		},
	}
	c, store, publisher := testCoordinator(fc, &fakeConfirmer{}, &fakeBroadcaster{})
	op := &models.PendingOperation{
		TxID: "0xlate", Kind: models.KindBooking, PropertyID: 7,
		Guest: testGuest, CheckInHeight: 1000, SubmittedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, store.AddPending(context.Background(), op))

	done, err := c.RecheckPending(context.Background(), op)
	require.NoError(t, err)

	assert.True(t, done)
	assert.Equal(t, 0, store.count())
	require.Len(t, publisher.byType(websockets.MessageTypeOperationConfirmed), 1)
}

func TestRecheckPending_StillPendingLeavesEntry(t *testing.T) {
	c, store, _ := testCoordinator(&fakeChain{}, &fakeConfirmer{}, &fakeBroadcaster{})
	op := &models.PendingOperation{
		TxID: "0xwait", Kind: models.KindBooking, PropertyID: 7,
		Guest: testGuest, CheckInHeight: 1000, SubmittedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, store.AddPending(context.Background(), op))

	done, err := c.RecheckPending(context.Background(), op)
	require.NoError(t, err)

	assert.False(t, done)
	assert.Equal(t, 1, store.count())
}

func TestRecheckPending_RepairsProvisionalEntry(t *testing.T) {
	// No scripted tx status: a plain status read would still report the
	// transaction as unconfirmed and leave the entry. Provisional entries
	// already confirmed, so the re-check must go straight to id verification.
	fc := &fakeChain{
		bookings: map[uint64]*models.Booking{9: {ID: 9, PropertyID: 7, Guest: testGuest, CheckInHeight: 1000}},
	}
	c, store, publisher := testCoordinator(fc, &fakeConfirmer{}, &fakeBroadcaster{})
	op := &models.PendingOperation{
		TxID: "0xpv", Kind: models.KindBooking, PropertyID: 7, Guest: testGuest,
		CheckInHeight: 1000, ExpectedID: 9, Provisional: true,
		Status: models.PendingStatusPending, SubmittedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, store.AddPending(context.Background(), op))

	done, err := c.RecheckPending(context.Background(), op)
	require.NoError(t, err)

	assert.True(t, done)
	assert.Equal(t, 0, store.count())
	confirmed := publisher.byType(websockets.MessageTypeOperationConfirmed)
	require.Len(t, confirmed, 1)
	assert.False(t, confirmed[0].Payload.(websockets.OperationEventPayload).Provisional)
}

func TestReconcileStale_SweepsOnlyOldEntries(t *testing.T) {
	fc := &fakeChain{
		statuses: map[string]*chain.TxStatus{
			"0xold": {TxID: "0xold", State: "abort_by_response", ResultRepr: "(err u409)"},
		},
	}
	c, store, _ := testCoordinator(fc, &fakeConfirmer{}, &fakeBroadcaster{})
	require.NoError(t, store.AddPending(context.Background(), &models.PendingOperation{
		TxID: "0xold", Kind: models.KindBooking, SubmittedAt: time.Now().Add(-time.Hour),
	}))
	require.NoError(t, store.AddPending(context.Background(), &models.PendingOperation{
		TxID: "0xfresh", Kind: models.KindBooking, SubmittedAt: time.Now(),
	}))

	retired, err := c.ReconcileStale(context.Background(), 10*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, 1, retired)
	assert.Equal(t, 1, store.count())
	_, err = store.GetPending(context.Background(), "0xfresh")
	assert.NoError(t, err)
}

func TestRepairProvisional_RetiresVerifiedEntry(t *testing.T) {
	fc := &fakeChain{
		bookings: map[uint64]*models.Booking{9: {ID: 9, PropertyID: 7, Guest: testGuest, CheckInHeight: 1000}},
	}
	c, store, publisher := testCoordinator(fc, &fakeConfirmer{}, &fakeBroadcaster{})
	op := &models.PendingOperation{
		TxID: "0xprov", Kind: models.KindBooking, PropertyID: 7, Guest: testGuest,
		CheckInHeight: 1000, ExpectedID: 9, Provisional: true,
		Status: models.PendingStatusPending, SubmittedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, store.AddPending(context.Background(), op))

	done, err := c.RepairProvisional(context.Background(), op)
	require.NoError(t, err)

	assert.True(t, done)
	assert.Equal(t, 0, store.count())
	confirmed := publisher.byType(websockets.MessageTypeOperationConfirmed)
	require.Len(t, confirmed, 1)
	assert.False(t, confirmed[0].Payload.(websockets.OperationEventPayload).Provisional)
}

func TestActions_EvaluatesAtCurrentHeight(t *testing.T) {
	fc := &fakeChain{
		bookings: map[uint64]*models.Booking{
			4: {ID: 4, Status: models.BookingConfirmed, CheckInHeight: 2100, CheckOutHeight: 2400, TotalAmount: 1000, EscrowedAmount: 1000},
		},
		height: 1000,
	}
	c, _, _ := testCoordinator(fc, &fakeConfirmer{}, &fakeBroadcaster{})

	actions, err := c.Actions(context.Background(), 4)
	require.NoError(t, err)

	assert.True(t, actions.CanCancel)
	assert.False(t, actions.CanReleasePayment)
	assert.Equal(t, uint64(100), actions.RefundPercentage)
	assert.Equal(t, uint64(1000), actions.RefundAmount)
}
