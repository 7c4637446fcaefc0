package order

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/dostavo/server/internal/module/deliverygraph"
	"github.com/dostavo/server/internal/module/history"
	"github.com/dostavo/server/internal/module/status"
	"github.com/dostavo/server/internal/shared/logger"
	"github.com/dostavo/server/internal/shared/metrics"
)

type mockOrderRepo struct {
	Repository
	order      *Order
	getErr     error
	updated    *Order
	lockCalls  int
	updateErr  error
	courier    *Courier
	courierErr error
}

func (m *mockOrderRepo) GetCourier(ctx context.Context, id int64) (*Courier, error) {
	if m.courierErr != nil {
		return nil, m.courierErr
	}
	return m.courier, nil
}

func (m *mockOrderRepo) GetOrderForUpdate(ctx context.Context, id int64) (*Order, error) {
	m.lockCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.order == nil || m.order.ID != id {
		return nil, ErrOrderNotFound
	}
	cp := *m.order
	return &cp, nil
}

func (m *mockOrderRepo) UpdateOrder(ctx context.Context, o *Order) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = o
	return nil
}

type mockStatusRepo struct {
	byID   map[int64]*status.Status
	byCode map[string]*status.Status
}

func (m *mockStatusRepo) GetStatus(ctx context.Context, id int64) (*status.Status, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, status.ErrStatusNotFound
	}
	return s, nil
}

func (m *mockStatusRepo) GetStatusByCode(ctx context.Context, code string) (*status.Status, error) {
	s, ok := m.byCode[code]
	if !ok {
		return nil, status.ErrStatusNotFound
	}
	return s, nil
}

type mockGraphLoader struct {
	graph *deliverygraph.Graph
	err   error
}

func (m *mockGraphLoader) LoadGraph(ctx context.Context, graphID, partnerID int64) (*deliverygraph.Graph, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.graph, nil
}

type mockRecorder struct {
	audits     []*history.Entry
	statusRows []history.OrderStatus
	auditErr   error
}

func (m *mockRecorder) RecordAudit(ctx context.Context, entry *history.Entry) error {
	if m.auditErr != nil {
		return m.auditErr
	}
	m.audits = append(m.audits, entry)
	return nil
}

func (m *mockRecorder) RecordStatusHistory(ctx context.Context, orderID, statusID int64, at time.Time) (*history.OrderStatus, bool, error) {
	for i := range m.statusRows {
		if m.statusRows[i].OrderID == orderID && m.statusRows[i].StatusID == statusID {
			return &m.statusRows[i], false, nil
		}
	}
	row := history.OrderStatus{OrderID: orderID, StatusID: statusID, CreatedAt: at}
	m.statusRows = append(m.statusRows, row)
	return &row, true, nil
}

func (m *mockRecorder) DeleteStatusHistory(ctx context.Context, orderID int64) error {
	m.statusRows = nil
	return nil
}

type fixedClock struct {
	at time.Time
}

func (c *fixedClock) Localtime(ctx context.Context, cityID *int64) (time.Time, error) {
	return c.at, nil
}

// passthroughTx runs the function without a database.
type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingHandler struct {
	calls int
	err   error
	fn    func(tc *TransitionContext)
}

func (h *recordingHandler) Handle(ctx context.Context, tc *TransitionContext) error {
	h.calls++
	if h.fn != nil {
		h.fn(tc)
	}
	return h.err
}

type serviceFixture struct {
	svc      *Service
	repo     *mockOrderRepo
	recorder *mockRecorder
	registry *HandlerRegistry
	now      time.Time
}

func newServiceFixture(t *testing.T, nodes []deliverygraph.Node) *serviceFixture {
	t.Helper()

	graph, err := deliverygraph.New(nodes)
	require.NoError(t, err)

	statuses := map[string]*status.Status{}
	byID := map[int64]*status.Status{}
	for _, n := range nodes {
		s := &status.Status{ID: n.ID, Code: n.Code}
		statuses[n.Code] = s
		byID[n.ID] = s
	}

	repo := &mockOrderRepo{order: &Order{
		ID:              10,
		PartnerID:       1,
		DeliveryGraphID: 5,
		CurrentStatusID: nodes[0].ID,
		DeliveryStatus:  datatypes.NewJSONType(DeliveryStatus{}),
	}}
	recorder := &mockRecorder{}
	registry := NewHandlerRegistry()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	svc := NewService(
		repo,
		&mockStatusRepo{byID: byID, byCode: statuses},
		&mockGraphLoader{graph: graph},
		recorder,
		&fixedClock{at: now},
		passthroughTx{},
		registry,
		metrics.NewWith("test", prometheus.NewRegistry()),
		logger.New(logger.DefaultConfig()),
	)

	return &serviceFixture{svc: svc, repo: repo, recorder: recorder, registry: registry, now: now}
}

func linearNodes() []deliverygraph.Node {
	return []deliverygraph.Node{
		{ID: 1, Code: "new", Position: 0},
		{ID: 2, Code: "on_the_way", Position: 1},
		{ID: 3, Code: "delivered", Position: 2},
	}
}

func TestService_TransitionOrderStatus_Bookkeeping(t *testing.T) {
	f := newServiceFixture(t, linearNodes())

	o, err := f.svc.TransitionOrderStatus(context.Background(), 10, "on_the_way", Actor{Type: "system"}, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(2), o.CurrentStatusID)
	require.NotNil(t, f.repo.updated)
	assert.Equal(t, int64(2), f.repo.updated.CurrentStatusID)

	require.Len(t, f.recorder.audits, 1)
	transition := f.recorder.audits[0].ActionData["status_transition"].(map[string]any)
	assert.Equal(t, "new", transition["from"])
	assert.Equal(t, "on_the_way", transition["to"])
	assert.Equal(t, f.now, f.recorder.audits[0].CreatedAt)

	require.Len(t, f.recorder.statusRows, 1)
	assert.Equal(t, int64(2), f.recorder.statusRows[0].StatusID)
	assert.Equal(t, f.now, f.recorder.statusRows[0].CreatedAt)
}

func TestService_TransitionOrderStatus_Illegal(t *testing.T) {
	f := newServiceFixture(t, linearNodes())

	_, err := f.svc.TransitionOrderStatus(context.Background(), 10, "delivered", Actor{}, nil)

	var illegal *IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Nil(t, f.repo.updated)
	assert.Empty(t, f.recorder.audits)
	assert.Empty(t, f.recorder.statusRows)
}

func TestService_TransitionOrderStatus_UnknownStatusCode(t *testing.T) {
	f := newServiceFixture(t, linearNodes())

	_, err := f.svc.TransitionOrderStatus(context.Background(), 10, "not_in_catalogue", Actor{}, nil)
	assert.ErrorIs(t, err, status.ErrStatusNotFound)
}

func TestService_TransitionOrderStatus_StatusOutsideGraph(t *testing.T) {
	f := newServiceFixture(t, linearNodes())
	// Status exists in the catalogue but not in this order's graph.
	f.svc.statusRepo.(*mockStatusRepo).byCode["foreign"] = &status.Status{ID: 99, Code: "foreign"}

	_, err := f.svc.TransitionOrderStatus(context.Background(), 10, "foreign", Actor{}, nil)

	var unknown *UnknownStatusError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "foreign", unknown.Code)
}

func TestService_TransitionOrderStatus_OrderNotFound(t *testing.T) {
	f := newServiceFixture(t, linearNodes())

	_, err := f.svc.TransitionOrderStatus(context.Background(), 404, "on_the_way", Actor{}, nil)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestService_TransitionOrderStatus_HandlerInvoked(t *testing.T) {
	f := newServiceFixture(t, linearNodes())
	h := &recordingHandler{}
	f.registry.Register("on_the_way", h)

	payload := json.RawMessage(`{"status":"on_the_way","note":"ring twice"}`)
	_, err := f.svc.TransitionOrderStatus(context.Background(), 10, "on_the_way", Actor{Type: "user"}, payload)

	require.NoError(t, err)
	assert.Equal(t, 1, h.calls)
}

func TestService_TransitionOrderStatus_HandlerFailureAbortsEverything(t *testing.T) {
	f := newServiceFixture(t, linearNodes())
	f.registry.Register("on_the_way", &recordingHandler{err: errors.New("provider down")})

	_, err := f.svc.TransitionOrderStatus(context.Background(), 10, "on_the_way", Actor{}, nil)

	var handlerErr *HandlerExecutionError
	require.ErrorAs(t, err, &handlerErr)
	assert.Equal(t, "on_the_way", handlerErr.Status)
	assert.Nil(t, f.repo.updated)
	assert.Empty(t, f.recorder.audits)
	assert.Empty(t, f.recorder.statusRows)
}

func TestService_TransitionOrderStatus_HandlerAdvancesOrder(t *testing.T) {
	f := newServiceFixture(t, linearNodes())
	// Handler that jumps the order one extra step, like OTP
	// verification rolling straight into photo capture.
	f.registry.Register("on_the_way", &recordingHandler{fn: func(tc *TransitionContext) {
		tc.Order.CurrentStatusID = 3
	}})

	o, err := f.svc.TransitionOrderStatus(context.Background(), 10, "on_the_way", Actor{}, nil)

	require.NoError(t, err)
	assert.Equal(t, int64(3), o.CurrentStatusID, "dispatcher must not overwrite a handler's advance")
}

func TestService_TransitionOrderStatus_RepeatableSkipsValidationAndHistory(t *testing.T) {
	nodes := []deliverygraph.Node{
		{ID: 1, Code: "new", Position: 0},
		{ID: 2, Code: "on_the_way", Position: 1},
		{ID: 3, Code: "pos_terminal_registration", Position: 2, Repeatable: true},
	}
	f := newServiceFixture(t, nodes)
	h := &recordingHandler{}
	f.registry.Register("pos_terminal_registration", h)

	// Current status is "new"; a non-repeatable target two steps away
	// would be rejected, the repeatable one is dispatched anyway.
	o, err := f.svc.TransitionOrderStatus(context.Background(), 10, "pos_terminal_registration", Actor{}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, h.calls)
	assert.Empty(t, f.recorder.statusRows, "repeatable statuses write their own history")
	assert.Equal(t, int64(1), o.CurrentStatusID, "bookkeeping is the handler's job for repeatable statuses")

	require.Len(t, f.recorder.audits, 1)
}

func TestService_TransitionOrderStatus_HandlerPinsStatus(t *testing.T) {
	f := newServiceFixture(t, linearNodes())
	// The send-otp pattern: the step is recorded but the order stays
	// where it is.
	f.registry.Register("on_the_way", &recordingHandler{fn: func(tc *TransitionContext) {
		tc.KeepCurrent = true
	}})

	o, err := f.svc.TransitionOrderStatus(context.Background(), 10, "on_the_way", Actor{}, nil)

	require.NoError(t, err)
	assert.Equal(t, int64(1), o.CurrentStatusID)
	require.Len(t, f.recorder.statusRows, 1, "the step is still recorded in history")
	assert.Equal(t, int64(2), f.recorder.statusRows[0].StatusID)
}

func TestService_TransitionOrderStatus_AuditUsesActor(t *testing.T) {
	f := newServiceFixture(t, linearNodes())
	id := int64(77)

	_, err := f.svc.TransitionOrderStatus(context.Background(), 10, "on_the_way",
		Actor{ID: &id, Type: "user", Role: "courier"}, nil)

	require.NoError(t, err)
	require.Len(t, f.recorder.audits, 1)
	entry := f.recorder.audits[0]
	assert.Equal(t, &id, entry.InitiatorID)
	assert.Equal(t, history.InitiatorType("user"), entry.InitiatorType)
	assert.Equal(t, "courier", entry.InitiatorRole)
	assert.Equal(t, history.ModelOrder, entry.ModelType)
	assert.Equal(t, int64(10), entry.ModelID)
}

func TestService_GetCourier_MissingRowIsNil(t *testing.T) {
	f := newServiceFixture(t, linearNodes())
	f.repo.courierErr = ErrCourierNotFound

	courier, err := f.svc.GetCourier(context.Background(), 5)

	require.NoError(t, err)
	assert.Nil(t, courier)
}

func TestService_GetCourier(t *testing.T) {
	f := newServiceFixture(t, linearNodes())
	f.repo.courier = &Courier{ID: 5, FullName: "A. Courier"}

	courier, err := f.svc.GetCourier(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, "A. Courier", courier.FullName)
}
