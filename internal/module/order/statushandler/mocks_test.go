package statushandler

import (
	"context"
	"time"

	"github.com/dostavo/server/internal/adapter/cdek"
	"github.com/dostavo/server/internal/adapter/posterminal"
	"github.com/dostavo/server/internal/module/history"
	"github.com/dostavo/server/internal/module/order"
	"github.com/dostavo/server/internal/module/status"
)

type mockRepo struct {
	order.Repository

	product       *order.Product
	productErr    error
	savedProduct  *order.Product
	geo           *order.Geolocation
	savedGeo      *order.Geolocation
	smsWipes      int
	updateProdErr error
}

func (m *mockRepo) GetProductByOrderID(ctx context.Context, orderID int64) (*order.Product, error) {
	if m.productErr != nil {
		return nil, m.productErr
	}
	if m.product == nil {
		return nil, order.ErrProductNotFound
	}
	return m.product, nil
}

func (m *mockRepo) UpdateProduct(ctx context.Context, p *order.Product) error {
	if m.updateProdErr != nil {
		return m.updateProdErr
	}
	m.savedProduct = p
	return nil
}

func (m *mockRepo) GetGeolocation(ctx context.Context, orderID int64) (*order.Geolocation, error) {
	if m.geo == nil {
		return nil, order.ErrGeolocationNotFound
	}
	return m.geo, nil
}

func (m *mockRepo) SaveGeolocation(ctx context.Context, geo *order.Geolocation) error {
	m.savedGeo = geo
	return nil
}

func (m *mockRepo) DeleteSMSPostControls(ctx context.Context, orderID int64) error {
	m.smsWipes++
	return nil
}

type mockRecorder struct {
	statusRows  []history.OrderStatus
	deleteCalls int
}

func (m *mockRecorder) RecordAudit(ctx context.Context, entry *history.Entry) error {
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
	m.deleteCalls++
	m.statusRows = nil
	return nil
}

type mockStatusRepo struct {
	byCode map[string]*status.Status
}

func (m *mockStatusRepo) GetStatus(ctx context.Context, id int64) (*status.Status, error) {
	for _, s := range m.byCode {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, status.ErrStatusNotFound
}

func (m *mockStatusRepo) GetStatusByCode(ctx context.Context, code string) (*status.Status, error) {
	s, ok := m.byCode[code]
	if !ok {
		return nil, status.ErrStatusNotFound
	}
	return s, nil
}

type mockOTPAdapter struct {
	sendCalls   int
	verifyCalls int
	sendErr     error
	verifyErr   error
	lastCode    string
}

func (m *mockOTPAdapter) SendCode(ctx context.Context, phone string, orderID int64) error {
	m.sendCalls++
	return m.sendErr
}

func (m *mockOTPAdapter) VerifyCode(ctx context.Context, phone, code string, orderID int64) error {
	m.verifyCalls++
	m.lastCode = code
	return m.verifyErr
}

type mockRegistrar struct {
	calls       int
	businessKey string
	err         error
	lastReq     *posterminal.RegistrationRequest
}

func (m *mockRegistrar) RegisterTerminal(ctx context.Context, req *posterminal.RegistrationRequest) (string, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return "", m.err
	}
	return m.businessKey, nil
}

type mockCDEK struct {
	calls       int
	trackNumber string
	err         error
	lastReq     *cdek.OrderRequest
}

func (m *mockCDEK) CreateOrder(ctx context.Context, req *cdek.OrderRequest) (string, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return "", m.err
	}
	return m.trackNumber, nil
}

type mockPublisher struct {
	tasks []publishedTask
	err   error
}

type publishedTask struct {
	Name string
	Data map[string]any
}

func (m *mockPublisher) Enqueue(ctx context.Context, taskName string, data map[string]any) error {
	if m.err != nil {
		return m.err
	}
	m.tasks = append(m.tasks, publishedTask{Name: taskName, Data: data})
	return nil
}
