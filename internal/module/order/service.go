package order

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"

	"github.com/dostavo/server/internal/module/city"
	"github.com/dostavo/server/internal/module/deliverygraph"
	"github.com/dostavo/server/internal/module/history"
	"github.com/dostavo/server/internal/module/status"
	"github.com/dostavo/server/internal/shared/database"
	"github.com/dostavo/server/internal/shared/logger"
	"github.com/dostavo/server/internal/shared/metrics"
)

// Service drives status transitions. The whole transition runs in one
// transaction with the order row locked, so concurrent requests on the
// same order execute one after another.
type Service struct {
	repo       Repository
	statusRepo status.Repository
	graphs     deliverygraph.Loader
	recorder   history.Recorder
	clock      city.Clock
	tx         database.TxManager
	registry   *HandlerRegistry
	metrics    *metrics.Metrics
	log        *logger.Logger
}

// NewService wires the transition dispatcher.
func NewService(
	repo Repository,
	statusRepo status.Repository,
	graphs deliverygraph.Loader,
	recorder history.Recorder,
	clock city.Clock,
	tx database.TxManager,
	registry *HandlerRegistry,
	m *metrics.Metrics,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:       repo,
		statusRepo: statusRepo,
		graphs:     graphs,
		recorder:   recorder,
		clock:      clock,
		tx:         tx,
		registry:   registry,
		metrics:    m,
		log:        log,
	}
}

// GetOrder loads one order.
func (s *Service) GetOrder(ctx context.Context, id int64) (*Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// GetCourier loads the courier assigned to an order. Returns nil when
// the courier row is gone.
func (s *Service) GetCourier(ctx context.Context, id int64) (*Courier, error) {
	courier, err := s.repo.GetCourier(ctx, id)
	if errors.Is(err, ErrCourierNotFound) {
		return nil, nil
	}
	return courier, err
}

// TransitionOrderStatus moves an order to the status named by
// targetCode: validates the move against the order's delivery graph,
// runs the status handler, and records audit and status history. On
// handler failure nothing is persisted.
func (s *Service) TransitionOrderStatus(
	ctx context.Context,
	orderID int64,
	targetCode string,
	actor Actor,
	payload json.RawMessage,
) (*Order, error) {
	start := time.Now()
	var result *Order

	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		current, err := s.statusRepo.GetStatus(ctx, o.CurrentStatusID)
		if err != nil {
			return err
		}
		target, err := s.statusRepo.GetStatusByCode(ctx, targetCode)
		if err != nil {
			return err
		}

		graph, err := s.graphs.LoadGraph(ctx, o.DeliveryGraphID, o.PartnerID)
		if err != nil {
			return err
		}
		node, err := graph.FindNode(target.Code)
		if err != nil {
			return &UnknownStatusError{Code: target.Code}
		}

		machine, err := NewStateMachine(graph, current.Code)
		if err != nil {
			return err
		}
		if !node.Repeatable {
			if err := machine.TransitionTo(target.Code); err != nil {
				return err
			}
		}

		at, err := s.clock.Localtime(ctx, o.CityID)
		if err != nil {
			return err
		}

		tc := &TransitionContext{
			Order:   o,
			Current: current,
			Target:  target,
			Graph:   graph,
			Node:    node,
			Actor:   actor,
			Payload: payload,
			At:      at,
		}
		if h := s.registry.Resolve(target.Code); h != nil {
			if err := h.Handle(ctx, tc); err != nil {
				return &HandlerExecutionError{Status: target.Code, Err: err}
			}
		}

		entry := &history.Entry{
			InitiatorID:   actor.ID,
			InitiatorType: history.InitiatorType(actor.Type),
			InitiatorRole: actor.Role,
			ModelType:     history.ModelOrder,
			ModelID:       o.ID,
			ActionData: datatypes.JSONMap{
				"status_transition": map[string]any{
					"from": current.Code,
					"to":   target.Code,
				},
			},
			CreatedAt: at,
		}
		if err := s.recorder.RecordAudit(ctx, entry); err != nil {
			return err
		}

		if !node.Repeatable {
			if _, _, err := s.recorder.RecordStatusHistory(ctx, o.ID, target.ID, at); err != nil {
				return err
			}
			// A handler may have advanced the order past the target
			// already, or pinned it in place; only bookkeep when it
			// left the status alone.
			if o.CurrentStatusID == current.ID && !tc.KeepCurrent {
				o.CurrentStatusID = target.ID
			}
		}

		if err := s.repo.UpdateOrder(ctx, o); err != nil {
			return err
		}

		result = o
		return nil
	})

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.metrics.RecordTransition(targetCode, outcome, time.Since(start))

	if err != nil {
		s.log.Error("status transition failed",
			"order_id", orderID,
			"status", targetCode,
			logger.Err(err),
		)
		return nil, err
	}

	s.log.Info("status transition applied",
		"order_id", orderID,
		"status", targetCode,
	)
	return result, nil
}
