package statushandler

import (
	"github.com/dostavo/server/internal/adapter/cdek"
	"github.com/dostavo/server/internal/adapter/otp"
	"github.com/dostavo/server/internal/adapter/posterminal"
	"github.com/dostavo/server/internal/module/history"
	"github.com/dostavo/server/internal/module/order"
	"github.com/dostavo/server/internal/module/status"
	"github.com/dostavo/server/internal/shared/queue"
)

// Deps collects everything the handlers need.
type Deps struct {
	Repo       order.Repository
	StatusRepo status.Repository
	Recorder   history.Recorder
	OTP        *otp.Registry
	Registrar  posterminal.Adapter
	CDEK       cdek.Adapter
	Publisher  queue.Publisher
}

// NewRegistry binds every handled status code. Statuses absent here
// get dispatcher bookkeeping only.
func NewRegistry(d Deps) *order.HandlerRegistry {
	reg := order.NewHandlerRegistry()
	reg.Register(status.CodeNew, NewResetHandler(d.Repo, d.Recorder))
	reg.Register(status.CodeSendOTP, NewSendOTPHandler(d.Repo, d.OTP))
	reg.Register(status.CodeVerifyOTP, NewVerifyOTPHandler(d.Repo, d.StatusRepo, d.Recorder, d.OTP))
	reg.Register(status.CodePOSTerminalRegistration, NewPOSRegistrationHandler(d.Repo, d.Recorder, d.Registrar, d.Publisher))
	reg.Register(status.CodeCardReturnedToBank, NewCardReturnedHandler())
	reg.Register(status.CodeCancelledAtClient, NewCancelledAtClientHandler())
	reg.Register(status.CodeTransferToCDEK, NewTransferToCDEKHandler(d.CDEK))
	return reg
}
