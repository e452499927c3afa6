package shell

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// SignalPolicy keeps keyboard signals from acting on the shell itself.
// Interrupt, stop and quit are caught rather than ignored: a caught
// signal reverts to its default action in an exec'd child, an ignored one
// would stay ignored. SIGTTOU and SIGTTIN are ignored so the shell can
// take the terminal back while it sits in a background group.
type SignalPolicy struct {
	signalChan chan os.Signal
	log        *zap.Logger
}

func NewSignalPolicy(log *zap.Logger) *SignalPolicy {
	return &SignalPolicy{log: log}
}

// Install sets the shell's dispositions. The SIGTTOU and SIGTTIN ignores
// survive exec, so a child started afterwards never stops on terminal
// access from the background; a read there fails with EIO instead.
func (p *SignalPolicy) Install() {
	p.signalChan = make(chan os.Signal, 1)
	signal.Ignore(syscall.SIGTTOU, syscall.SIGTTIN)
	signal.Notify(p.signalChan, syscall.SIGINT, syscall.SIGTSTP, syscall.SIGQUIT)
	go p.handleSignals(p.signalChan)
}

func (p *SignalPolicy) Stop() {
	signal.Stop(p.signalChan)
	close(p.signalChan)
}

func (p *SignalPolicy) handleSignals(ch <-chan os.Signal) {
	for sig := range ch {
		p.log.Debug("shell ignored signal", zap.Stringer("signal", sig))
	}
}
