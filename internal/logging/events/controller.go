package events

import "github.com/atomicstack/castaway/internal/logging"

type ControllerTracer struct{}

type StoreTracer struct{}

var (
	Controller = ControllerTracer{}
	Store      = StoreTracer{}
)

func (ControllerTracer) Intent(kind string) {
	logging.Trace("controller.intent", map[string]interface{}{"kind": kind})
}

func (ControllerTracer) Error(err error) {
	if err == nil {
		return
	}
	logging.Trace("controller.error", map[string]interface{}{"error": err.Error()})
}

func (ControllerTracer) Stop(reason string) {
	logging.Trace("controller.stop", map[string]interface{}{"reason": reason})
}

func (StoreTracer) Poisoned(store string) {
	logging.Trace("store.poisoned", map[string]interface{}{"store": store})
}
