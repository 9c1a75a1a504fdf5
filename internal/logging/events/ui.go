package events

import "github.com/atomicstack/castaway/internal/logging"

type UITracer struct{}

type MenuTracer struct{}

var (
	UI   = UITracer{}
	Menu = MenuTracer{}
)

func (UITracer) Key(key string) {
	logging.Trace("ui.key", map[string]interface{}{"key": key})
}

func (UITracer) Focus(pane string) {
	logging.Trace("ui.focus", map[string]interface{}{"pane": pane})
}

func (UITracer) Directive(kind string) {
	logging.Trace("ui.directive", map[string]interface{}{"kind": kind})
}

func (UITracer) Resize(width, height int) {
	logging.Trace("ui.resize", map[string]interface{}{"width": width, "height": height})
}

func (UITracer) Input(value string, submitted bool) {
	logging.Trace("ui.input", map[string]interface{}{"value": value, "submitted": submitted})
}

func (MenuTracer) Shift(top, selected int) {
	logging.Trace("menu.shift", map[string]interface{}{"top": top, "selected": selected})
}

func (MenuTracer) Resize(rows, cols, top, selected int) {
	logging.Trace("menu.resize", map[string]interface{}{
		"rows":     rows,
		"cols":     cols,
		"top":      top,
		"selected": selected,
	})
}
