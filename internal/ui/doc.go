// Package ui contains the Bubble Tea program that renders the podcast and
// episode panes.
//
// Message flow:
//   - Bubble Tea invokes Model.Update with incoming messages, which are routed
//     through a typed handler registry so each tea.Msg is handled by a focused
//     function (key presses, resizes, controller directives, timers).
//   - Key presses either move a menu cursor locally or become intents sent to
//     the controller over message.Channels. Intents carry store positions, not
//     IDs, so they are built from the cursor at the moment of the key press.
//   - Directives from the controller are received by a blocking command that
//     returns exactly one directive per wake. Its handler applies the
//     directive and re-arms the wait, so every external store change is
//     followed by a repaint before the next directive is read.
//
// State ownership:
//   - The podcast store is shared with the controller and the workers. The
//     menus in internal/ui/state render a window over it into in-memory
//     panels (internal/ui/panel) that View turns into a string.
//   - The episode menu always points at the episode store of the podcast
//     under the podcast cursor.
//
// Overlays:
//   - A welcome screen replaces both panes while no podcast is subscribed.
//   - The add-feed input occupies the bottom row while open.
//   - The new-episode picker replaces both panes until it is confirmed or
//     dismissed.
package ui
