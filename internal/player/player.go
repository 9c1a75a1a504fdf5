// Package player hands episodes to an external media player.
package player

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/atomicstack/castaway/internal/logging"
)

// ErrNoCommand reports an empty player command line.
var ErrNoCommand = errors.New("player command is empty")

// Player launches a configured command with the episode location appended.
type Player struct {
	name string
	args []string
}

// New splits command on whitespace into the executable and its leading
// arguments.
func New(command string) (*Player, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, ErrNoCommand
	}
	return &Player{name: fields[0], args: fields[1:]}, nil
}

// Command returns the argv that would be run for target.
func (p *Player) Command(target string) []string {
	argv := make([]string, 0, len(p.args)+2)
	argv = append(argv, p.name)
	argv = append(argv, p.args...)
	return append(argv, target)
}

// Play starts the player for target and returns once the process is running.
// The process is reaped in the background; a non-zero exit is logged.
func (p *Player) Play(target string) error {
	if strings.TrimSpace(target) == "" {
		return errors.New("nothing to play")
	}
	argv := p.Command(target)
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.name, err)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			logging.Error(fmt.Errorf("player %s exited: %w", p.name, err))
		}
	}()
	return nil
}
