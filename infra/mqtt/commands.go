package mqtt

import (
	"encoding/json"
	"fmt"
	"path"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/evroute/core/logger"
	"github.com/kilianp07/evroute/core/simulation"
)

// Commander is the part of the simulation controller driven remotely.
type Commander interface {
	Start(start, end string, vehicles []string) (simulation.StartReport, error)
	Pause() error
	Reset()
	SetSpeedFactor(f float64) error
}

// Command is the JSON payload accepted on the command topic.
type Command struct {
	Command  string   `json:"command"`
	From     string   `json:"from,omitempty"`
	To       string   `json:"to,omitempty"`
	Vehicles []string `json:"vehicles,omitempty"`
	Factor   float64  `json:"factor,omitempty"`
}

// CommandListener applies commands received over MQTT to a Commander.
type CommandListener struct {
	target Commander
	log    logger.Logger
}

// NewCommandListener returns a listener driving target.
func NewCommandListener(target Commander, log logger.Logger) *CommandListener {
	return &CommandListener{target: target, log: logger.OrNop(log)}
}

// CommandTopic returns the command topic under prefix.
func CommandTopic(prefix string) string { return path.Join(prefix, "command") }

// Listen subscribes the listener on the command topic of prefix.
func (l *CommandListener) Listen(c *PahoClient, prefix string) error {
	return c.Subscribe("command", CommandTopic(prefix), l.onMessage)
}

func (l *CommandListener) onMessage(_ paho.Client, msg paho.Message) {
	if err := l.Handle(msg.Payload()); err != nil {
		l.log.Warnf("command on %s rejected: %v", msg.Topic(), err)
	}
}

// Handle decodes payload and applies it.
func (l *CommandListener) Handle(payload []byte) error {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("decode command: %w", err)
	}
	switch cmd.Command {
	case "start":
		rep, err := l.target.Start(cmd.From, cmd.To, cmd.Vehicles)
		if err != nil {
			return err
		}
		l.log.Infof("remote start %s: %d vehicles started", rep.RunID, len(rep.Started))
		return nil
	case "pause":
		return l.target.Pause()
	case "reset":
		l.target.Reset()
		return nil
	case "speed":
		return l.target.SetSpeedFactor(cmd.Factor)
	default:
		return fmt.Errorf("unknown command %q", cmd.Command)
	}
}
