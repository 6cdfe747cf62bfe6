package scserver

import (
	"fmt"
	"time"

	"github.com/hypebeast/go-osc/osc"

	"panson/domain/sonification"
)

// DefaultAddress is the standard scsynth UDP endpoint
const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 57110
)

// Client implements sonification.Server over UDP OSC to a running scsynth
type Client struct {
	client *osc.Client
}

// NewClient creates an OSC client for the server at host:port
func NewClient(host string, port int) *Client {
	return &Client{client: osc.NewClient(host, port)}
}

// convertArgs maps domain argument values to OSC wire types. scsynth
// expects int32 and float32 scalars.
func convertArgs(args []any) ([]any, error) {
	out := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case int:
			out[i] = int32(v)
		case int32:
			out[i] = v
		case int64:
			out[i] = int32(v)
		case float32:
			out[i] = v
		case float64:
			out[i] = float32(v)
		case string:
			out[i] = v
		case bool:
			if v {
				out[i] = int32(1)
			} else {
				out[i] = int32(0)
			}
		default:
			return nil, fmt.Errorf("unsupported OSC argument type %T", a)
		}
	}
	return out, nil
}

func toOSCMessage(msg sonification.Message) (*osc.Message, error) {
	args, err := convertArgs(msg.Args)
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", msg.Address, err)
	}
	return osc.NewMessage(msg.Address, args...), nil
}

// Send implements sonification.Server
func (c *Client) Send(msgs ...sonification.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	for _, msg := range msgs {
		om, err := toOSCMessage(msg)
		if err != nil {
			return err
		}
		if err := c.client.Send(om); err != nil {
			return fmt.Errorf("failed to send %s: %w", msg.Address, err)
		}
	}
	return nil
}

// SendAt implements sonification.Server. Messages are packed into one
// bundle timestamped at t so the server schedules them sample-accurately.
func (c *Client) SendAt(t time.Time, msgs ...sonification.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	bundle := osc.NewBundle(t)
	for _, msg := range msgs {
		om, err := toOSCMessage(msg)
		if err != nil {
			return err
		}
		if err := bundle.Append(om); err != nil {
			return fmt.Errorf("failed to bundle %s: %w", msg.Address, err)
		}
	}

	if err := c.client.Send(bundle); err != nil {
		return fmt.Errorf("failed to send bundle: %w", err)
	}
	return nil
}

// Ensure Client implements sonification.Server
var _ sonification.Server = (*Client)(nil)
