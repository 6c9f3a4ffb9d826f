// Package eventbus wires the scheduler to NATS: an alternate, decoupled
// ingestion path for set/cancel requests alongside the in-process API, and
// a publisher that fans dispatched GroupCommands out to subscribers. It is
// grounded on go-server/pkg/nats/client.go's connection/handler shape.
//
// The rate limiter here throttles how fast inbound submit/cancel messages
// are accepted — front-door backpressure, not release-order fairness. The
// scheduler's own non-goal (no rate-limiting/fairness beyond FIFO) governs
// dispatch order, which this package never touches.
package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/odin-broadcast/amcp-scheduler/internal/command"
	"github.com/odin-broadcast/amcp-scheduler/internal/scheduler"
	"github.com/odin-broadcast/amcp-scheduler/internal/timecode"
)

// SubmitMessage is the wire shape accepted on the submit subject. Command is
// carried as an opaque JSON blob — the scheduler never inspects it, so it is
// stored verbatim as the command.Ref.
type SubmitMessage struct {
	Channel int             `json:"channel"`
	Token   string          `json:"token"`
	Frames  int64           `json:"frames"`
	FPS     string          `json:"fps"`
	Command json.RawMessage `json:"command"`
}

// CancelMessage is the wire shape accepted on the cancel subject.
type CancelMessage struct {
	Token string `json:"token"`
}

// dispatchMessage is published for every released GroupCommand.
type dispatchMessage struct {
	Channel  int      `json:"channel"`
	Frames   int64    `json:"frames"`
	FPS      string   `json:"fps"`
	Commands []string `json:"commands"`
}

// Bus connects the Scheduler to NATS subjects for submission, cancellation,
// and dispatch fan-out.
type Bus struct {
	conn    *nats.Conn
	sched   *scheduler.Scheduler
	limiter *rate.Limiter
	logger  zerolog.Logger

	submitSubj   string
	cancelSubj   string
	dispatchSubj string

	subs []*nats.Subscription
}

// Config bundles the subjects and rate used to construct a Bus.
type Config struct {
	URL          string
	SubmitSubj   string
	CancelSubj   string
	DispatchSubj string
	IngestRate   int // messages/sec accepted on SubmitSubj and CancelSubj
}

// Connect dials NATS and returns a Bus ready to Start.
func Connect(cfg Config, sched *scheduler.Scheduler, logger zerolog.Logger) (*Bus, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("amcp-scheduler"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("eventbus: disconnected from NATS")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("eventbus: reconnected to NATS")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("eventbus: connect: %w", err)
	}

	return &Bus{
		conn:         conn,
		sched:        sched,
		limiter:      rate.NewLimiter(rate.Limit(cfg.IngestRate), cfg.IngestRate),
		logger:       logger,
		submitSubj:   cfg.SubmitSubj,
		cancelSubj:   cfg.CancelSubj,
		dispatchSubj: cfg.DispatchSubj,
	}, nil
}

// Start subscribes to the submit and cancel subjects.
func (b *Bus) Start() error {
	sub, err := b.conn.Subscribe(b.submitSubj, b.handleSubmit)
	if err != nil {
		return fmt.Errorf("eventbus: subscribe %s: %w", b.submitSubj, err)
	}
	b.subs = append(b.subs, sub)

	sub, err = b.conn.Subscribe(b.cancelSubj, b.handleCancel)
	if err != nil {
		return fmt.Errorf("eventbus: subscribe %s: %w", b.cancelSubj, err)
	}
	b.subs = append(b.subs, sub)
	return nil
}

// Close unsubscribes every subscription and closes the connection. Pending
// messages are not drained.
func (b *Bus) Close() {
	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.conn.Close()
}

func (b *Bus) handleSubmit(msg *nats.Msg) {
	if !b.limiter.Allow() {
		b.logger.Warn().Str("subject", msg.Subject).Msg("eventbus: submit dropped, ingestion rate exceeded")
		return
	}

	var sm SubmitMessage
	if err := json.Unmarshal(msg.Data, &sm); err != nil {
		b.logger.Warn().Err(err).Msg("eventbus: malformed submit message")
		return
	}
	if sm.Channel < 0 || sm.Channel >= b.sched.ChannelCount() {
		b.logger.Warn().Int("channel", sm.Channel).Msg("eventbus: submit for unknown channel ignored")
		return
	}

	fps, err := timecode.ParseFPS(sm.FPS)
	if err != nil {
		b.logger.Warn().Err(err).Msg("eventbus: malformed submit fps")
		return
	}

	tc := timecode.New(sm.Frames, fps)
	var payload command.Ref = []byte(sm.Command)
	b.sched.Set(sm.Channel, sm.Token, tc, payload)
}

func (b *Bus) handleCancel(msg *nats.Msg) {
	if !b.limiter.Allow() {
		b.logger.Warn().Str("subject", msg.Subject).Msg("eventbus: cancel dropped, ingestion rate exceeded")
		return
	}

	var cm CancelMessage
	if err := json.Unmarshal(msg.Data, &cm); err != nil {
		b.logger.Warn().Err(err).Msg("eventbus: malformed cancel message")
		return
	}
	b.sched.Remove(cm.Token)
}

// PublishDispatch fans out every released Group to the dispatch subject.
// Called by the channel output loop right after Schedule succeeds.
func (b *Bus) PublishDispatch(channel int, groups []command.Group) {
	for _, g := range groups {
		cmds := make([]string, len(g.Commands))
		for i, c := range g.Commands {
			if raw, ok := c.([]byte); ok {
				cmds[i] = string(raw)
			} else {
				cmds[i] = fmt.Sprintf("%v", c)
			}
		}
		msg := dispatchMessage{
			Channel:  channel,
			Frames:   g.Timecode.Frames(),
			FPS:      g.Timecode.FPS().String(),
			Commands: cmds,
		}
		data, err := json.Marshal(msg)
		if err != nil {
			b.logger.Error().Err(err).Msg("eventbus: failed to marshal dispatch message")
			continue
		}
		if err := b.conn.Publish(b.dispatchSubj, data); err != nil {
			b.logger.Error().Err(err).Msg("eventbus: failed to publish dispatch message")
		}
	}
}
