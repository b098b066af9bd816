// Package grpcstream implements the recognizer provider over a gRPC
// bidirectional stream carrying raw byte payloads.
package grpcstream

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"

	"github.com/tandemlab/converse/logger"
	"github.com/tandemlab/converse/recognizer"
)

// ProviderName is the registered name for the gRPC stream provider.
const ProviderName = "grpc"

// streamDesc describes the recognizer's bidi method. The method name itself
// comes from config.
var streamDesc = &grpc.StreamDesc{
	StreamName:    "StreamingRecognize",
	ClientStreams: true,
	ServerStreams: true,
}

// Provider opens recognition channels over one shared gRPC connection.
type Provider struct {
	cfg  Config
	conn *grpc.ClientConn
	log  *logger.Logger
}

// NewProvider creates the provider and its client connection. The connection
// is lazy; no traffic flows until the first stream opens.
func NewProvider(cfg Config, log *logger.Logger) (*Provider, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("grpcstream config: %w", err)
	}

	opts := []grpc.DialOption{
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                cfg.KeepaliveTime,
			PermitWithoutStream: true,
		}),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(rawCodec{})),
	}
	if cfg.Insecure {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.NewClient(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpcstream: failed to create client for %s: %w", cfg.Address, err)
	}

	return &Provider{
		cfg:  cfg,
		conn: conn,
		log:  log.WithComponent("recognizer"),
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable reports whether the underlying connection is usable.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	state := p.conn.GetState()
	return state != connectivity.Shutdown && state != connectivity.TransientFailure
}

// MaxChunkBytes returns the largest payload one stream write may carry.
func (p *Provider) MaxChunkBytes() int { return p.cfg.MaxChunkBytes }

// OpenStream opens a duplex recognition stream. Stream parameters travel as
// metadata headers; the establishment phase is bounded by ConnectTimeout
// while the stream itself runs on the caller's context.
func (p *Provider) OpenStream(ctx context.Context, req recognizer.StreamRequest) (recognizer.Channel, error) {
	md := metadata.Pairs(
		"conversation-id", req.ConversationID,
		"sample-rate", strconv.Itoa(req.SampleRate),
		"language-code", req.LanguageCode,
	)
	ctx = metadata.NewOutgoingContext(ctx, md)

	stream, err := openWithTimeout(ctx, p.cfg.ConnectTimeout, func(ctx context.Context) (grpc.ClientStream, error) {
		return p.conn.NewStream(ctx, streamDesc, p.cfg.Method)
	})
	if err != nil {
		return nil, fmt.Errorf("grpcstream: open stream: %w", err)
	}

	ch := &channel{
		stream: stream,
		events: make(chan recognizer.Event, 64),
		log:    p.log,
	}
	go ch.receive()
	return ch, nil
}

// Close releases the shared client connection.
func (p *Provider) Close() error {
	return p.conn.Close()
}

// channel is one open recognition stream.
type channel struct {
	stream    grpc.ClientStream
	events    chan recognizer.Event
	log       *logger.Logger
	closeOnce sync.Once
	closeErr  error
}

// Write sends one audio chunk in arrival order. SendMsg blocks on transport
// backpressure, which is the desired flow control.
func (c *channel) Write(ctx context.Context, chunk []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.stream.SendMsg(&chunk); err != nil {
		return fmt.Errorf("grpcstream: send: %w", err)
	}
	return nil
}

// CloseSend half-closes the outbound stream. Idempotent.
func (c *channel) CloseSend() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.stream.CloseSend()
	})
	return c.closeErr
}

// Events returns the inbound transcript event stream.
func (c *channel) Events() <-chan recognizer.Event {
	return c.events
}

// receive pumps inbound messages into the events channel until the stream
// ends. Undecodable payloads are logged and skipped rather than killing the
// stream.
func (c *channel) receive() {
	defer close(c.events)
	for {
		var payload []byte
		if err := c.stream.RecvMsg(&payload); err != nil {
			c.log.Debug("recognition stream closed", logger.Fields("reason", err.Error()))
			return
		}
		var ev recognizer.Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			c.log.Warn("dropping undecodable transcript event", logger.Fields("error", err.Error()))
			continue
		}
		c.events <- ev
	}
}

// openWithTimeout bounds stream establishment without a deadline leaking
// into the stream's lifetime. A timeout context on the stream itself would
// kill it mid-recognition.
func openWithTimeout(
	ctx context.Context,
	connectTimeout time.Duration,
	opener func(ctx context.Context) (grpc.ClientStream, error),
) (grpc.ClientStream, error) {
	if connectTimeout <= 0 {
		return opener(ctx)
	}

	type result struct {
		stream grpc.ClientStream
		err    error
	}
	resultCh := make(chan result, 1)

	go func() {
		stream, err := opener(ctx)
		resultCh <- result{stream: stream, err: err}
	}()

	timer := time.NewTimer(connectTimeout)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		return res.stream, res.err
	case <-timer.C:
		return nil, fmt.Errorf("stream connection timeout after %v", connectTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
