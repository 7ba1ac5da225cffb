// Package http implements the gateway adapter: an HTTP surface that talks
// to the swarm the same way any agent does, through the message contract.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/Strob0t/SwarmForge/internal/adapter/ws"
	"github.com/Strob0t/SwarmForge/internal/agent"
	"github.com/Strob0t/SwarmForge/internal/domain/message"
	"github.com/Strob0t/SwarmForge/internal/port/cache"
	"github.com/Strob0t/SwarmForge/internal/service"
)

// maxOutputLines bounds the in-memory output feed served over HTTP.
const maxOutputLines = 256

// Gateway bridges HTTP clients and the swarm. It is registered on the bus
// under its own agent name: submissions become user_request messages to the
// coordinator, and user_output replies are collected into a bounded feed.
type Gateway struct {
	coordinatorName string
	coord           *service.CoordinatorService
	archive         cache.Cache
	hub             *ws.Hub

	mu      sync.Mutex
	a       *agent.Agent
	outputs []message.UserOutput
}

// NewGateway creates a Gateway. archive and hub may be nil.
func NewGateway(coordinatorName string, coord *service.CoordinatorService, archive cache.Cache, hub *ws.Hub) *Gateway {
	return &Gateway{
		coordinatorName: coordinatorName,
		coord:           coord,
		archive:         archive,
		hub:             hub,
	}
}

// Bind attaches the gateway's bus agent. Must be called before serving.
func (g *Gateway) Bind(a *agent.Agent) {
	g.mu.Lock()
	g.a = a
	g.mu.Unlock()
}

// Handle is the gateway's agent handler: it collects user_output messages
// into the feed; every other kind falls through unhandled.
func (g *Gateway) Handle(_ context.Context, a *agent.Agent, msg message.Message) error {
	switch msg.Kind {
	case message.KindUserOutput:
		out, ok := msg.Payload.(message.UserOutput)
		if !ok {
			slog.Warn("malformed user_output payload", "sender", msg.Sender)
			return nil
		}
		g.mu.Lock()
		g.outputs = append(g.outputs, out)
		if len(g.outputs) > maxOutputLines {
			g.outputs = g.outputs[len(g.outputs)-maxOutputLines:]
		}
		g.mu.Unlock()
		return nil

	default:
		slog.Debug("unhandled message", "agent", a.Name(), "kind", msg.Kind)
		return nil
	}
}

// submit sends a user_request to the coordinator on behalf of an HTTP client.
// Fire-and-forget; the pipeline acknowledges through the output feed.
func (g *Gateway) submit(description string) bool {
	g.mu.Lock()
	a := g.a
	g.mu.Unlock()

	if a == nil {
		return false
	}
	a.Send(g.coordinatorName, message.KindUserRequest, description)
	return true
}

// outputFeed returns a snapshot of collected user_output lines.
func (g *Gateway) outputFeed() []message.UserOutput {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]message.UserOutput, len(g.outputs))
	copy(out, g.outputs)
	return out
}

// HandleWS delegates to the hub, or 404s when no hub is configured.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	if g.hub == nil {
		http.NotFound(w, r)
		return
	}
	g.hub.HandleWS(w, r)
}
