package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Strob0t/SwarmForge/internal/agent"
	"github.com/Strob0t/SwarmForge/internal/domain/message"
	"github.com/Strob0t/SwarmForge/internal/port/bus"
)

// finalWait bounds how long a front end waits for the closing output of a
// request before giving the prompt back.
const finalWait = 30 * time.Second

// noopHandler satisfies agent.New for agents that drive their own inbox
// instead of using the generic pump.
var noopHandler = agent.HandlerFunc(
	func(context.Context, *agent.Agent, message.Message) error { return nil },
)

// repl is the interactive front end. It registers a user agent on the bus,
// reads requests from stdin, forwards them to the coordinator, and prints
// user_output lines as they come back.
type repl struct {
	a           *agent.Agent
	coordinator string
	in          io.Reader
	out         io.Writer
}

func newREPL(name string, b bus.Bus, coordinator string) (*repl, error) {
	a, err := agent.New(name, "user", b, noopHandler)
	if err != nil {
		return nil, err
	}
	return &repl{a: a, coordinator: coordinator, in: os.Stdin, out: os.Stdout}, nil
}

func (r *repl) Name() string { return r.a.Name() }
func (r *repl) Bus() bus.Bus { return r.a.Bus() }

// Run owns the repl's inbox directly so it can interleave stdin lines with
// incoming messages. It returns when a shutdown message arrives or the
// context is cancelled.
func (r *repl) Run(ctx context.Context) error {
	fmt.Fprintln(r.out, "SwarmForge interactive shell. Type a request, 'status', or 'quit'.")

	lines := make(chan string)
	go readLines(r.in, lines)

	msgs := make(chan message.Message)
	go pumpInbox(ctx, r.a, msgs)

	quitting := false
	fmt.Fprint(r.out, "> ")
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			r.print(msg)
		case line, ok := <-lines:
			if !ok {
				// stdin closed: shut the swarm down and wait for the
				// broadcast to come back through our own mailbox.
				if !quitting {
					r.a.RequestShutdown()
					quitting = true
				}
				lines = nil
				continue
			}
			if r.dispatch(ctx, line, msgs) {
				quitting = true
				continue
			}
			fmt.Fprint(r.out, "> ")
		}
	}
}

// dispatch handles one input line and reports whether it requested shutdown.
func (r *repl) dispatch(ctx context.Context, line string, msgs <-chan message.Message) bool {
	line = strings.TrimSpace(line)
	switch line {
	case "":
	case "quit", "exit":
		r.a.RequestShutdown()
		return true
	case "status":
		if lister, ok := r.a.Bus().(interface{ AgentNames() []string }); ok {
			fmt.Fprintf(r.out, "registered agents: %s\n", strings.Join(lister.AgentNames(), ", "))
		} else {
			fmt.Fprintln(r.out, "status not supported by this bus")
		}
	default:
		r.a.Send(r.coordinator, message.KindUserRequest, line)
		r.waitForFinal(ctx, msgs)
	}
	return false
}

// waitForFinal prints outputs for the in-flight request until the closing
// one arrives, so transcript lines do not interleave with the next prompt.
func (r *repl) waitForFinal(ctx context.Context, msgs <-chan message.Message) {
	timer := time.NewTimer(finalWait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			fmt.Fprintln(r.out, "(still working; output will appear when ready)")
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			if r.print(msg) {
				return
			}
		}
	}
}

// print writes a user_output line and reports whether it closed a request.
func (r *repl) print(msg message.Message) bool {
	if msg.Kind != message.KindUserOutput {
		return false
	}
	out, ok := msg.Payload.(message.UserOutput)
	if !ok {
		return false
	}
	fmt.Fprintln(r.out, out.Text)
	return out.Final
}

// oneShot submits a single request, prints the transcript, and stops the
// swarm once the closing output arrives.
type oneShot struct {
	a           *agent.Agent
	coordinator string
	request     string
	out         io.Writer
}

func newOneShot(name string, b bus.Bus, coordinator, request string) (*oneShot, error) {
	a, err := agent.New(name, "user", b, noopHandler)
	if err != nil {
		return nil, err
	}
	return &oneShot{a: a, coordinator: coordinator, request: request, out: os.Stdout}, nil
}

func (o *oneShot) Name() string { return o.a.Name() }
func (o *oneShot) Bus() bus.Bus { return o.a.Bus() }

func (o *oneShot) Run(ctx context.Context) error {
	msgs := make(chan message.Message)
	go pumpInbox(ctx, o.a, msgs)

	o.a.Send(o.coordinator, message.KindUserRequest, o.request)

	timer := time.NewTimer(finalWait)
	defer timer.Stop()

	done := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			if !done {
				fmt.Fprintln(o.out, "timed out waiting for a result")
				o.a.RequestShutdown()
				done = true
			}
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if msg.Kind != message.KindUserOutput {
				continue
			}
			out, ok := msg.Payload.(message.UserOutput)
			if !ok {
				continue
			}
			fmt.Fprintln(o.out, out.Text)
			if out.Final && !done {
				o.a.RequestShutdown()
				done = true
			}
		}
	}
}

// readLines feeds stdin lines into out and closes it on EOF.
func readLines(in io.Reader, out chan<- string) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		out <- scanner.Text()
	}
	close(out)
}

// pumpInbox forwards the agent's mailbox into out. It closes out when a
// shutdown message arrives or the context is cancelled, which is the signal
// for the front end loop to exit.
func pumpInbox(ctx context.Context, a *agent.Agent, out chan<- message.Message) {
	defer close(out)
	for {
		msg, err := a.Inbox().Get(ctx)
		if err != nil {
			return
		}
		if msg.Kind == message.KindShutdown {
			return
		}
		select {
		case out <- msg:
		case <-ctx.Done():
			return
		}
	}
}
