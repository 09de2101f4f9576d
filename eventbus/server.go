package eventbus

import (
	"errors"
	"fmt"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
)

// ServerOptions configures an embedded NATS server.
type ServerOptions struct {
	Host string
	// Port 0 picks a random free port.
	Port int
	// ReadyTimeout bounds how long NewServer waits for the server to accept clients.
	ReadyTimeout time.Duration
}

// Server is an in-process NATS server.
type Server struct {
	ns *natsserver.Server
}

// NewServer starts an embedded NATS server and waits until it accepts connections.
func NewServer(optFns ...func(o *ServerOptions)) (*Server, error) {
	opts := ServerOptions{
		Host:         "127.0.0.1",
		ReadyTimeout: 5 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	port := opts.Port
	if port == 0 {
		port = natsserver.RANDOM_PORT
	}

	ns, err := natsserver.NewServer(&natsserver.Options{
		Host:   opts.Host,
		Port:   port,
		NoLog:  true,
		NoSigs: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create nats server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(opts.ReadyTimeout) {
		ns.Shutdown()
		return nil, errors.New("nats server not ready")
	}
	return &Server{ns: ns}, nil
}

// ClientURL returns the URL clients connect to.
func (s *Server) ClientURL() string {
	return s.ns.ClientURL()
}

// Close shuts the server down and waits for it to stop.
func (s *Server) Close() {
	s.ns.Shutdown()
	s.ns.WaitForShutdown()
}
