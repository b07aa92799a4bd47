package testutil

import (
	"context"
	"fmt"
	"os"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// NATSContainer is a throwaway NATS server for integration tests.
type NATSContainer struct {
	URL       string
	container testcontainers.Container
}

// StartNATS returns TEST_NATS_URL when set, otherwise starts a nats container.
func StartNATS(ctx context.Context) (*NATSContainer, error) {
	if url := os.Getenv("TEST_NATS_URL"); url != "" {
		return &NATSContainer{URL: url}, nil
	}

	req := testcontainers.ContainerRequest{
		Image:        "nats:2.11.7-alpine",
		ExposedPorts: []string{"4222/tcp"},
		Cmd:          []string{"--port", "4222"},
		WaitingFor:   wait.ForListeningPort("4222/tcp"),
	}
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("start nats container: %w", err)
	}

	host, err := ctr.Host(ctx)
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, fmt.Errorf("nats container host: %w", err)
	}
	port, err := ctr.MappedPort(ctx, "4222")
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, fmt.Errorf("nats mapped port: %w", err)
	}
	return &NATSContainer{URL: fmt.Sprintf("nats://%s:%s", host, port.Port()), container: ctr}, nil
}

// Terminate stops the container if one was started.
func (n *NATSContainer) Terminate(ctx context.Context) error {
	if n == nil || n.container == nil {
		return nil
	}
	return n.container.Terminate(ctx)
}
