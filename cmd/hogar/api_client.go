package main

import (
	"context"
	"fmt"

	"github.com/fentz26/hogar/internal/client"
	"github.com/fentz26/hogar/internal/controlplane"
)

func newClient() *client.Client {
	return client.New(apiAddr)
}

// requireUser returns the acting member from --user or $HOGAR_USER.
func requireUser() (string, error) {
	if userName == "" {
		return "", fmt.Errorf("no user given: pass --user or set HOGAR_USER")
	}
	return userName, nil
}

// CheckHealth checks if the daemon is healthy and returns the health response.
// On a non-200 reply the payload is returned alongside the error.
func CheckHealth(ctx context.Context) (*controlplane.HealthResponse, error) {
	return newClient().Health(ctx)
}
