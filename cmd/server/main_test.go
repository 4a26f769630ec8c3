package main

import (
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestServeReturnsListenError(t *testing.T) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	done := make(chan error, 1)
	go func() { done <- serve(e, "bad:addr:99", hclog.NewNullLogger()) }()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after the listener failed")
	}
}
