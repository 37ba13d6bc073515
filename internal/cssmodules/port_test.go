package icm

import (
	"net"
	"testing"
)

func TestGetFreePort(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	defer ln.Close()
	taken := ln.Addr().(*net.TCPAddr).Port

	port, err := getFreePort(taken, NopLogger())
	if err != nil {
		t.Fatalf("getFreePort() error = %v", err)
	}
	if port == taken {
		t.Errorf("getFreePort() = %d, which is in use", port)
	}
	if _, err := checkPortAvailability(port); err != nil {
		t.Errorf("getFreePort() returned unavailable port %d: %v", port, err)
	}
}

func TestGetRandomFreePort(t *testing.T) {
	port, err := getRandomFreePort()
	if err != nil {
		t.Fatalf("getRandomFreePort() error = %v", err)
	}
	if port <= 0 || port > 65535 {
		t.Errorf("getRandomFreePort() = %d, out of range", port)
	}
}
