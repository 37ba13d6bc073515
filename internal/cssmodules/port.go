package icm

import (
	"fmt"
	"net"
)

const (
	maxOffset       = 1024
	defaultFreePort = 10_000
)

// getFreePort tries preferredPort, then the next maxOffset ports, then
// whatever the kernel hands out.
func getFreePort(preferredPort int, logger Logger) (int, error) {
	if preferredPort == 0 {
		preferredPort = defaultFreePort
	}

	if port, err := checkPortAvailability(preferredPort); err == nil {
		return port, nil
	}

	for i := range maxOffset {
		port := preferredPort + i
		if port > 65535 {
			break
		}
		if port, err := checkPortAvailability(port); err == nil {
			logger.Warnf("port %d unavailable: falling back to port %d", preferredPort, port)
			return port, nil
		}
	}

	return getRandomFreePort()
}

func checkPortAvailability(port int) (int, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return 0, err
	}
	defer ln.Close()

	return port, nil
}

func getRandomFreePort() (int, error) {
	a, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	l, err := net.ListenTCP("tcp", a)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
