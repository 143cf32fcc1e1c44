/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// WaitListeningServer waits until the server is ready to accept TCP connection on the passing address.
func WaitListeningServer(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if conn, err := net.DialTimeout("tcp", addr, time.Second); err == nil {
			return conn.Close()
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("waiting for listening server on %s timed out", addr)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// WaitPortAndListeningServer waits until the port is known and the server accepts TCP connections on it.
// Servers bound to ":0" report the port only after they start listening.
func WaitPortAndListeningServer(host string, getPort func() int, timeout time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)
	port := getPort()
	for port <= 0 {
		if time.Now().After(deadline) {
			return 0, errors.New("waiting for listening port timed out")
		}
		time.Sleep(10 * time.Millisecond)
		port = getPort()
	}
	return port, WaitListeningServer(fmt.Sprintf("%s:%d", host, port), time.Until(deadline))
}
