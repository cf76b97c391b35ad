package ipc

import (
	"bufio"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func startServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir, err := os.MkdirTemp("", "ipc")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "s.sock")
	s := NewServer(path)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(s.Close)
	return s, path
}

func waitClients(t *testing.T, s *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", n, s.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readLine(t *testing.T, r *bufio.Reader, conn net.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return strings.TrimSuffix(line, "\n")
}

func TestServerBroadcast(t *testing.T) {
	s, path := startServer(t)
	s.Broadcast("first")

	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	r := bufio.NewReader(conn)

	if got := readLine(t, r, conn); got != "first" {
		t.Errorf("initial line = %q, want first", got)
	}
	waitClients(t, s, 1)

	s.Broadcast("second")
	if got := readLine(t, r, conn); got != "second" {
		t.Errorf("broadcast line = %q, want second", got)
	}

	conn.Close()
	waitClients(t, s, 0)
}

func TestServerSingleInstance(t *testing.T) {
	_, path := startServer(t)

	second := NewServer(path)
	if err := second.Start(); err == nil {
		second.Close()
		t.Fatal("expected second instance to fail acquiring the lock")
	}
}

func TestServerStaleLock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.sock")
	if err := os.WriteFile(path+".lock", []byte("not-a-pid\n"), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewServer(path)
	if err := s.Start(); err != nil {
		t.Fatalf("stale lock should be cleaned, got %v", err)
	}
	s.Close()
	if _, err := os.Stat(path + ".lock"); !os.IsNotExist(err) {
		t.Errorf("lock file should be removed on Close, stat err = %v", err)
	}
}
