package mailer

import (
	"context"
	"net"
	"testing"
	"time"
)

// silentRelay accepts connections and never writes the SMTP greeting, so a
// client without a deadline would block forever on the first read.
func silentRelay(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	done := make(chan struct{})
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				<-done
				c.Close()
			}(conn)
		}
	}()
	t.Cleanup(func() {
		close(done)
		listener.Close()
	})
	return listener.Addr().String()
}

func TestDeliverHonorsContextDeadline(t *testing.T) {
	addr := silentRelay(t)
	smtp := NewSMTP(addr, "noreply@example.org", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := smtp.Deliver(ctx, "ramesh@example.com", "code", "your one-time code is 123456", nil, "")
	if err == nil {
		t.Fatalf("expected a delivery error from a silent relay")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("deadline not enforced, delivery took %s", elapsed)
	}
}

func TestDeliverFailsFastOnRefusedConnection(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	smtp := NewSMTP(addr, "noreply@example.org", nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := smtp.Deliver(ctx, "ramesh@example.com", "code", "body", nil, ""); err == nil {
		t.Fatalf("expected dial error for closed port")
	}
}
