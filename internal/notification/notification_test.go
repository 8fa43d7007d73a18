package notification

import (
    "bytes"
    "context"
    "encoding/json"
    "log/slog"
    "testing"
)

func TestLoggerNotifierWritesMessage(t *testing.T) {
    var buf bytes.Buffer
    n := NewLoggerNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))

    err := n.Send(context.Background(), Message{Kind: KindOTPIssued, Destination: "+91-1", Body: "code sent"})
    if err != nil {
        t.Fatalf("send: %v", err)
    }
    var entry map[string]any
    if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
        t.Fatalf("decode %q: %v", buf.String(), err)
    }
    if entry["kind"] != KindOTPIssued || entry["destination"] != "+91-1" {
        t.Fatalf("unexpected log entry %v", entry)
    }
}

func TestNilLoggerNotifierIsNoop(t *testing.T) {
    var n *LoggerNotifier
    if err := n.Send(context.Background(), Message{Kind: KindOTPResent}); err != nil {
        t.Fatalf("expected nil error, got %v", err)
    }
}
