package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"FinBot/pkg/logger"
)

type commandPayload struct {
	Command string `json:"command"`
	UserID  string `json:"user_id"`
}

type recordingJob struct {
	got []commandPayload
	err error
}

func (j *recordingJob) Name() string { return "recording" }
func (j *recordingJob) Type() string { return "command" }

func (j *recordingJob) Handle(_ context.Context, payload json.RawMessage) error {
	p, err := ParsePayload[commandPayload](payload)
	if err != nil {
		return err
	}
	j.got = append(j.got, *p)
	return j.err
}

func TestEncodeMessageRoundTrip(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	enc, err := encodeMessage("command", commandPayload{Command: "arima", UserID: "42"}, now)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if enc.id == "" {
		t.Fatalf("expected generated id")
	}

	var msg Message
	if err := json.Unmarshal(enc.raw, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != "command" || !msg.Timestamp.Equal(now) || msg.ID != enc.id {
		t.Fatalf("unexpected envelope %+v", msg)
	}
	p, err := ParsePayload[commandPayload](msg.Payload)
	if err != nil || p.Command != "arima" || p.UserID != "42" {
		t.Fatalf("payload = %+v, %v", p, err)
	}
}

func TestProcessRunsRegisteredJob(t *testing.T) {
	q := NewRedisQueue(logger.NewNop(), &Config{}, nil)
	job := &recordingJob{}
	q.RegisterJob(job)

	payload, _ := json.Marshal(commandPayload{Command: "top"})
	if ok := q.process(Message{ID: "1", Type: "command", Payload: payload}); !ok {
		t.Fatalf("expected success")
	}
	if len(job.got) != 1 || job.got[0].Command != "top" {
		t.Fatalf("job saw %+v", job.got)
	}
}

func TestProcessUnknownType(t *testing.T) {
	q := NewRedisQueue(logger.NewNop(), &Config{}, nil)
	if q.process(Message{ID: "1", Type: "missing"}) {
		t.Fatalf("unknown type must fail")
	}
}

func TestRunJobRecoversPanic(t *testing.T) {
	err := runJob(context.Background(), panicJob{}, nil)
	if err == nil {
		t.Fatalf("expected error from panic")
	}
}

type panicJob struct{}

func (panicJob) Name() string                                  { return "panic" }
func (panicJob) Type() string                                  { return "panic" }
func (panicJob) Handle(context.Context, json.RawMessage) error { panic(errors.New("boom")) }

func TestEnqueueRequiresRunning(t *testing.T) {
	q := NewRedisQueue(logger.NewNop(), &Config{}, nil)
	q.RegisterJob(&recordingJob{})
	if _, err := q.Enqueue(context.Background(), "command", commandPayload{}); err == nil {
		t.Fatalf("enqueue on stopped queue should fail")
	}
}
