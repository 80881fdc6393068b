package wire

import (
	"bytes"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	body := []byte(`{"type":"serve_read","args":["",-1,0,true]}`)
	if err := WriteFrame(&buf, body); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if buf.Len() != HeaderLength+len(body) {
		t.Fatalf("unexpected frame length: %d", buf.Len())
	}

	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Fatalf("body mismatch: got %q want %q", got, body)
	}
}

func TestRequestRoundTrip(t *testing.T) {
	req, err := NewRequest(TypeServeWrite, "", -1, 0, 42, true)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteRequest(&buf, req); err != nil {
		t.Fatalf("WriteRequest: %v", err)
	}

	got, err := ReadRequest(&buf)
	if err != nil {
		t.Fatalf("ReadRequest: %v", err)
	}
	if got.Type != TypeServeWrite {
		t.Fatalf("unexpected type: %s", got.Type)
	}

	var address int
	if err := Arg(got.Args, 2, &address); err != nil {
		t.Fatalf("Arg(2): %v", err)
	}
	if address != 0 {
		t.Fatalf("unexpected address: %d", address)
	}

	var data any
	if err := Arg(got.Args, 3, &data); err != nil {
		t.Fatalf("Arg(3): %v", err)
	}
	if data.(float64) != 42 {
		t.Fatalf("unexpected data: %v", data)
	}
}

func TestReplyRoundTrip(t *testing.T) {
	reply := Reply{
		Status:  StatusSuccess,
		Data:    "hello",
		IStatus: StatusE,
		WTag:    Uint64Ptr(3),
		LTag:    Uint64Ptr(4),
	}

	var buf bytes.Buffer
	if err := WriteReply(&buf, reply); err != nil {
		t.Fatalf("WriteReply: %v", err)
	}

	got, err := ReadReply(&buf)
	if err != nil {
		t.Fatalf("ReadReply: %v", err)
	}
	if got.Status != StatusSuccess || got.Data != "hello" || *got.WTag != 3 || *got.LTag != 4 {
		t.Fatalf("unexpected reply: %+v", got)
	}
}

func TestEndpointJSONIsArrayPair(t *testing.T) {
	ep := Endpoint{Host: "127.0.0.1", Port: 9001}
	b, err := ep.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(b) != `["127.0.0.1",9001]` {
		t.Fatalf("unexpected encoding: %s", b)
	}

	var round Endpoint
	if err := round.UnmarshalJSON(b); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if round != ep {
		t.Fatalf("round-trip mismatch: %+v", round)
	}
}

func TestReadFrameRejectsShortHeader(t *testing.T) {
	buf := bytes.NewBufferString("not a valid header at all")
	if _, err := ReadFrame(buf); err == nil {
		t.Fatal("expected error for short/invalid header")
	}
}
