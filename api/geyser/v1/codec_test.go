package geyserv1

import (
	"bytes"
	"testing"

	"google.golang.org/grpc/encoding"
)

func TestJSONCodecRegistered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	if c == nil {
		t.Fatalf("codec %q not registered", CodecName)
	}
	b, err := c.Marshal(&GetHighestWriteSlotResponse{HighestWriteSlot: 5})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(b, []byte(`{"highest_write_slot":5}`)) {
		t.Fatalf("unexpected body %s", b)
	}
}
