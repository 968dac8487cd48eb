package lorapb

import (
	"bytes"
	"encoding/gob"

	"google.golang.org/grpc/encoding"
)

// codecName is the content-subtype this codec is registered under with
// grpc's encoding package. Registration alone does not make it the
// default: servers built with NewGRPCServer force it via
// grpc.ForceServerCodec, and clients select it by dialing with
// grpc.CallContentSubtype(CodecName()).
const codecName = "lorapb-gob"

// gobCodec implements encoding.Codec by delegating to encoding/gob,
// standing in for the protobuf wire codec protoc-gen-go would otherwise
// require (see package doc in messages.go for why).
type gobCodec struct{}

func (gobCodec) Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobCodec) Unmarshal(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func (gobCodec) Name() string { return codecName }

func init() {
	encoding.RegisterCodec(gobCodec{})
}
