// Package rpc defines the DriveService wire contract shared by the gRPC
// server and its clients: message types, the service descriptor, the JSON
// codec they travel in and the error reasons attached to failures.
package rpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// CodecName is the gRPC content-subtype DriveService messages use
// ("application/grpc+json").
const CodecName = "json"

// MaxMessageBytes caps a single request or response; uploads travel inline.
const MaxMessageBytes = 64 << 20

// jsonCodec marshals protobuf messages (emptypb.Empty and friends) with
// protojson and plain Go structs with encoding/json.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return protojson.Marshal(m)
	}
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if m, ok := v.(proto.Message); ok {
		return protojson.Unmarshal(data, m)
	}
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
