package grpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodec implements encoding.Codec over plain JSON. The service has no
// .proto definitions; wire messages are the same model.Request/model.Delta
// structs the rest of the gateway uses, so registering this codec under the
// "json" name lets grpc.NewServer/grpc.Dial exchange them without protoc.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return "json"
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
