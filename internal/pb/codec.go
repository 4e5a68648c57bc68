package pb

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// Name is registered as the content-subtype grpc-go negotiates via the
// "grpc+<name>" content type. Clients must dial with
// grpc.CallContentSubtype(pb.Name) (or set it as the default codec) to
// talk to this service, since no protobuf descriptors exist for it.
const Name = "json"

// jsonCodec implements encoding.Codec on top of encoding/json. grpc-go's
// codec registry (google.golang.org/grpc/encoding) is a first-class
// extension point for exactly this: a wire format other than protobuf
// riding the same streaming/transport machinery.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string { return Name }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
