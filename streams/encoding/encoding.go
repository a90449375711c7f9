// Package encoding holds the encoders used to render topology and task
// metadata for debug endpoints and command line output.
package encoding

// Encoder converts values to and from their wire representation.
type Encoder interface {
	Encode(v interface{}) ([]byte, error)
	Decode(data []byte) (interface{}, error)
}
