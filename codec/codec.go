// Package codec provides the serialization capability used by redikit.
//
// A Codec turns caller values into bytes for the store and back. Unlike a
// typed cache, the facade carries heterogeneous values, so the interface is
// shape-free: Unmarshal decodes into whatever target the caller supplies
// (a *T, a *map[string]any, a *any). Decoding is expected to be lenient on
// unknown fields in the input; missing required fields in the target are
// still the target type's problem.
package codec

// Codec encodes/decodes values to []byte for storage and transport.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(b []byte, into any) error
}

// Convert structurally re-shapes from into the target pointed to by into,
// by round-tripping through c. Unknown fields in from are dropped silently;
// incompatible shapes surface the codec's decode error.
func Convert(c Codec, from any, into any) error {
	b, err := c.Marshal(from)
	if err != nil {
		return err
	}
	return c.Unmarshal(b, into)
}
