package codec

import "encoding/json"

// JSON is the default codec. encoding/json ignores unknown input fields and
// handles time.Time out of the box, which is exactly the lenient policy the
// facade promises. The zero value is ready to use.
type JSON struct{}

var _ Codec = JSON{}

func (JSON) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSON) Unmarshal(b []byte, into any) error { return json.Unmarshal(b, into) }
