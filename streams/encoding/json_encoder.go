package encoding

import (
	"encoding/json"

	"github.com/ersushantsood/storm/pkg/errors"
)

// JSONEncoder encodes diagnostic records. Decode yields the generic
// representation (maps, slices, float64) since debug records are not meant
// to be turned back into the values they were built from.
type JSONEncoder struct {
	Indent bool
}

func (e JSONEncoder) Encode(v interface{}) ([]byte, error) {
	var byt []byte
	var err error
	if e.Indent {
		byt, err = json.MarshalIndent(v, ``, `  `)
	} else {
		byt, err = json.Marshal(v)
	}
	if err != nil {
		return nil, errors.Wrap(err, `json encode failed`)
	}

	return byt, nil
}

func (e JSONEncoder) Decode(data []byte) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrap(err, `json decode failed`)
	}

	return v, nil
}
