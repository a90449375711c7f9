package encoding

import (
	"fmt"
	"reflect"

	"github.com/ersushantsood/storm/pkg/errors"
)

type StringEncoder struct{}

func (b StringEncoder) Encode(v interface{}) ([]byte, error) {
	switch str := v.(type) {
	case string:
		return []byte(str), nil
	case fmt.Stringer:
		return []byte(str.String()), nil
	}

	return nil, errors.Errorf(`data is [%s] not a string`, reflect.TypeOf(v))
}

func (b StringEncoder) Decode(data []byte) (interface{}, error) {
	return string(data), nil
}
