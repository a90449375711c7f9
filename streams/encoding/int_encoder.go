package encoding

import (
	"reflect"
	"strconv"

	"github.com/ersushantsood/storm/pkg/errors"
)

// IntEncoder encodes any signed integer kind, including named types such as
// task and component ids. Decode always yields an int.
type IntEncoder struct{}

func (b IntEncoder) Encode(data interface{}) ([]byte, error) {
	v := reflect.ValueOf(data)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return []byte(strconv.FormatInt(v.Int(), 10)), nil
	}

	return nil, errors.Errorf(`incorrect type expected (int) have (%s)`, reflect.TypeOf(data))
}

func (b IntEncoder) Decode(data []byte) (interface{}, error) {
	i, err := strconv.Atoi(string(data))
	if err != nil {
		return nil, errors.Wrap(err, `invalid integer`)
	}

	return i, nil
}
