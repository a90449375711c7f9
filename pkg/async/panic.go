package async

import (
	"fmt"
	"runtime/debug"

	"github.com/tryfix/log"
)

// PanicError carries a recovered panic and the stack it was raised on.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf(`panic: %v`, e.Value)
}

// recoverPanic turns a panic of the running function into a *PanicError
// stored in err. It must be deferred directly.
func recoverPanic(logger log.Logger, name string, err *error) {
	if r := recover(); r != nil {
		stack := debug.Stack()
		logger.Error(fmt.Sprintf(`[%s] panicked: %v`, name, r), string(stack))
		*err = &PanicError{Value: r, Stack: stack}
	}
}
