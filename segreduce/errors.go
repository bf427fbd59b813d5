package segreduce

import "fmt"

const (
	InvalidSegmentRangeError = iota

	ZeroSegmentSizeError

	LengthMismatchError

	OutputTooSmallError

	UnknownPolicyError

	UnknownError
)

func NewError(errorCode int, message ...interface{}) error {
	var errorName string

	switch errorCode {
	case InvalidSegmentRangeError:
		errorName = "InvalidSegmentRangeError"
	case ZeroSegmentSizeError:
		errorName = "ZeroSegmentSizeError"
	case LengthMismatchError:
		errorName = "LengthMismatchError"
	case OutputTooSmallError:
		errorName = "OutputTooSmallError"
	case UnknownPolicyError:
		errorName = "UnknownPolicyError"
	default:
		errorName = "UnknownError"
	}

	if len(message) > 0 {
		return fmt.Errorf("%s: %s", errorName, message[0])
	}

	return fmt.Errorf("%s", errorName)
}
