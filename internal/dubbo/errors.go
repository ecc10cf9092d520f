package dubbo

import "github.com/pkg/errors"

func errInvalidBodySize(bodyLen int32) error {
	return errors.Errorf("dubbo: invalid frame body size %d", bodyLen)
}
