package device

import "go.uber.org/multierr"

// ReleaseAll releases every non-nil resource in reverse order of the arguments
// and combines their errors.
func ReleaseAll(rs ...Releaser) error {
	var err error
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i] == nil {
			continue
		}
		err = multierr.Combine(err, rs[i].Release())
	}
	return err
}
