package datasource

import "errors"

// Sentinel errors for malformed data files. Both are reported under the
// errs.ErrDataSourceMissing kind.
var (
	ErrMissingColumns = errors.New("missing required columns")
	ErrEmptyFile      = errors.New("file has no header row")
)
