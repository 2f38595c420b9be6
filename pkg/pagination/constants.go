package pagination

const (
	// DefaultPageSize is used when a caller does not ask for a page size.
	DefaultPageSize = 12

	// MaxPageSize caps page sizes requested over HTTP.
	MaxPageSize = 500
)
