package repository

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

type PageRequest struct {
	Skip  int
	Limit int
}

type PageResult[T any] struct {
	Items []T
	Skip  int
	Limit int
	Total int64
}

func normalizePageRequest(in PageRequest) PageRequest {
	skip := in.Skip
	if skip < 0 {
		skip = 0
	}
	limit := in.Limit
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return PageRequest{Skip: skip, Limit: limit}
}
