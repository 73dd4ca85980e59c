package consts

import "time"

const (
	DBCtxTimeout = 3 * time.Second

	DefaultSortBy = "createdAt"
	DefaultLimit  = 10
)
