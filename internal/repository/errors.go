package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")

	//ユニーク制約違反（同時作成の負け側）
	ErrDuplicate = errors.New("duplicate")
)
