package repo

import "errors"

// Общие ошибки репозитория.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists — конфликт уникальности (имя задачи в очереди).
	ErrAlreadyExists = errors.New("already exists")
)
