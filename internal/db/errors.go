package db

import "errors"

// Sentinel errors returned by the store. Services translate these into API
// error responses; handlers never see raw pgx errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicateName = errors.New("a record with this name already exists")
	ErrDuplicateKey  = errors.New("record already exists")
)
