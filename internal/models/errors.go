package models

import "errors"

var (
	ErrInvalidArgument          = errors.New("invalid argument")
	ErrEmbeddingUnavailable     = errors.New("embedding unavailable")
	ErrIndexUnavailable         = errors.New("vector index unavailable")
	ErrSessionStoreUnavailable  = errors.New("session store unavailable")
	ErrMetadataStoreUnavailable = errors.New("metadata store unavailable")
)
