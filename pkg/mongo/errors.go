package mongo

import "errors"

var (
	ErrFailedToConnectToMongo = errors.New("failed to connect to mongo")
	ErrUnhealthy              = errors.New("mongo: primary did not answer ping")
	ErrEmptyConnectionURL     = errors.New("empty mongo connection URL, set MONGODB_URL")
)
