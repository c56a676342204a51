// Package mongo connects the MongoDB client behind the Mongo profile directory
// (PROFILE_BACKEND=mongo).
package mongo
