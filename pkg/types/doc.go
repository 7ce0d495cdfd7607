// Package types defines the declarative resource configuration, the entity
// model, the gateway and notifier interfaces, and the standard error types
// shared by the list and detail engines.
package types
