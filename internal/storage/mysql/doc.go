// Package mysql opens MySQL connections for the lookup store and applies the
// embedded schema migrations from deploy/migrations.
package mysql
