// Package domain contains the task entity, its status lifecycle, due-date
// rules and the value types shared by the validation, store and service
// layers. It has no knowledge of HTTP, SQL or caching.
package domain
