// Package api serves the task REST API. It decodes and validates requests,
// calls the task service and renders the {success, message, data} envelope,
// mapping every error kind to a status code and client-safe message.
package api
