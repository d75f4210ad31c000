// Package memory provides in-process implementations of the state and helpdesk stores.
// Everything is lost on restart; the server uses them unless Redis is configured.
package memory
