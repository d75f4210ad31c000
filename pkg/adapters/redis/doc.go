// Package redis shares troubleshooting sessions and their locks between helpdesk replicas.
package redis
